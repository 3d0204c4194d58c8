// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package models defines the data structures shared across the triage service.
package models

// Header keys every ParsedMessage carries. A header missing from the input
// container is normalised to an empty string under its key, never dropped.
const (
	HeaderSubject = "subject"
	HeaderFrom    = "from"
	HeaderTo      = "to"
	HeaderCC      = "cc"
	HeaderDate    = "date"
)

// HeaderKeys lists the canonical header set in declaration order.
var HeaderKeys = []string{HeaderSubject, HeaderFrom, HeaderTo, HeaderCC, HeaderDate}

// AttachmentRef references one attachment blob inside a parsed container.
// The payload is transient: it is exclusively owned until extraction consumes
// it, after which Release must be called exactly once.
type AttachmentRef struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Payload     []byte `json:"-"`
}

// Release drops the payload buffer. Safe to call once per ref; the extractor
// calls it on every exit path.
func (a *AttachmentRef) Release() {
	a.Payload = nil
}

// ParsedMessage is the canonical representation of one ingested container.
type ParsedMessage struct {
	Headers     map[string]string `json:"headers"`
	Body        string            `json:"body"`
	Attachments []AttachmentRef   `json:"attachments"`
}

// NewParsedMessage returns a message with all five header keys present
// as empty strings.
func NewParsedMessage() *ParsedMessage {
	headers := make(map[string]string, len(HeaderKeys))
	for _, k := range HeaderKeys {
		headers[k] = ""
	}
	return &ParsedMessage{Headers: headers}
}

// ExtractedAttachment is the per-attachment extraction outcome. Text is empty
// and Extracted false when every strategy in the fallback chain failed.
type ExtractedAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Text        string `json:"text,omitempty"`
	SizeBytes   int    `json:"size_bytes"`
	Extracted   bool   `json:"extracted"`
	FailReason  string `json:"fail_reason,omitempty"`
}
