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

package dedup

import (
	"fmt"
	"regexp"
	"strings"
)

// ThreadInfo describes a body's membership in an existing conversation.
type ThreadInfo struct {
	IsThread bool
	// Type is "forward", "reply" or "quote" when IsThread is true.
	Type string
	// OriginalContent is the text after the thread marker, when the marker
	// splits the body (forward and reply only).
	OriginalContent string
}

// Reason renders the duplicate-class reason for a thread member.
func (t ThreadInfo) Reason() string {
	return fmt.Sprintf("part of thread: %s", t.Type)
}

// Ordered markers; first match wins.
var (
	forwardMarker = regexp.MustCompile(`(?i)-+\s*(Forwarded message|Original Message)\s*-+`)
	replyMarker   = regexp.MustCompile(`(?m)^On .+ wrote:`)
	quoteMarker   = regexp.MustCompile(`(?m)^>`)
)

// AnalyzeThread tests the body against forward, reply and quote markers.
// A thread member is treated as duplicate-class even when its fingerprint
// is novel.
func AnalyzeThread(body string) ThreadInfo {
	if loc := forwardMarker.FindStringIndex(body); loc != nil {
		return ThreadInfo{
			IsThread:        true,
			Type:            "forward",
			OriginalContent: strings.TrimSpace(body[loc[1]:]),
		}
	}
	if loc := replyMarker.FindStringIndex(body); loc != nil {
		return ThreadInfo{
			IsThread:        true,
			Type:            "reply",
			OriginalContent: strings.TrimSpace(body[loc[1]:]),
		}
	}
	if quoteMarker.MatchString(body) {
		return ThreadInfo{IsThread: true, Type: "quote"}
	}
	return ThreadInfo{}
}
