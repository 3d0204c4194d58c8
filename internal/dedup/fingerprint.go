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

// Package dedup detects duplicate and threaded submissions. A submission is
// fingerprinted from its canonicalised subject, sender, date and meaningful
// body content; fingerprints are checked against a shared store with atomic
// check-and-insert semantics so two identical messages arriving concurrently
// cannot both be accepted.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// maxKeyTokens caps the meaningful-content portion of the fingerprint key.
// The cap is on whitespace-delimited tokens of the joined content, applied
// after line filtering.
const maxKeyTokens = 500

// contentCutoffs end key-content derivation at the first line starting with
// one of these markers. Stricter than the sanitizer's cutoff on purpose: the
// fingerprint must survive noise the sanitizer lets through, such as
// report-generation footers.
var contentCutoffs = []string{
	"regards",
	"best regards",
	"kind regards",
	"thanks",
	"cheers",
	"generated on",
}

// keyContent derives the meaningful body content for fingerprinting: blank
// lines dropped, truncated at the first cutoff line, joined with single
// spaces and capped at maxKeyTokens tokens.
func keyContent(body string) string {
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		cut := false
		for _, marker := range contentCutoffs {
			if strings.HasPrefix(lower, marker) {
				cut = true
				break
			}
		}
		if cut {
			break
		}
		kept = append(kept, trimmed)
	}

	tokens := strings.Fields(strings.Join(kept, " "))
	if len(tokens) > maxKeyTokens {
		tokens = tokens[:maxKeyTokens]
	}
	return strings.Join(tokens, " ")
}

// Fingerprint computes the content digest for one submission. Deterministic:
// identical inputs always produce the same digest, and any change to subject,
// sender, date or meaningful content changes it.
func Fingerprint(subject, sender, sentDate, body string) string {
	key := strings.ToLower(subject) + "|" +
		strings.ToLower(sender) + "|" +
		sentDate + "|" +
		strings.ToLower(keyContent(body))

	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
