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

// Package sanitize strips mailer-injected noise from message bodies before
// they reach dedup and classification: signatures, closing salutations,
// device taglines and confidentiality boilerplate.
package sanitize

import (
	"regexp"
	"strings"
)

// Strip rules run in order against the already-truncated text, so a
// signature removed by an earlier rule cannot re-trigger a later one.
var (
	signatureDelimiter  = regexp.MustCompile(`(?m)^(--|__)\s*$`)
	closingSalutation   = regexp.MustCompile(`(?i)(best regards|kind regards|regards|thanks|cheers)`)
	deviceTagline       = regexp.MustCompile(`(?i)sent from my \S+`)
	confidentialityMark = regexp.MustCompile(`(?i)(confidentiality notice|this message is confidential)`)
	multipleBlankLines  = regexp.MustCompile(`\n[ \t]*\n(\s*\n)+`)
	trailingLineSpace   = regexp.MustCompile(`[ \t]+\n`)
)

// Clean removes signature blocks, closing salutations, device taglines and
// confidentiality notices, collapses runs of blank lines and trims the
// result. Deterministic, stateless and idempotent.
func Clean(body string) string {
	if body == "" {
		return ""
	}

	// MIME-decoded bodies carry CRLF line endings; the strip and collapse
	// rules operate on bare newlines.
	cleaned := strings.ReplaceAll(body, "\r\n", "\n")
	for _, re := range []*regexp.Regexp{signatureDelimiter, closingSalutation, deviceTagline, confidentialityMark} {
		if loc := re.FindStringIndex(cleaned); loc != nil {
			cleaned = cleaned[:loc[0]]
		}
	}

	cleaned = trailingLineSpace.ReplaceAllString(cleaned, "\n")
	cleaned = multipleBlankLines.ReplaceAllString(cleaned, "\n\n")

	return strings.TrimSpace(cleaned)
}
