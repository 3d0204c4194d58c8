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

// Package parser decodes message containers into the canonical ParsedMessage.
// Two wire formats are supported: RFC 5322 MIME (.eml) and the Outlook
// compound-document format (.msg). Nested containers re-enter the parser up
// to a fixed depth bound.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ewfx/gaied-deep-learners/internal/models"
	"github.com/ewfx/gaied-deep-learners/internal/sanitize"
)

// MaxDepth bounds nested-container recursion. Source nesting is unbounded,
// so exceeding the bound is a hard failure rather than a silent truncation.
const MaxDepth = 5

var (
	// ErrMalformedContainer marks container bytes that could not be decoded.
	// Fatal to the submission; a partially populated message is never returned.
	ErrMalformedContainer = errors.New("malformed container")

	// ErrNestingTooDeep marks a container nested past MaxDepth.
	ErrNestingTooDeep = errors.New("container nesting too deep")
)

// Format identifies the container wire format, derived from the filename.
type Format int

const (
	FormatUnknown Format = iota
	FormatMIME           // .eml / .txt
	FormatCompound       // .msg
)

// DetectFormat maps a filename extension to a container format. Anything
// that is not .msg is treated as MIME, matching the upstream intake rule.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".msg":
		return FormatCompound
	default:
		return FormatMIME
	}
}

// Parse decodes raw container bytes into a ParsedMessage. The body is
// sanitized before return; header absence is normalised to empty strings.
func Parse(raw []byte, format Format) (*models.ParsedMessage, error) {
	return parseDepth(raw, format, 0)
}

func parseDepth(raw []byte, format Format, depth int) (*models.ParsedMessage, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds %d", ErrNestingTooDeep, depth, MaxDepth)
	}

	var (
		msg *models.ParsedMessage
		err error
	)
	switch format {
	case FormatCompound:
		msg, err = parseCompound(raw)
	default:
		msg, err = parseMIME(raw, depth)
	}
	if err != nil {
		return nil, err
	}

	msg.Body = sanitize.Clean(msg.Body)
	return msg, nil
}
