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

package parser

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/ewfx/gaied-deep-learners/internal/models"
)

// TestDetectFormat verifies extension-based format detection.
func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"notice.msg", FormatCompound},
		{"NOTICE.MSG", FormatCompound},
		{"notice.eml", FormatMIME},
		{"notice.txt", FormatMIME},
		{"noextension", FormatMIME},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := DetectFormat(tt.filename); got != tt.want {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

// TestParseSimpleMessage verifies header normalisation and body capture for
// a plain single-part message.
func TestParseSimpleMessage(t *testing.T) {
	raw := strings.Join([]string{
		"From: ops@bank.com",
		"Subject: Payment notice",
		"Date: Mon, 02 Jan 2026 15:04:05 +0000",
		"",
		"Please remit USD 500.00 to the facility account.",
		"",
	}, "\r\n")

	msg, err := Parse([]byte(raw), FormatMIME)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// All five keys present, missing headers normalised to empty strings.
	if len(msg.Headers) != len(models.HeaderKeys) {
		t.Errorf("headers len = %d, want %d", len(msg.Headers), len(models.HeaderKeys))
	}
	for _, key := range models.HeaderKeys {
		if _, ok := msg.Headers[key]; !ok {
			t.Errorf("header %q missing from ParsedMessage", key)
		}
	}
	if msg.Headers[models.HeaderTo] != "" || msg.Headers[models.HeaderCC] != "" {
		t.Errorf("absent headers should be empty, got to=%q cc=%q",
			msg.Headers[models.HeaderTo], msg.Headers[models.HeaderCC])
	}
	if msg.Headers[models.HeaderSubject] != "Payment notice" {
		t.Errorf("subject = %q", msg.Headers[models.HeaderSubject])
	}
	if !strings.Contains(msg.Body, "USD 500.00") {
		t.Errorf("body = %q, want remittance line", msg.Body)
	}
	if len(msg.Attachments) != 0 {
		t.Errorf("attachments = %d, want 0", len(msg.Attachments))
	}
}

// TestParseMultipart verifies text/plain concatenation, attachment capture
// and transfer decoding.
func TestParseMultipart(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("name,amount\ndeal-a,100.00\n"))
	raw := strings.Join([]string{
		"From: ops@bank.com",
		"To: servicing@bank.com",
		"Cc: audit@bank.com",
		"Subject: Fee schedule",
		"Date: Mon, 02 Jan 2026 15:04:05 +0000",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=SPLIT",
		"",
		"--SPLIT",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"First part.",
		"--SPLIT",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Second part.",
		"--SPLIT",
		"Content-Type: text/csv",
		"Content-Disposition: attachment; filename=\"fees.csv\"",
		"Content-Transfer-Encoding: base64",
		"",
		payload,
		"--SPLIT--",
		"",
	}, "\r\n")

	msg, err := Parse([]byte(raw), FormatMIME)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(msg.Body, "First part.") || !strings.Contains(msg.Body, "Second part.") {
		t.Errorf("body should concatenate every text/plain part, got %q", msg.Body)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Filename != "fees.csv" {
		t.Errorf("filename = %q, want fees.csv", att.Filename)
	}
	if string(att.Payload) != "name,amount\ndeal-a,100.00\n" {
		t.Errorf("payload = %q, want decoded CSV", att.Payload)
	}
}

// TestParseQuotedPrintableBody verifies quoted-printable transfer decoding.
func TestParseQuotedPrintableBody(t *testing.T) {
	raw := strings.Join([]string{
		"From: ops@bank.com",
		"Subject: Notice",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"Amount =3D USD 250.00",
		"",
	}, "\r\n")

	msg, err := Parse([]byte(raw), FormatMIME)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg.Body, "Amount = USD 250.00") {
		t.Errorf("body = %q, want decoded quoted-printable", msg.Body)
	}
}

// TestParseSanitizesBody verifies signature noise is stripped on parse.
func TestParseSanitizesBody(t *testing.T) {
	raw := strings.Join([]string{
		"From: ops@bank.com",
		"Subject: Notice",
		"",
		"Wire details attached.",
		"--",
		"John Doe",
		"",
	}, "\r\n")

	msg, err := Parse([]byte(raw), FormatMIME)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Body != "Wire details attached." {
		t.Errorf("body = %q, want sanitized body", msg.Body)
	}
}

// TestParseMalformed verifies corrupt containers fail loudly rather than
// returning a partial message.
func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		format Format
	}{
		{"empty MIME", []byte(""), FormatMIME},
		{"not a compound document", []byte("plainly not CFB"), FormatCompound},
		{"multipart without boundary", []byte("Subject: x\r\nContent-Type: multipart/mixed\r\n\r\nbody"), FormatMIME},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(tt.raw, tt.format)
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if !errors.Is(err, ErrMalformedContainer) {
				t.Errorf("error = %v, want ErrMalformedContainer", err)
			}
			if msg != nil {
				t.Error("a failed parse must not return a partial message")
			}
		})
	}
}
