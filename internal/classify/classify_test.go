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

package classify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ewfx/gaied-deep-learners/internal/models"
)

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/classify" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"primary_request": {
				"request_type": {"type": "Adjustment", "confidence_score": 0.92},
				"sub_request_type": "Reallocation",
				"extracted_fields": {"amount": "1250.00", "codes": ["A1", "B2"], "memo": null}
			},
			"secondary_requests": [
				{"request_type": {"type": "Fee Payment", "confidence_score": 0.55}}
			],
			"is_thread": false
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	got, err := c.Classify(context.Background(), "content")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if got.Primary.RequestType != "Adjustment" {
		t.Errorf("primary type = %q", got.Primary.RequestType)
	}
	if got.Primary.ConfidenceScore != 0.92 {
		t.Errorf("confidence = %v", got.Primary.ConfidenceScore)
	}
	if got.Primary.SubRequestType != "Reallocation" {
		t.Errorf("sub type = %q", got.Primary.SubRequestType)
	}
	if got.Primary.Priority != models.PriorityFor("Adjustment") {
		t.Errorf("priority = %v", got.Primary.Priority)
	}
	if got.Primary.ExtractedFields["amount"] != "1250.00" {
		t.Errorf("amount = %q", got.Primary.ExtractedFields["amount"])
	}
	if got.Primary.ExtractedFields["codes"] != "A1, B2" {
		t.Errorf("codes = %q, want comma-joined list", got.Primary.ExtractedFields["codes"])
	}
	if got.Primary.ExtractedFields["memo"] != "N/A" {
		t.Errorf("memo = %q, want null rendered as N/A", got.Primary.ExtractedFields["memo"])
	}
	if len(got.Secondary) != 1 || got.Secondary[0].RequestType != "Fee Payment" {
		t.Errorf("secondary = %+v", got.Secondary)
	}
}

func TestClassifyRejectsInvalidResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing primary_request",
			body: `{"secondary_requests": []}`,
		},
		{
			name: "missing type",
			body: `{"primary_request": {"request_type": {"confidence_score": 0.9}}}`,
		},
		{
			name: "missing confidence",
			body: `{"primary_request": {"request_type": {"type": "Adjustment"}}}`,
		},
		{
			name: "confidence out of range",
			body: `{"primary_request": {"request_type": {"type": "Adjustment", "confidence_score": 1.5}}}`,
		},
		{
			name: "invalid secondary",
			body: `{"primary_request": {"request_type": {"type": "Adjustment", "confidence_score": 0.9}},
				"secondary_requests": [{"request_type": {"type": ""}}]}`,
		},
		{
			name: "not json",
			body: `<html>oops</html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.Client(), srv.URL).Classify(context.Background(), "content")
			if !errors.Is(err, ErrClassificationUnavailable) {
				t.Errorf("err = %v, want ErrClassificationUnavailable", err)
			}
		})
	}
}

func TestClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client(), srv.URL).Classify(context.Background(), "content")
	if !errors.Is(err, ErrClassificationUnavailable) {
		t.Fatalf("err = %v, want ErrClassificationUnavailable", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("err = %v, should carry the status code", err)
	}
}

func TestClassifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := NewClient(http.DefaultClient, srv.URL).Classify(context.Background(), "content")
	if !errors.Is(err, ErrClassificationUnavailable) {
		t.Errorf("err = %v, want ErrClassificationUnavailable", err)
	}
}

func TestBuildContent(t *testing.T) {
	msg := models.NewParsedMessage()
	msg.Headers[models.HeaderFrom] = "ops@lender.example"
	msg.Headers[models.HeaderSubject] = "Fee notice"
	msg.Body = "Please process the ongoing fee."

	content := BuildContent(msg, []models.ExtractedAttachment{
		{Filename: "fees.pdf", Text: "Total due: $500.00", Extracted: true},
		{Filename: "broken.xls", FailReason: "corrupt workbook", Extracted: false},
	})

	for _, want := range []string{
		"EMAIL HEADERS:",
		"From: ops@lender.example",
		"Subject: Fee notice",
		"BODY:\nPlease process the ongoing fee.",
		"ATTACHMENTS:",
		"fees.pdf:\nTotal due: $500.00",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "broken.xls") {
		t.Error("unextracted attachments must not contribute to content")
	}
}
