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

// Package classify is the client for the external classification service.
// The service takes the assembled plain-text representation of a submission
// and returns a typed multi-request classification. Responses are loosely
// shaped on the wire; they are validated into strict structures here at the
// boundary, and anything missing required keys is rejected.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ewfx/gaied-deep-learners/internal/models"
)

// ErrClassificationUnavailable marks a classifier failure. Fatal to the
// submission: field extraction needs a request type.
var ErrClassificationUnavailable = errors.New("classification unavailable")

// Client calls the classification service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a classifier client. Authentication travels in the
// http.Client (OAuth2 client-credentials transport wired in main).
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// BuildContent assembles the full-text representation of a submission:
// headers, sanitized body and every extracted attachment text, labeled.
func BuildContent(msg *models.ParsedMessage, attachments []models.ExtractedAttachment) string {
	var b strings.Builder
	b.WriteString("EMAIL HEADERS:\n")
	fmt.Fprintf(&b, "From: %s\n", msg.Headers[models.HeaderFrom])
	fmt.Fprintf(&b, "To: %s\n", msg.Headers[models.HeaderTo])
	fmt.Fprintf(&b, "CC: %s\n", msg.Headers[models.HeaderCC])
	fmt.Fprintf(&b, "Subject: %s\n", msg.Headers[models.HeaderSubject])
	fmt.Fprintf(&b, "Date: %s\n", msg.Headers[models.HeaderDate])
	b.WriteString("\nBODY:\n")
	b.WriteString(msg.Body)
	b.WriteString("\n\nATTACHMENTS:\n")
	for _, att := range attachments {
		if !att.Extracted {
			continue
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", att.Filename, att.Text)
	}
	return b.String()
}

type classifyRequest struct {
	Content string `json:"content"`
}

// wireClassification mirrors the service's loosely nested response shape.
type wireClassification struct {
	RequestType struct {
		Type            string   `json:"type"`
		ConfidenceScore *float64 `json:"confidence_score"`
	} `json:"request_type"`
	SubRequestType  string         `json:"sub_request_type"`
	ExtractedFields map[string]any `json:"extracted_fields"`
	IsDuplicate     bool           `json:"is_duplicate"`
	DuplicateReason string         `json:"duplicate_reason"`
}

type wireResponse struct {
	PrimaryRequest    *wireClassification  `json:"primary_request"`
	SecondaryRequests []wireClassification `json:"secondary_requests"`
	IsThread          bool                 `json:"is_thread"`
	ThreadRelations   map[string]string    `json:"thread_relations"`
}

// Classify sends the assembled content and returns the validated result.
func (c *Client) Classify(ctx context.Context, content string) (*models.MultiRequestResult, error) {
	body, err := json.Marshal(classifyRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w: classifier returned HTTP %d: %s", ErrClassificationUnavailable, resp.StatusCode, snippet)
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrClassificationUnavailable, err)
	}

	return validate(&wire)
}

// validate converts the wire shape into the strict result, rejecting
// responses missing required keys rather than propagating partial data.
func validate(wire *wireResponse) (*models.MultiRequestResult, error) {
	if wire.PrimaryRequest == nil {
		return nil, fmt.Errorf("%w: response missing primary_request", ErrClassificationUnavailable)
	}

	primary, err := validateOne(wire.PrimaryRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: primary request: %v", ErrClassificationUnavailable, err)
	}

	result := &models.MultiRequestResult{
		Primary:         *primary,
		IsThread:        wire.IsThread,
		ThreadRelations: wire.ThreadRelations,
	}

	for i := range wire.SecondaryRequests {
		secondary, err := validateOne(&wire.SecondaryRequests[i])
		if err != nil {
			return nil, fmt.Errorf("%w: secondary request %d: %v", ErrClassificationUnavailable, i, err)
		}
		result.Secondary = append(result.Secondary, *secondary)
	}

	return result, nil
}

func validateOne(wire *wireClassification) (*models.Classification, error) {
	if wire.RequestType.Type == "" {
		return nil, errors.New("missing request_type.type")
	}
	if wire.RequestType.ConfidenceScore == nil {
		return nil, errors.New("missing request_type.confidence_score")
	}
	score := *wire.RequestType.ConfidenceScore
	if score < 0 || score > 1 {
		return nil, fmt.Errorf("confidence_score %v out of range", score)
	}

	return &models.Classification{
		RequestType:     wire.RequestType.Type,
		SubRequestType:  wire.SubRequestType,
		ConfidenceScore: score,
		ExtractedFields: flattenFields(wire.ExtractedFields),
		Priority:        models.PriorityFor(wire.RequestType.Type),
		IsDuplicate:     wire.IsDuplicate,
		DuplicateReason: wire.DuplicateReason,
	}, nil
}

// flattenFields renders the service's loosely typed field guesses as strings.
// Lists join with commas; nulls become "N/A".
func flattenFields(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = "N/A"
		case string:
			out[k] = val
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[k] = strings.Join(parts, ", ")
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
