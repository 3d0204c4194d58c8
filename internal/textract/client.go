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

// Package textract is the HTTP client for the document-extraction sidecar,
// which wraps the OCR, PDF and spreadsheet primitives (Tesseract, Poppler,
// sheet readers) behind a small JSON API. The triage core treats these
// primitives as black boxes; corrupt-input failures surface as errors for
// the extractor to degrade on.
package textract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to the extraction sidecar.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a sidecar client. The http.Client carries the caller's
// timeout policy; per-call deadlines come from the context.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type extractRequest struct {
	// Content is the base64-encoded document payload.
	Content string `json:"content"`
}

type textResponse struct {
	Text string `json:"text"`
}

type pagesResponse struct {
	// Pages holds per-page content in page order: text for /pdf/text,
	// base64 PNG bytes for /pdf/pages.
	Pages []string `json:"pages"`
}

type rowsResponse struct {
	Rows [][]string `json:"rows"`
}

// RecognizeImage runs OCR over image bytes. Best effort: the result may be
// empty for a well-formed image with no legible text.
func (c *Client) RecognizeImage(ctx context.Context, image []byte) (string, error) {
	var out textResponse
	if err := c.post(ctx, "/v1/ocr", image, &out); err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return out.Text, nil
}

// PDFText extracts the text layer of each page, in page order. Pages without
// a text layer come back empty.
func (c *Client) PDFText(ctx context.Context, pdf []byte) ([]string, error) {
	var out pagesResponse
	if err := c.post(ctx, "/v1/pdf/text", pdf, &out); err != nil {
		return nil, fmt.Errorf("pdf text layer: %w", err)
	}
	return out.Pages, nil
}

// PDFPageImages rasterizes each page to PNG bytes, in page order.
func (c *Client) PDFPageImages(ctx context.Context, pdf []byte) ([][]byte, error) {
	var out pagesResponse
	if err := c.post(ctx, "/v1/pdf/pages", pdf, &out); err != nil {
		return nil, fmt.Errorf("pdf rasterize: %w", err)
	}
	images := make([][]byte, 0, len(out.Pages))
	for i, p := range out.Pages {
		img, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("pdf rasterize: decode page %d: %w", i+1, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// SheetRows parses the first sheet of a spreadsheet into rows of cells.
func (c *Client) SheetRows(ctx context.Context, sheet []byte) ([][]string, error) {
	var out rowsResponse
	if err := c.post(ctx, "/v1/sheet/rows", sheet, &out); err != nil {
		return nil, fmt.Errorf("sheet rows: %w", err)
	}
	return out.Rows, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte, out any) error {
	body, err := json.Marshal(extractRequest{Content: base64.StdEncoding.EncodeToString(payload)})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call sidecar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("sidecar returned HTTP %d: %s", resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Ping checks the sidecar's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar unhealthy: HTTP %d", resp.StatusCode)
	}
	return nil
}
