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

// Package extract turns attachment payloads into plain text. Each format has
// a strategy with an ordered fallback chain; per-attachment failures degrade
// to an absent-text result and never abort the batch. Nested message
// containers re-enter the extractor up to the parser's depth bound.
package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gammazero/workerpool"

	"github.com/ewfx/gaied-deep-learners/internal/models"
	"github.com/ewfx/gaied-deep-learners/internal/parser"
)

// OCR recognises text in image bytes. Best effort: empty output is a valid
// result for a legible-text-free image.
type OCR interface {
	RecognizeImage(ctx context.Context, image []byte) (string, error)
}

// PDF exposes the two PDF primitives: direct text-layer extraction and
// page rasterization for the OCR fallback.
type PDF interface {
	PDFText(ctx context.Context, pdf []byte) ([]string, error)
	PDFPageImages(ctx context.Context, pdf []byte) ([][]byte, error)
}

// SheetReader parses the first sheet of a spreadsheet into rows.
type SheetReader interface {
	SheetRows(ctx context.Context, sheet []byte) ([][]string, error)
}

const (
	// DefaultWorkers bounds parallel extraction per message, capping
	// concurrent OCR and rasterization cost.
	DefaultWorkers = 4

	// DefaultSlowCallTimeout bounds a single OCR or rasterization call.
	// Timeout is an extraction failure for that one attachment.
	DefaultSlowCallTimeout = 2 * time.Minute

	// minPlausibleText is the shortest decoded result accepted from an
	// unknown-format attachment before it is declared binary.
	minPlausibleText = 10
)

// Config holds the extractor's collaborators and limits.
type Config struct {
	OCR             OCR
	PDF             PDF
	Sheets          SheetReader
	Workers         int
	SlowCallTimeout time.Duration
}

// Extractor produces plain text per attachment.
type Extractor struct {
	ocr     OCR
	pdf     PDF
	sheets  SheetReader
	workers int
	timeout time.Duration
}

// New creates an extractor with the given collaborators.
func New(cfg Config) *Extractor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.SlowCallTimeout <= 0 {
		cfg.SlowCallTimeout = DefaultSlowCallTimeout
	}
	return &Extractor{
		ocr:     cfg.OCR,
		pdf:     cfg.PDF,
		sheets:  cfg.Sheets,
		workers: cfg.Workers,
		timeout: cfg.SlowCallTimeout,
	}
}

// ExtractAll extracts every attachment, in parallel up to the worker bound.
// The result list mirrors the input order and length; failed items carry an
// absent-text marker instead of aborting siblings.
func (e *Extractor) ExtractAll(ctx context.Context, refs []models.AttachmentRef) []models.ExtractedAttachment {
	results := make([]models.ExtractedAttachment, len(refs))
	if len(refs) == 0 {
		return results
	}

	wp := workerpool.New(e.workers)
	for i := range refs {
		i := i
		wp.Submit(func() {
			results[i] = e.Extract(ctx, &refs[i])
		})
	}
	wp.StopWait()

	return results
}

// Extract runs the format strategy for one attachment. The payload buffer is
// released on every exit path, success or failure.
func (e *Extractor) Extract(ctx context.Context, ref *models.AttachmentRef) (result models.ExtractedAttachment) {
	result = models.ExtractedAttachment{
		Filename:    ref.Filename,
		ContentType: ref.ContentType,
		SizeBytes:   len(ref.Payload),
	}

	payload := ref.Payload
	defer ref.Release()

	// Corrupt inputs must not take down the batch.
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("attachment extraction panicked",
				"filename", ref.Filename,
				"panic", r,
			)
			result.Extracted = false
			result.Text = ""
			result.FailReason = fmt.Sprintf("extraction panic: %v", r)
		}
	}()

	text, err := e.extractDepth(ctx, ref.Filename, payload, 0)
	if err != nil {
		slog.Warn("attachment extraction failed",
			"filename", ref.Filename,
			"content_type", ref.ContentType,
			"error", err,
		)
		result.FailReason = err.Error()
		return result
	}

	result.Text = text
	result.Extracted = true
	return result
}

// extractDepth dispatches on the filename extension, case-insensitive.
func (e *Extractor) extractDepth(ctx context.Context, filename string, payload []byte, depth int) (string, error) {
	if depth > parser.MaxDepth {
		return "", fmt.Errorf("%w: attachment %s at depth %d", parser.ErrNestingTooDeep, filename, depth)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg":
		return e.recognize(ctx, payload)
	case ".pdf":
		return e.extractPDF(ctx, payload)
	case ".msg":
		return e.extractNestedMessage(ctx, payload, depth)
	case ".csv":
		return e.extractCSV(payload), nil
	case ".xls", ".xlsx":
		return e.extractSheet(ctx, payload), nil
	case ".eml", ".txt":
		return lossyUTF8(payload), nil
	default:
		return extractUnknown(filename, payload), nil
	}
}

// recognize runs OCR under the slow-call timeout.
func (e *Extractor) recognize(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.ocr.RecognizeImage(ctx, image)
}

// extractPDF prefers the exact text layer; a scanned PDF with an empty text
// layer falls back to rasterizing and OCRing each page, in page order.
func (e *Extractor) extractPDF(ctx context.Context, pdf []byte) (string, error) {
	pages, err := e.pdf.PDFText(ctx, pdf)
	if err != nil {
		return "", fmt.Errorf("pdf text layer: %w", err)
	}

	joined := strings.Join(pages, "\n")
	if strings.TrimSpace(joined) != "" {
		return joined, nil
	}

	rasterCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	images, err := e.pdf.PDFPageImages(rasterCtx, pdf)
	if err != nil {
		return "", fmt.Errorf("pdf ocr fallback: %w", err)
	}

	ocrPages := make([]string, 0, len(images))
	for i, img := range images {
		text, err := e.recognize(ctx, img)
		if err != nil {
			return "", fmt.Errorf("pdf ocr fallback: page %d: %w", i+1, err)
		}
		ocrPages = append(ocrPages, text)
	}
	return strings.Join(ocrPages, "\n"), nil
}

// extractNestedMessage renders a nested container as a formatted block:
// structured headers, body, then one labeled section per nested attachment.
// Nested attachment failures are omitted from the block, not fatal to the
// parent.
func (e *Extractor) extractNestedMessage(ctx context.Context, payload []byte, depth int) (string, error) {
	msg, err := parser.Parse(payload, parser.FormatCompound)
	if err != nil {
		return "", fmt.Errorf("nested message: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", msg.Headers[models.HeaderSubject])
	fmt.Fprintf(&b, "From: %s\n", msg.Headers[models.HeaderFrom])
	fmt.Fprintf(&b, "To: %s\n", msg.Headers[models.HeaderTo])
	fmt.Fprintf(&b, "CC: %s\n", msg.Headers[models.HeaderCC])
	fmt.Fprintf(&b, "Date: %s\n", msg.Headers[models.HeaderDate])
	b.WriteString("\n")
	b.WriteString(msg.Body)

	for i := range msg.Attachments {
		ref := &msg.Attachments[i]
		text, err := e.extractDepth(ctx, ref.Filename, ref.Payload, depth+1)
		ref.Release()
		if err != nil {
			slog.Warn("nested attachment extraction failed",
				"filename", ref.Filename,
				"depth", depth+1,
				"error", err,
			)
			continue
		}
		fmt.Fprintf(&b, "\n\nAttachment: %s\n%s", ref.Filename, text)
	}

	return b.String(), nil
}

// extractCSV renders delimited data as a flat text table, degrading to a raw
// read when the payload does not parse.
func (e *Extractor) extractCSV(payload []byte) string {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		return lossyUTF8(payload)
	}
	return renderRows(rows)
}

// extractSheet renders the first sheet as a flat text table, degrading to a
// raw read when the sheet reader rejects the payload.
func (e *Extractor) extractSheet(ctx context.Context, payload []byte) string {
	rows, err := e.sheets.SheetRows(ctx, payload)
	if err != nil || len(rows) == 0 {
		if err != nil {
			slog.Warn("sheet parse failed, degrading to raw read", "error", err)
		}
		return lossyUTF8(payload)
	}
	return renderRows(rows)
}

// extractUnknown attempts a UTF-8 read; implausibly short results and
// payloads containing NUL bytes come back as a binary-content sentinel.
func extractUnknown(filename string, payload []byte) string {
	if bytes.IndexByte(payload, 0) >= 0 {
		return fmt.Sprintf("[binary content: %s]", filename)
	}
	text := lossyUTF8(payload)
	if len(strings.TrimSpace(text)) < minPlausibleText {
		return fmt.Sprintf("[binary content: %s]", filename)
	}
	return text
}

// renderRows joins cells with pipes and rows with newlines.
func renderRows(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

// lossyUTF8 decodes bytes as UTF-8, substituting invalid sequences rather
// than failing.
func lossyUTF8(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}
	return strings.ToValidUTF8(string(payload), "�")
}
