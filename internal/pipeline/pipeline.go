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

// Package pipeline runs one submission end to end: parse, dedup and thread
// detection, attachment extraction, classification, field extraction and
// routing. Container parse failures and classifier failures are fatal to the
// submission; everything attachment- or field-local degrades.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ewfx/gaied-deep-learners/internal/classify"
	"github.com/ewfx/gaied-deep-learners/internal/dedup"
	"github.com/ewfx/gaied-deep-learners/internal/extract"
	"github.com/ewfx/gaied-deep-learners/internal/fields"
	"github.com/ewfx/gaied-deep-learners/internal/models"
	"github.com/ewfx/gaied-deep-learners/internal/parser"
	"github.com/ewfx/gaied-deep-learners/internal/routing"
)

// Classifier is the external classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, content string) (*models.MultiRequestResult, error)
}

// Pipeline processes submissions.
type Pipeline struct {
	store      dedup.Store
	extractor  *extract.Extractor
	classifier Classifier
	router     *routing.Router
}

// New wires a pipeline from its collaborators.
func New(store dedup.Store, extractor *extract.Extractor, classifier Classifier, router *routing.Router) *Pipeline {
	return &Pipeline{
		store:      store,
		extractor:  extractor,
		classifier: classifier,
		router:     router,
	}
}

// Process runs one submission. A nil error means a complete TriageResult:
// either a routed request or a duplicate-class result that short-circuited
// before classification.
func (p *Pipeline) Process(ctx context.Context, filename string, raw []byte) (*models.TriageResult, error) {
	msg, err := parser.Parse(raw, parser.DetectFormat(filename))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	result := &models.TriageResult{
		SubmissionID: uuid.New().String(),
		Message:      msg,
		Fingerprint: dedup.Fingerprint(
			msg.Headers[models.HeaderSubject],
			msg.Headers[models.HeaderFrom],
			msg.Headers[models.HeaderDate],
			msg.Body,
		),
	}

	// Thread members are duplicate-class even with a novel fingerprint, and
	// never enter the fingerprint history.
	if thread := dedup.AnalyzeThread(msg.Body); thread.IsThread {
		slog.Info("submission is part of a thread",
			"submission_id", result.SubmissionID,
			"thread_type", thread.Type,
		)
		result.IsDuplicate = true
		result.DuplicateOf = thread.Reason()
		releaseAll(msg.Attachments)
		return result, nil
	}

	accepted, err := p.store.CheckAndInsert(ctx, result.Fingerprint)
	if err != nil {
		// History store trouble should not drop live submissions.
		slog.Warn("dedup check failed, proceeding as new",
			"submission_id", result.SubmissionID,
			"error", err,
		)
		accepted = true
	}
	if !accepted {
		slog.Info("duplicate submission rejected",
			"submission_id", result.SubmissionID,
			"fingerprint", result.Fingerprint,
		)
		result.IsDuplicate = true
		result.DuplicateOf = "duplicate submission"
		releaseAll(msg.Attachments)
		return result, nil
	}

	result.Attachments = p.extractor.ExtractAll(ctx, msg.Attachments)

	content := classify.BuildContent(msg, result.Attachments)
	request, err := p.classifier.Classify(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("classify submission %s: %w", result.SubmissionID, err)
	}
	result.Request = request

	engine := fields.NewEngine(request.Primary.RequestType)
	extracted := engine.ExtractFromText(msg.Body)
	for _, att := range result.Attachments {
		if !att.Extracted {
			continue
		}
		extracted.Merge(engine.ExtractFromAttachment(att.Filename, att.Text))
	}
	result.Fields = extracted

	decision := p.router.Route(
		request.Primary.RequestType,
		request.Primary.ConfidenceScore,
		request.Primary.Priority,
	)
	result.Routing = &decision

	slog.Info("submission triaged",
		"submission_id", result.SubmissionID,
		"request_type", request.Primary.RequestType,
		"confidence", request.Primary.ConfidenceScore,
		"team", decision.Team,
		"auto_assign", decision.AutoAssign,
	)

	return result, nil
}

// releaseAll drops payloads for attachments that will not reach extraction.
func releaseAll(refs []models.AttachmentRef) {
	for i := range refs {
		refs[i].Release()
	}
}
