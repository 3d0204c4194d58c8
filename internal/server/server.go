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

// Package server exposes the triage pipeline over HTTP: container files are
// uploaded to /process and come back as triage results.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/ewfx/gaied-deep-learners/internal/classify"
	"github.com/ewfx/gaied-deep-learners/internal/models"
	"github.com/ewfx/gaied-deep-learners/internal/parser"
	"github.com/ewfx/gaied-deep-learners/internal/pipeline"
	"github.com/ewfx/gaied-deep-learners/internal/queue"
)

// Handler processes submission uploads.
type Handler struct {
	pipeline       *pipeline.Pipeline
	publisher      *queue.Publisher
	maxUploadBytes int64
}

// NewHandler creates an upload handler. publisher may be nil when results
// are not forwarded to a workflow queue.
func NewHandler(p *pipeline.Pipeline, publisher *queue.Publisher, maxUploadBytes int64) *Handler {
	return &Handler{
		pipeline:       p,
		publisher:      publisher,
		maxUploadBytes: maxUploadBytes,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeProcess handles POST /process: one container file per request, under
// the multipart field "file".
func (h *Handler) ServeProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("read upload: %v", err)})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("read upload: %v", err)})
		return
	}

	result, err := h.pipeline.Process(r.Context(), header.Filename, raw)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, parser.ErrMalformedContainer), errors.Is(err, parser.ErrNestingTooDeep):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, classify.ErrClassificationUnavailable):
			status = http.StatusBadGateway
		}
		slog.Error("submission failed",
			"filename", header.Filename,
			"status", status,
			"error", err,
		)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	h.forward(r.Context(), result)
	writeJSON(w, http.StatusOK, result)
}

// forward hands routed results to the workflow queue. Publish failures are
// logged, not surfaced: the caller already has the triage result.
func (h *Handler) forward(ctx context.Context, result *models.TriageResult) {
	if h.publisher == nil || result.IsDuplicate {
		return
	}
	if err := h.publisher.PublishResult(ctx, result); err != nil {
		slog.Error("publish triage result failed",
			"submission_id", result.SubmissionID,
			"error", err,
		)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}

// Serve starts the triage HTTP server on the given port. It binds the port
// immediately and signals readiness via the returned channel before starting
// to accept connections.
func Serve(ctx context.Context, port int, handler *Handler, health http.HandlerFunc) (<-chan struct{}, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/process", handler.ServeProcess)
	mux.HandleFunc("/health", health)

	server := &http.Server{
		Handler: mux,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("triage server shutting down")
		server.Close()
	}()

	go func() {
		slog.Info("triage server listening", "port", port)
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("triage server error", "error", err)
		}
	}()

	return ready, nil
}
