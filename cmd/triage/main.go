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

// Offline Triage Command
//
// Standalone CLI tool that runs the triage pipeline over local container
// files without the classifier service: the request type is supplied on the
// command line. Intended for rule-table debugging and intake spot checks.
//
// Usage:
//
//	go run ./cmd/triage/ --type "Money Movement - Inbound" [--sidecar http://localhost:9090] file.eml [file2.msg ...]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ewfx/gaied-deep-learners/internal/dedup"
	"github.com/ewfx/gaied-deep-learners/internal/extract"
	"github.com/ewfx/gaied-deep-learners/internal/models"
	"github.com/ewfx/gaied-deep-learners/internal/pipeline"
	"github.com/ewfx/gaied-deep-learners/internal/routing"
	"github.com/ewfx/gaied-deep-learners/internal/textract"
)

// staticClassifier answers every submission with the operator-supplied
// request type at full confidence.
type staticClassifier struct {
	requestType string
}

func (c staticClassifier) Classify(_ context.Context, _ string) (*models.MultiRequestResult, error) {
	return &models.MultiRequestResult{
		Primary: models.Classification{
			RequestType:     c.requestType,
			ConfidenceScore: 1.0,
			Priority:        models.PriorityFor(c.requestType),
		},
	}, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	typeFlag := flag.String("type", "", "Request type to extract fields for (required)")
	sidecarFlag := flag.String("sidecar", "", "Extraction sidecar URL (optional; empty = OCR/PDF/sheet extraction degrades)")
	flag.Parse()

	if *typeFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: --type is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one container file is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	sidecarURL := *sidecarFlag
	if sidecarURL == "" {
		// An unreachable sidecar degrades per attachment instead of failing.
		sidecarURL = "http://localhost:0"
	}
	sidecar := textract.NewClient(&http.Client{Timeout: 2 * time.Minute}, sidecarURL)

	extractor := extract.New(extract.Config{
		OCR:    sidecar,
		PDF:    sidecar,
		Sheets: sidecar,
	})

	pipe := pipeline.New(
		dedup.NewMemoryStore(),
		extractor,
		staticClassifier{requestType: *typeFlag},
		routing.NewRouter(routing.DefaultTeams),
	)

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	exitCode := 0
	for _, path := range flag.Args() {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read %s: %v\n", path, err)
			exitCode = 1
			continue
		}

		result, err := pipe.Process(ctx, path, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: process %s: %v\n", path, err)
			exitCode = 1
			continue
		}

		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: encode result for %s: %v\n", path, err)
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}
