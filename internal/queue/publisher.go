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

// Package queue publishes triaged requests to Redis for the downstream
// workflow system that tracks assignment and resolution.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ewfx/gaied-deep-learners/internal/models"
)

// Publisher sends triage results to a Redis list queue.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a Redis publisher targeting the specified queue.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// taskEnvelope wraps a result for Redis transport. The workflow consumer
// keys retries and idempotency on the task ID.
type taskEnvelope struct {
	ID          string          `json:"id"`
	Task        string          `json:"task"`
	PublishedAt string          `json:"published_at"`
	Result      json.RawMessage `json:"result"`
}

// PublishResult serialises a triage result and pushes it to the workflow
// queue.
func (p *Publisher) PublishResult(ctx context.Context, result *models.TriageResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal triage result: %w", err)
	}

	taskID := uuid.New().String()
	envelope := taskEnvelope{
		ID:          taskID,
		Task:        "workflow.assign_request",
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
		Result:      resultJSON,
	}

	msgJSON, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal task envelope: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, string(msgJSON)).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("published triage result to queue",
		"task_id", taskID,
		"submission_id", result.SubmissionID,
		"queue", p.queueName,
	)

	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
