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

package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a durable fingerprint Store. INSERT ... ON CONFLICT DO
// NOTHING gives the atomic check-and-insert without an explicit lock.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a fingerprint store backed by the given Postgres
// pool. It ensures the fingerprints table exists on creation.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure fingerprint schema: %w", err)
	}
	slog.Info("fingerprint store initialised")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS fingerprints (
			fingerprint TEXT PRIMARY KEY,
			seen_at     TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

// CheckAndInsert implements Store. Returns true when the row was inserted,
// i.e. the fingerprint had not been seen before.
func (s *PostgresStore) CheckAndInsert(ctx context.Context, fingerprint string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO fingerprints (fingerprint)
		VALUES ($1)
		ON CONFLICT (fingerprint) DO NOTHING
	`, fingerprint)
	if err != nil {
		return false, fmt.Errorf("insert fingerprint: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Contains implements Store.
func (s *PostgresStore) Contains(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM fingerprints WHERE fingerprint = $1)
	`, fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query fingerprint: %w", err)
	}
	return exists, nil
}
