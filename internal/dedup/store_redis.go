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
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a fingerprint stays in the history. Resubmission
	// of the same request after this window is treated as a new event.
	DefaultTTL = 30 * 24 * time.Hour

	// keyPrefix namespaces fingerprint keys in Redis.
	keyPrefix = "triage:fp:"
)

// RedisStore is a fingerprint Store backed by Redis. SETNX gives the atomic
// check-and-insert the duplicate contract requires.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a fingerprint store backed by Redis.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: DefaultTTL,
	}
}

// CheckAndInsert implements Store.
// SET NX = set only if key does not exist. Returns true if the key was set.
func (s *RedisStore) CheckAndInsert(ctx context.Context, fingerprint string) (bool, error) {
	key := fmt.Sprintf("%s%s", keyPrefix, fingerprint)

	set, err := s.rdb.SetNX(ctx, key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}

	return set, nil
}

// Contains implements Store.
func (s *RedisStore) Contains(ctx context.Context, fingerprint string) (bool, error) {
	key := fmt.Sprintf("%s%s", keyPrefix, fingerprint)

	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup EXISTS: %w", err)
	}

	return n > 0, nil
}
