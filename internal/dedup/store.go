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
	"sync"
)

// Store is the fingerprint history behind duplicate detection. CheckAndInsert
// must be atomic with respect to concurrent submissions: two identical
// messages arriving at once must not both observe "new".
type Store interface {
	// CheckAndInsert records the fingerprint if absent. Returns true when the
	// fingerprint had NOT been seen before.
	CheckAndInsert(ctx context.Context, fingerprint string) (bool, error)

	// Contains reports membership without inserting.
	Contains(ctx context.Context, fingerprint string) (bool, error)
}

// MemoryStore is a process-local Store for tests and the offline CLI.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryStore creates an empty in-memory fingerprint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// CheckAndInsert implements Store.
func (m *MemoryStore) CheckAndInsert(_ context.Context, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[fingerprint]; ok {
		return false, nil
	}
	m.seen[fingerprint] = struct{}{}
	return true, nil
}

// Contains implements Store.
func (m *MemoryStore) Contains(_ context.Context, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[fingerprint]
	return ok, nil
}
