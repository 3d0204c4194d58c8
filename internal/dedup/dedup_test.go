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
	"strings"
	"sync"
	"testing"
)

// TestFingerprintDeterministic verifies repeated calls with identical inputs
// produce the same digest.
func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("Payment notice", "ops@bank.com", "Mon, 02 Jan 2026 15:04:05 +0000", "Please remit USD 500.00")
	b := Fingerprint("Payment notice", "ops@bank.com", "Mon, 02 Jan 2026 15:04:05 +0000", "Please remit USD 500.00")
	if a != b {
		t.Errorf("fingerprint not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

// TestFingerprintSensitivity verifies any input component change changes the
// digest.
func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint("Subject", "a@b.com", "date", "body content here")

	variants := []struct {
		name                        string
		subject, sender, date, body string
	}{
		{"subject", "Other", "a@b.com", "date", "body content here"},
		{"sender", "Subject", "x@y.com", "date", "body content here"},
		{"date", "Subject", "a@b.com", "other date", "body content here"},
		{"body", "Subject", "a@b.com", "date", "different content here"},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got := Fingerprint(v.subject, v.sender, v.date, v.body)
			if got == base {
				t.Errorf("changing %s did not change fingerprint", v.name)
			}
		})
	}
}

// TestFingerprintCaseInsensitive verifies subject, sender and content are
// canonicalised to lowercase.
func TestFingerprintCaseInsensitive(t *testing.T) {
	a := Fingerprint("Payment Notice", "Ops@Bank.com", "date", "Remit USD 500.00")
	b := Fingerprint("payment notice", "ops@bank.com", "date", "remit usd 500.00")
	if a != b {
		t.Error("fingerprint should be case-insensitive for subject, sender and content")
	}
}

// TestKeyContentCutoff verifies signature and footer noise does not affect
// the fingerprint.
func TestKeyContentCutoff(t *testing.T) {
	clean := Fingerprint("S", "a@b.com", "d", "Wire USD 100.00 to account 1234")
	noisy := Fingerprint("S", "a@b.com", "d",
		"Wire USD 100.00 to account 1234\n\nRegards,\nSomeone Else\nGenerated on 2026-01-02 15:04")
	if clean != noisy {
		t.Error("salutation and footer lines should not affect the fingerprint")
	}

	other := Fingerprint("S", "a@b.com", "d", "Wire USD 999.99 to account 1234")
	if clean == other {
		t.Error("content difference before the cutoff must change the fingerprint")
	}
}

// TestKeyContentTokenCap verifies the 500-token cap on key content.
func TestKeyContentTokenCap(t *testing.T) {
	prefix := strings.Repeat("word ", 500)
	a := Fingerprint("S", "a@b.com", "d", prefix+"alpha")
	b := Fingerprint("S", "a@b.com", "d", prefix+"omega")
	if a != b {
		t.Error("content past the 500-token cap should not affect the fingerprint")
	}
}

// TestMemoryStore verifies first-accept-then-duplicate semantics.
func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	fp := Fingerprint("S", "a@b.com", "d", "body")

	isNew, err := store.CheckAndInsert(ctx, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNew {
		t.Error("first CheckAndInsert should report new")
	}

	isNew, err = store.CheckAndInsert(ctx, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isNew {
		t.Error("second CheckAndInsert should report duplicate")
	}

	seen, err := store.Contains(ctx, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Error("Contains should report the inserted fingerprint")
	}
}

// TestMemoryStoreConcurrent verifies exactly one of N concurrent identical
// submissions is accepted.
func TestMemoryStoreConcurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	fp := Fingerprint("S", "a@b.com", "d", "body")

	const n = 32
	var wg sync.WaitGroup
	accepted := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.CheckAndInsert(ctx, fp)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			accepted <- isNew
		}()
	}
	wg.Wait()
	close(accepted)

	count := 0
	for isNew := range accepted {
		if isNew {
			count++
		}
	}
	if count != 1 {
		t.Errorf("accepted %d concurrent identical submissions, want exactly 1", count)
	}
}

// TestAnalyzeThread verifies marker precedence and original-content capture.
func TestAnalyzeThread(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantThread   bool
		wantType     string
		wantOriginal string
	}{
		{
			name:       "plain message",
			body:       "Please process the attached payment.",
			wantThread: false,
		},
		{
			name:         "forwarded",
			body:         "FYI\n---------- Forwarded message ---------\nOriginal request text",
			wantThread:   true,
			wantType:     "forward",
			wantOriginal: "Original request text",
		},
		{
			name:         "outlook original message",
			body:         "See below\n-----Original Message-----\nThe first notice",
			wantThread:   true,
			wantType:     "forward",
			wantOriginal: "The first notice",
		},
		{
			name:         "reply",
			body:         "Agreed.\nOn Mon, Jan 2, 2026 at 3:04 PM Ops <ops@bank.com> wrote:\n> original",
			wantThread:   true,
			wantType:     "reply",
			wantOriginal: "> original",
		},
		{
			name:       "quoted",
			body:       "> previous line one\n> previous line two",
			wantThread: true,
			wantType:   "quote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := AnalyzeThread(tt.body)
			if info.IsThread != tt.wantThread {
				t.Fatalf("IsThread = %v, want %v", info.IsThread, tt.wantThread)
			}
			if !tt.wantThread {
				return
			}
			if info.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", info.Type, tt.wantType)
			}
			if tt.wantOriginal != "" && info.OriginalContent != tt.wantOriginal {
				t.Errorf("OriginalContent = %q, want %q", info.OriginalContent, tt.wantOriginal)
			}
			want := "part of thread: " + tt.wantType
			if info.Reason() != want {
				t.Errorf("Reason() = %q, want %q", info.Reason(), want)
			}
		})
	}
}
