// Package dedup detects repeated content by streaming fingerprint and
// applies the configured duplicate policy.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

// Policy decides what happens to repeated content.
type Policy string

const (
	PolicySkip    Policy = "skip"     // second and later occurrences discarded
	PolicyKeepAll Policy = "keep_all" // every occurrence kept, disambiguated
	PolicyKeepN   Policy = "keep_n"   // first N kept, rest discarded
)

// ValidPolicies lists every accepted duplicate policy.
var ValidPolicies = []Policy{PolicySkip, PolicyKeepAll, PolicyKeepN}

// Fingerprint computes the content hash of a stream without a second read.
func Fingerprint(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("fingerprint: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Tracker owns the fingerprint -> occurrence-count map for one run. All
// access is serialized; workers call Commit after each fully written file.
type Tracker struct {
	mu     sync.Mutex
	policy Policy
	keepN  int
	counts map[string]int
	store  *Store // optional cross-run persistence
}

// NewTracker creates a tracker for the given policy. keepN is only
// consulted under PolicyKeepN. store may be nil for run-scoped dedup.
func NewTracker(policy Policy, keepN int, store *Store) *Tracker {
	return &Tracker{
		policy: policy,
		keepN:  keepN,
		counts: make(map[string]int),
		store:  store,
	}
}

// Restore seeds occurrence counts from a session snapshot so a restored
// run does not re-save files already counted before the crash.
func (t *Tracker) Restore(counts map[string]int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for fp, n := range counts {
		if n > t.counts[fp] {
			t.counts[fp] = n
		}
	}
}

// Commit records one occurrence of fp and reports whether this occurrence
// should be kept under the active policy. The returned ordinal is the
// 1-based occurrence number.
func (t *Tracker) Commit(fp string) (keep bool, ordinal int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[fp]++
	ordinal = t.counts[fp]

	if t.store != nil {
		if err := t.store.Record(fp, t.counts[fp]); err != nil {
			// Persistence failure degrades to run-scoped dedup only.
			return t.decide(ordinal), ordinal, err
		}
	}
	return t.decide(ordinal), ordinal, nil
}

func (t *Tracker) decide(ordinal int) bool {
	switch t.policy {
	case PolicyKeepAll:
		return true
	case PolicyKeepN:
		return ordinal <= t.keepN
	default:
		return ordinal == 1
	}
}

// Close releases the cross-run store, if any.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.store == nil {
		return nil
	}
	err := t.store.Close()
	t.store = nil
	return err
}

// Counts returns a copy of the occurrence map for session snapshots.
func (t *Tracker) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for fp, n := range t.counts {
		out[fp] = n
	}
	return out
}
