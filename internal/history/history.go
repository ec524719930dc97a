// Package history persists the most recent completed pipeline runs.
//
// Every implementation enforces the same invariants: at most MaxEntries
// entries, at most one entry per subject name (case-insensitive),
// most-recent-first ordering. Saving a run for a subject already present
// replaces that subject's entry and moves it to the front.
package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khartman/memoflow/internal/types"
)

// MaxEntries caps the number of stored runs.
const MaxEntries = 5

// Entry is one completed run: the subject, when it finished, and the full
// ordered artifact list of that run.
type Entry struct {
	ID          uuid.UUID        `json:"id"`
	Subject     string           `json:"subject"`
	CompletedAt time.Time        `json:"completed_at"`
	Artifacts   []types.Artifact `json:"artifacts"`
}

// NewEntry builds an Entry for a completed run.
func NewEntry(subject string, artifacts []types.Artifact) Entry {
	return Entry{
		ID:          uuid.New(),
		Subject:     subject,
		CompletedAt: time.Now().UTC(),
		Artifacts:   artifacts,
	}
}

// Store is the persistence contract consumed by the orchestrator. Load
// returns entries most-recent-first; Save applies the dedupe-and-cap
// invariants.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entry Entry) error
}

// insert applies the store invariants to an in-memory entry list: drop any
// prior entry for the same subject (case-insensitive), prepend, trim to
// MaxEntries.
func insert(entries []Entry, entry Entry) []Entry {
	kept := make([]Entry, 0, len(entries)+1)
	kept = append(kept, entry)
	for _, e := range entries {
		if strings.EqualFold(e.Subject, entry.Subject) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > MaxEntries {
		kept = kept[:MaxEntries]
	}
	return kept
}

// MemoryStore keeps history in process memory. It is the default store for
// one-shot CLI runs and the test double elsewhere.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored entries, most recent first.
func (s *MemoryStore) Load(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Save inserts an entry, replacing any prior entry for the same subject.
func (s *MemoryStore) Save(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = insert(s.entries, entry)
	return nil
}
