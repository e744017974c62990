package history

import (
	"context"
	"slices"
	"sync"
	"time"
)

const memoryQuery = "n/a for memory-db"

// MemoryStore keeps history in process memory. It backs the `memory`
// database type and is the reference Store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	seq     int64
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Init(_ context.Context, force bool) error {
	if force {
		m.mu.Lock()
		m.entries = nil
		m.mu.Unlock()
	}

	return nil
}

func (m *MemoryStore) CommitHistory(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.entries), nil
}

func (m *MemoryStore) AppliedAlters(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Refs(m.entries), nil
}

func (m *MemoryStore) AppendCommit(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.entries = append(m.entries, Entry{Sequence: m.seq, Ref: ref, AppliedAt: m.now()})
	return nil
}

// RemoveCommit drops the first entry for ref. Unknown refs are ignored.
func (m *MemoryStore) RemoveCommit(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.entries, func(e Entry) bool { return e.Ref == ref })
	if idx >= 0 {
		m.entries = slices.Delete(m.entries, idx, idx+1)
	}

	return nil
}

func (m *MemoryStore) AppendCommitQuery(string) string { return memoryQuery }
func (m *MemoryStore) RemoveCommitQuery(string) string { return memoryQuery }

func (m *MemoryStore) Close() error { return nil }
