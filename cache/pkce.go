package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Take when the state is unknown, already
// consumed or stale.
var ErrNotFound = errors.New("pkce state not found")

// ChallengeStore holds the code verifier of each pending authorization
// attempt, keyed by its state parameter.
type ChallengeStore interface {
	Put(ctx context.Context, state, verifier string) error
	// Take returns the verifier and removes the entry. Of several
	// concurrent calls for one state only the first succeeds.
	Take(ctx context.Context, state string) (string, error)
	Close() error
}

type pendingAttempt struct {
	verifier  string
	createdAt time.Time
}

// MemoryStore is a process-local ChallengeStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]pendingAttempt
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore. Entries older than ttl are treated as
// missing; a zero ttl keeps entries until taken.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]pendingAttempt),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, state, verifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	m.entries[state] = pendingAttempt{verifier: verifier, createdAt: m.now()}
	return nil
}

func (m *MemoryStore) Take(_ context.Context, state string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[state]
	if !ok {
		return "", ErrNotFound
	}
	delete(m.entries, state)

	if m.stale(entry) {
		return "", ErrNotFound
	}
	return entry.verifier, nil
}

// Len returns the number of pending attempts, stale ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }

// SetNow overrides the time function (for testing).
func (m *MemoryStore) SetNow(fn func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = fn
}

// sweep drops stale entries. Callers must hold mu.
func (m *MemoryStore) sweep() {
	if m.ttl <= 0 {
		return
	}
	for state, entry := range m.entries {
		if m.stale(entry) {
			delete(m.entries, state)
		}
	}
}

func (m *MemoryStore) stale(entry pendingAttempt) bool {
	return m.ttl > 0 && m.now().Sub(entry.createdAt) > m.ttl
}
