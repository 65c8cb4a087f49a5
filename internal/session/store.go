// Package session persists per-source authentication state. Each external
// source gets at most one State, valid for a fixed window; expired state is
// reported as absent so the adapter goes back through its login path.
package session

import (
	"context"
	"sync"
	"time"
)

// State is the authentication material for one source. Payload is an opaque
// credential/cookie blob owned by the adapter that produced it.
type State struct {
	Source    string    `json:"source"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the keyed persistence interface passed explicitly into adapters.
// Implementations must make per-source reads and writes atomic with respect
// to concurrent adapter runs.
type Store interface {
	// Get returns the stored state for source, or ok=false if none exists
	// or the stored state has outlived its validity window.
	Get(ctx context.Context, source string) (State, bool, error)
	Save(ctx context.Context, source string, st State) error
	Invalidate(ctx context.Context, source string) error
}

// MemoryStore is an in-process Store for tests and single-run CLI use.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &MemoryStore{
		states: make(map[string]State),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, source string) (State, bool, error) {
	if s == nil {
		return State{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[source]
	if !ok {
		return State{}, false, nil
	}
	if s.now().Sub(st.CreatedAt) > s.ttl {
		delete(s.states, source)
		return State{}, false, nil
	}
	return st, true, nil
}

func (s *MemoryStore) Save(ctx context.Context, source string, st State) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st.Source = source
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now()
	}
	s.states[source] = st
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, source string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, source)
	return nil
}
