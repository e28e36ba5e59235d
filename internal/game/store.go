// internal/game/store.go
package game

import (
	"sync"
	"time"
)

// Store is the process-wide registry of live sessions, keyed by game id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore builds an empty registry.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for id, if present.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating it lazily on first use.
// The init callback runs exactly once for a newly created session, before it
// becomes visible, so broadcast wiring cannot race with traffic.
func (st *Store) GetOrCreate(id string, cfg Config, init func(*Session)) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := NewSession(id, cfg)
	if init != nil {
		init(s)
	}
	st.sessions[id] = s
	return s
}

// Delete removes a session from the registry.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// SweepEnded disposes of ENDED sessions idle past the retention window and
// returns how many were removed. Safe to run concurrently with live traffic.
func (st *Store) SweepEnded(retention time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	cutoff := time.Now().Add(-retention)
	for id, s := range st.sessions {
		if s.Phase() == PhaseEnded && s.LastActive().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
