package session

import (
	"sync"

	"github.com/sandevgo/hashia/internal/core"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string][]core.Turn
	maxTurns int
	locks    *KeyedMutex
}

func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = core.MaxTurns
	}
	return &Store{
		sessions: make(map[string][]core.Turn),
		maxTurns: maxTurns,
		locks:    NewKeyedMutex(),
	}
}

// Get returns a copy of the user's session, or an empty one.
func (s *Store) Get(userID string) core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return core.Session{
		UserID: userID,
		Turns:  copyTurns(s.sessions[userID]),
	}
}

// Append adds turns at the end of the session and trims it from the front
// down to the bound.
func (s *Store) Append(userID string, turns ...core.Turn) {
	if len(turns) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.sessions[userID]
	for _, t := range turns {
		if n := len(history); n > 0 && t.Timestamp.Before(history[n-1].Timestamp) {
			t.Timestamp = history[n-1].Timestamp
		}
		t.Parts = copyParts(t.Parts)
		history = append(history, t)
	}

	if len(history) > s.maxTurns {
		// Reallocate so the evicted prefix is released.
		trimmed := make([]core.Turn, s.maxTurns)
		copy(trimmed, history[len(history)-s.maxTurns:])
		history = trimmed
	}

	s.sessions[userID] = history
}

// Clear removes the session entirely.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *Store) Has(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[userID]
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Snapshot deep-copies every session.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(core.Snapshot, len(s.sessions))
	for userID, turns := range s.sessions {
		snap[userID] = copyTurns(turns)
	}
	return snap
}

// Lock serializes event processing for one user. The returned func releases it.
func (s *Store) Lock(userID string) func() {
	return s.locks.Lock(userID)
}

func copyTurns(turns []core.Turn) []core.Turn {
	if len(turns) == 0 {
		return []core.Turn{}
	}
	out := make([]core.Turn, len(turns))
	for i, t := range turns {
		t.Parts = copyParts(t.Parts)
		out[i] = t
	}
	return out
}

func copyParts(parts []core.Part) []core.Part {
	out := make([]core.Part, len(parts))
	for i, p := range parts {
		if p.Image != nil {
			img := *p.Image
			p.Image = &img
		}
		out[i] = p
	}
	return out
}
