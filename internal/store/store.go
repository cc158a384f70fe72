// Package store owns all per-session conversation state. Every session is
// accessed only through this package; callers receive deep copies, never live
// references.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

var (
	// ErrNotFound is returned for operations on an unknown session ID.
	ErrNotFound = errors.New("session not found")
	// ErrBusy is returned when a turn cycle is already in flight for the
	// session. It is a rejection the caller should retry, not a failure.
	ErrBusy = errors.New("session busy")
)

// entry wraps one session with its serialization state. The mutex guards the
// session fields; the turnstile token serializes whole turn cycles without
// holding any lock across slow handler calls.
type entry struct {
	mu        sync.Mutex
	session   *domain.Session
	turnstile chan struct{}
}

// MemoryStore is the in-memory session store. Operations on a given session
// are linearizable; operations on different sessions never block each other.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry)}
}

func (s *MemoryStore) lookup(sessionID string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	return e, ok
}

// Get returns a copy of the session or ErrNotFound.
func (s *MemoryStore) Get(sessionID string) (*domain.Session, error) {
	e, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// GetOrCreate returns a copy of the session, creating it with empty history,
// the default language, and an empty draft if absent. The second return value
// reports whether the session was created by this call.
func (s *MemoryStore) GetOrCreate(sessionID string) (*domain.Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	if !ok {
		now := time.Now()
		e = &entry{
			session: &domain.Session{
				SessionID: sessionID,
				Language:  domain.DefaultLanguage,
				Turns:     []domain.Turn{},
				CreatedAt: now,
				UpdatedAt: now,
			},
			turnstile: make(chan struct{}, 1),
		}
		e.turnstile <- struct{}{}
		s.entries[sessionID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), !ok
}

// BeginTurn claims the session's turnstile for one turn cycle. It fails with
// ErrBusy when another cycle is in flight and ErrNotFound for an unknown
// session. The turnstile is a token, not a lock: the store stays fully
// available while the holder waits on a slow handler.
func (s *MemoryStore) BeginTurn(sessionID string) error {
	e, ok := s.lookup(sessionID)
	if !ok {
		return ErrNotFound
	}
	select {
	case <-e.turnstile:
		return nil
	default:
		return ErrBusy
	}
}

// EndTurn releases the turnstile claimed by BeginTurn.
func (s *MemoryStore) EndTurn(sessionID string) {
	e, ok := s.lookup(sessionID)
	if !ok {
		return
	}
	select {
	case e.turnstile <- struct{}{}:
	default:
		// Already released; tolerate double EndTurn.
	}
}

// Append adds a turn to the session history and bumps the turn counter.
// History is append-only: turns are never removed except by Reset.
func (s *MemoryStore) Append(sessionID string, turn domain.Turn) (*domain.Session, error) {
	e, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Turns = append(e.session.Turns, turn)
	e.session.TurnCount++
	e.session.UpdatedAt = time.Now()
	return e.session.Clone(), nil
}

// SetLanguage sets the session's active language. Called only at the turn
// boundary by the orchestrator's Updating step.
func (s *MemoryStore) SetLanguage(sessionID string, lang domain.Language) error {
	e, ok := s.lookup(sessionID)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Language = lang
	e.session.UpdatedAt = time.Now()
	return nil
}

// MergeDraft merges newly extracted facts into the session's trip draft.
func (s *MemoryStore) MergeDraft(sessionID string, fields domain.TripDraft) (*domain.Session, error) {
	e, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Draft.Merge(fields)
	e.session.UpdatedAt = time.Now()
	return e.session.Clone(), nil
}

// Reset clears the session's history and draft atomically, preserving the
// session ID and active language. It waits for any in-flight turn cycle to
// finish first, so a reset never interleaves with a turn. Resetting an
// already-empty session succeeds.
func (s *MemoryStore) Reset(sessionID string) (*domain.Session, error) {
	e, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrNotFound
	}

	// Claim the turnstile, blocking until the in-flight cycle completes.
	<-e.turnstile
	defer func() { e.turnstile <- struct{}{} }()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Turns = []domain.Turn{}
	e.session.Draft = domain.TripDraft{}
	e.session.TurnCount = 0
	e.session.UpdatedAt = time.Now()
	return e.session.Clone(), nil
}

// Evict removes a session entirely. Used by the idle janitor; the eviction
// policy itself lives outside the store.
func (s *MemoryStore) Evict(sessionID string) {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
}

// EvictIdle removes every session whose last activity is older than maxIdle
// and that has no turn in flight. Returns the number of evicted sessions.
func (s *MemoryStore) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.entries {
		e.mu.Lock()
		idle := e.session.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if !idle {
			continue
		}
		select {
		case <-e.turnstile:
			// Claimed; safe to drop.
			delete(s.entries, id)
			evicted++
		default:
			// Turn in flight, skip this round.
		}
	}
	return evicted
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
