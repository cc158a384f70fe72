package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

func userTurn(content string) domain.Turn {
	return domain.Turn{
		TurnID:    "turn_test",
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestGetUnknownSession(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrCreateDefaults(t *testing.T) {
	s := NewMemoryStore()

	sess, created := s.GetOrCreate("s1")
	require.True(t, created)
	assert.Equal(t, "s1", sess.SessionID)
	assert.Equal(t, domain.DefaultLanguage, sess.Language)
	assert.Empty(t, sess.Turns)
	assert.Zero(t, sess.TurnCount)

	_, created = s.GetOrCreate("s1")
	assert.False(t, created)
}

func TestAppendIsAppendOnly(t *testing.T) {
	s := NewMemoryStore()
	s.GetOrCreate("s1")

	first, err := s.Append("s1", userTurn("one"))
	require.NoError(t, err)
	second, err := s.Append("s1", userTurn("two"))
	require.NoError(t, err)

	assert.Len(t, first.Turns, 1)
	assert.Len(t, second.Turns, 2)
	assert.Equal(t, "one", second.Turns[0].Content)
	assert.Equal(t, "two", second.Turns[1].Content)
	assert.Equal(t, 2, second.TurnCount)

	_, err = s.Append("missing", userTurn("x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClonesDoNotLeakState(t *testing.T) {
	s := NewMemoryStore()
	s.GetOrCreate("s1")
	s.Append("s1", userTurn("one"))

	sess, err := s.Get("s1")
	require.NoError(t, err)
	sess.Turns[0].Content = "mutated"
	sess.Draft.Destination = "Nowhere"

	fresh, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "one", fresh.Turns[0].Content)
	assert.Empty(t, fresh.Draft.Destination)
}

func TestTurnstileRejectsSecondClaim(t *testing.T) {
	s := NewMemoryStore()
	s.GetOrCreate("s1")

	require.NoError(t, s.BeginTurn("s1"))
	assert.ErrorIs(t, s.BeginTurn("s1"), ErrBusy)

	s.EndTurn("s1")
	assert.NoError(t, s.BeginTurn("s1"))
	s.EndTurn("s1")
	s.EndTurn("s1") // double release tolerated
}

func TestTurnstileIndependentPerSession(t *testing.T) {
	s := NewMemoryStore()
	s.GetOrCreate("s1")
	s.GetOrCreate("s2")

	require.NoError(t, s.BeginTurn("s1"))
	assert.NoError(t, s.BeginTurn("s2"), "sessions must never block each other")
	s.EndTurn("s1")
	s.EndTurn("s2")
}

func TestResetClearsHistoryAndDraftAtomically(t *testing.T) {
	s := NewMemoryStore()
	s.GetOrCreate("s1")
	s.Append("s1", userTurn("hello"))
	s.SetLanguage("s1", domain.LanguageArabic)
	s.MergeDraft("s1", domain.TripDraft{Destination: "Riyadh"})

	sess, err := s.Reset("s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Turns)
	assert.Zero(t, sess.TurnCount)
	assert.Empty(t, sess.Draft.Destination)
	assert.Equal(t, domain.LanguageArabic, sess.Language, "reset preserves language")
	assert.Equal(t, "s1", sess.SessionID, "reset preserves session ID")
}

func TestResetIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	s.GetOrCreate("s1")
	s.Append("s1", userTurn("hello"))

	first, err := s.Reset("s1")
	require.NoError(t, err)
	second, err := s.Reset("s1")
	require.NoError(t, err, "resetting an empty session must succeed")
	assert.Equal(t, first.Turns, second.Turns)
	assert.Equal(t, first.TurnCount, second.TurnCount)
}

func TestResetUnknownSession(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Reset("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetWaitsForInFlightTurn(t *testing.T) {
	s := NewMemoryStore()
	s.GetOrCreate("s1")
	require.NoError(t, s.BeginTurn("s1"))

	resetDone := make(chan struct{})
	go func() {
		s.Reset("s1")
		close(resetDone)
	}()

	select {
	case <-resetDone:
		t.Fatal("reset must not complete while a turn is in flight")
	case <-time.After(50 * time.Millisecond):
	}

	// Completing the turn lets the reset through.
	s.Append("s1", userTurn("in flight"))
	s.EndTurn("s1")

	select {
	case <-resetDone:
	case <-time.After(time.Second):
		t.Fatal("reset did not complete after the turn finished")
	}

	sess, err := s.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Turns, "the in-flight turn completed, then the reset cleared it")
}

func TestConcurrentSessionsDoNotInterleave(t *testing.T) {
	s := NewMemoryStore()
	const sessions = 8
	const turnsPer = 20

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			s.GetOrCreate(id)
			for j := 0; j < turnsPer; j++ {
				if err := s.BeginTurn(id); err != nil {
					if errors.Is(err, ErrBusy) {
						continue
					}
					t.Errorf("BeginTurn: %v", err)
					return
				}
				s.Append(id, userTurn("msg"))
				s.EndTurn(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, sessions, s.Count())
}

func TestEvictIdleSkipsInFlight(t *testing.T) {
	s := NewMemoryStore()
	s.GetOrCreate("idle")
	s.GetOrCreate("busy")
	require.NoError(t, s.BeginTurn("busy"))

	time.Sleep(20 * time.Millisecond)
	evicted := s.EvictIdle(10 * time.Millisecond)

	assert.Equal(t, 1, evicted)
	_, err := s.Get("idle")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("busy")
	assert.NoError(t, err, "a session with a turn in flight must survive eviction")
}
