package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	a, err := OpenArchive(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveRecordsTurnsInOrder(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	sess := &domain.Session{SessionID: "s1", Language: domain.LanguageEnglish, CreatedAt: time.Now()}
	require.NoError(t, a.RecordSession(ctx, sess))
	require.NoError(t, a.RecordSession(ctx, sess), "re-recording a session is a no-op")

	turns := []domain.Turn{
		{TurnID: "t1", Role: domain.RoleUser, Content: "hello", CreatedAt: time.Now()},
		{TurnID: "t2", Role: domain.RoleAssistant, Content: "hi there", Intent: domain.IntentContinue, CreatedAt: time.Now()},
		{TurnID: "t3", Role: domain.RoleAssistant, Content: "oops", Intent: domain.IntentFlight, IsError: true, CreatedAt: time.Now()},
	}
	for i, turn := range turns {
		require.NoError(t, a.RecordTurn(ctx, "s1", i+1, turn))
	}

	got, err := a.Turns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "t1", got[0].TurnID)
	assert.Equal(t, domain.RoleUser, got[0].Role)
	assert.Equal(t, domain.IntentFlight, got[2].Intent)
	assert.True(t, got[2].IsError)
}

func TestArchiveResetDeletesAllTurns(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	sess := &domain.Session{SessionID: "s1", Language: domain.LanguageEnglish, CreatedAt: time.Now()}
	require.NoError(t, a.RecordSession(ctx, sess))
	require.NoError(t, a.RecordTurn(ctx, "s1", 1,
		domain.Turn{TurnID: "t1", Role: domain.RoleUser, Content: "hello", CreatedAt: time.Now()}))

	require.NoError(t, a.ResetSession(ctx, "s1"))
	got, err := a.Turns(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Append after reset starts a fresh transcript.
	require.NoError(t, a.RecordTurn(ctx, "s1", 1,
		domain.Turn{TurnID: "t2", Role: domain.RoleUser, Content: "again", CreatedAt: time.Now()}))
	got, err = a.Turns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t2", got[0].TurnID)
}
