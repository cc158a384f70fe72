package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

// Archive is an optional write-behind SQLite transcript of conversations.
// The in-memory store remains the source of truth; the archive preserves the
// same invariants (append-only history, atomic reset) for anything that wants
// a durable record.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (or creates) the transcript database at dsn.
func OpenArchive(dsn string) (*Archive, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return a, nil
}

func (a *Archive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			turn_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			intent TEXT,
			is_error INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// RecordSession records a newly created session. Recording an existing
// session is a no-op.
func (a *Archive) RecordSession(ctx context.Context, s *domain.Session) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session_id, language, created_at) VALUES (?, ?, ?)`,
		s.SessionID, string(s.Language), s.CreatedAt)
	return err
}

// RecordTurn appends one turn to the session transcript.
func (a *Archive) RecordTurn(ctx context.Context, sessionID string, seq int, t domain.Turn) error {
	isError := 0
	if t.IsError {
		isError = 1
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO turns (turn_id, session_id, seq, role, content, intent, is_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TurnID, sessionID, seq, string(t.Role), t.Content, string(t.Intent), isError, t.CreatedAt)
	return err
}

// ResetSession deletes every archived turn for the session in one
// transaction, mirroring the store's atomic reset.
func (a *Archive) ResetSession(ctx context.Context, sessionID string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete turns: %w", err)
	}
	return tx.Commit()
}

// Turns returns the archived transcript for a session in sequence order.
func (a *Archive) Turns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT turn_id, role, content, intent, is_error, created_at
		 FROM turns WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		var role, intent string
		var isError int
		var createdAt time.Time
		if err := rows.Scan(&t.TurnID, &role, &t.Content, &intent, &isError, &createdAt); err != nil {
			return nil, err
		}
		t.Role = domain.Role(role)
		t.Intent = domain.Intent(intent)
		t.IsError = isError != 0
		t.CreatedAt = createdAt
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
