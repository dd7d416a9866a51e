// Package session persists CLI chat history in SQLite between invocations of
// the host. It is not part of the core agent runtime's state (task board,
// team roster/inbox, and skills all live in their own plain-file stores) —
// chat history is owned by the host, grounded on the teacher's
// session_persistence_sqlite.go, simplified to the single wide
// {session_id, created_at, updated_at, messages_json} row shape the host
// actually needs rather than the teacher's multi-table
// session_entries/session_meta/session_facts split.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anuris/anuris/internal/model"
)

// Record is one persisted chat session.
type Record struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []model.Message
}

// Store is a SQLite-backed session history store.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the SQLite database at path, applying
// the session schema. The parent directory is created if missing.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session db directory %q: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply session schema: %w", err)
	}

	return &Store{db: db}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id            TEXT PRIMARY KEY,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL,
    messages_json TEXT NOT NULL DEFAULT '[]'
);
`

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the full message history for sessionID, stamping updated_at
// to now. created_at is set on first insert and left unchanged afterward.
func (s *Store) Save(sessionID string, messages []model.Message) error {
	blob, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal session messages: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, created_at, updated_at, messages_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			messages_json = excluded.messages_json`,
		sessionID, now, now, string(blob),
	)
	if err != nil {
		return fmt.Errorf("save session %q: %w", sessionID, err)
	}
	return nil
}

// Load returns the persisted record for sessionID, or (nil, nil) if no such
// session exists yet.
func (s *Store) Load(sessionID string) (*Record, error) {
	var (
		createdAt, updatedAt, blob string
	)
	err := s.db.QueryRow(
		`SELECT created_at, updated_at, messages_json FROM sessions WHERE id = ?`,
		sessionID,
	).Scan(&createdAt, &updatedAt, &blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", sessionID, err)
	}

	var messages []model.Message
	if err := json.Unmarshal([]byte(blob), &messages); err != nil {
		return nil, fmt.Errorf("session %q corrupt: %w", sessionID, err)
	}

	rec := &Record{ID: sessionID, Messages: messages}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return rec, nil
}

// List returns the id and updated_at of every persisted session, most
// recently updated first, for a "resume a previous session" picker.
func (s *Store) List() ([]Record, error) {
	rows, err := s.db.Query(`SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var createdAt, updatedAt string
		if err := rows.Scan(&rec.ID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a session's history entirely.
func (s *Store) Delete(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session %q: %w", sessionID, err)
	}
	return nil
}
