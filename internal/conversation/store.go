package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeNow is a package-level var for testability, matching
// HendryAvila-Hoofy/internal/changes/time.go's pattern.
var timeNow = time.Now

// Store is the DIP-style interface the Data tool server depends on;
// Sqlite is its only implementation, but tool-server handlers are written
// against this interface so they can be tested against a fake.
type Store interface {
	AppendMessages(ctx context.Context, conversationID string, msgs []Message) error
	LoadContext(ctx context.Context, conversationID string, limit int) ([]Message, error)
	SaveProgress(ctx context.Context, conversationID string, progress Progress, expectedVersion int) (int, error)
	LoadProgress(ctx context.Context, conversationID string) (StoredProgress, error)
	EnsureConversation(ctx context.Context, conversationID, userID string) error
	HasPriorRacePlan(ctx context.Context, userID string) (bool, error)
}

// Sqlite is the modernc.org/sqlite-backed Store implementation, grounded on
// internal/memory/store.go's open/pragma/migrate lifecycle.
type Sqlite struct {
	db *sql.DB
}

// Open creates (if needed) the data directory and database file, applies
// the same pragma tuning as the teacher's memory store, and runs
// migrations.
func Open(dataDir string) (*Sqlite, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("conversation: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "conversation.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("conversation: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("conversation: pragma %q: %w", p, err)
		}
	}

	s := &Sqlite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("conversation: migration: %w", err)
	}
	return s, nil
}

func (s *Sqlite) Close() error { return s.db.Close() }

func (s *Sqlite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'active',
			summary    TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender          TEXT NOT NULL,
			content         TEXT NOT NULL,
			metadata        TEXT,
			created_at      TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);
		CREATE INDEX IF NOT EXISTS idx_messages_conv_created
			ON messages(conversation_id, created_at);

		CREATE TABLE IF NOT EXISTS conversation_progress (
			conversation_id TEXT PRIMARY KEY,
			progress        TEXT NOT NULL,
			version         INTEGER NOT NULL DEFAULT 0,
			updated_at      TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// EnsureConversation inserts a conversation row if one does not already
// exist for conversationID; a no-op otherwise.
func (s *Sqlite) EnsureConversation(ctx context.Context, conversationID, userID string) error {
	now := timeNow().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, conversationID, userID, now, now)
	if err != nil {
		return fmt.Errorf("conversation: ensure conversation: %w", err)
	}
	return nil
}

// createdAtLayout is a fixed-width RFC3339 layout (nanoseconds never
// trimmed), so that comparing created_at as text matches time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AppendMessages inserts msgs, assigning IDs if unset. Insert order becomes
// created_at order, keeping message ordering strictly increasing per
// spec.md §5.
func (s *Sqlite) AppendMessages(ctx context.Context, conversationID string, msgs []Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("conversation: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("conversation: prepare insert message: %w", err)
	}
	defer stmt.Close()

	now := timeNow().UTC()
	for i, msg := range msgs {
		id := msg.ID
		if id == "" {
			id = uuid.NewString()
		}
		meta, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("conversation: marshal message metadata: %w", err)
		}
		createdAt := now.Add(time.Duration(i) * time.Nanosecond)
		if _, err := stmt.ExecContext(ctx, id, conversationID, string(msg.Sender), msg.Content, string(meta), createdAt.Format(createdAtLayout)); err != nil {
			return fmt.Errorf("conversation: insert message: %w", err)
		}
	}

	return tx.Commit()
}

// LoadContext returns up to limit most-recent messages, oldest first.
func (s *Sqlite) LoadContext(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, content, metadata, created_at FROM (
			SELECT id, sender, content, metadata, created_at
			FROM messages
			WHERE conversation_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		) ORDER BY created_at ASC
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: load context: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var sender, createdAt string
		var meta sql.NullString
		if err := rows.Scan(&m.ID, &sender, &m.Content, &meta, &createdAt); err != nil {
			return nil, fmt.Errorf("conversation: scan message: %w", err)
		}
		m.Sender = Sender(sender)
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if meta.Valid && meta.String != "" {
			_ = json.Unmarshal([]byte(meta.String), &m.Metadata)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveProgress performs the optimistic-concurrency write: the row's
// current version must equal expectedVersion, or ErrVersionConflict is
// returned and nothing is written. Returns the new version on success.
func (s *Sqlite) SaveProgress(ctx context.Context, conversationID string, progress Progress, expectedVersion int) (int, error) {
	if err := progress.Validate(); err != nil {
		return 0, err
	}

	encoded, err := json.Marshal(progress)
	if err != nil {
		return 0, fmt.Errorf("conversation: marshal progress: %w", err)
	}
	now := timeNow().UTC().Format(time.RFC3339Nano)

	if expectedVersion == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO conversation_progress (conversation_id, progress, version, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(conversation_id) DO NOTHING
		`, conversationID, string(encoded), now)
		if err != nil {
			return 0, fmt.Errorf("conversation: insert progress: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return 0, ErrVersionConflict
		}
		return 1, nil
	}

	newVersion := expectedVersion + 1
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversation_progress
		SET progress = ?, version = ?, updated_at = ?
		WHERE conversation_id = ? AND version = ?
	`, string(encoded), newVersion, now, conversationID, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("conversation: update progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("conversation: rows affected: %w", err)
	}
	if affected == 0 {
		return 0, ErrVersionConflict
	}
	return newVersion, nil
}

// LoadProgress returns the current progress row, or a zero-value Progress
// at version 0 if none exists yet.
func (s *Sqlite) LoadProgress(ctx context.Context, conversationID string) (StoredProgress, error) {
	var encoded, updatedAt string
	var version int
	err := s.db.QueryRowContext(ctx, `
		SELECT progress, version, updated_at FROM conversation_progress WHERE conversation_id = ?
	`, conversationID).Scan(&encoded, &version, &updatedAt)
	if err == sql.ErrNoRows {
		return StoredProgress{Progress: NewProgress(), Version: 0}, nil
	}
	if err != nil {
		return StoredProgress{}, fmt.Errorf("conversation: load progress: %w", err)
	}

	var progress Progress
	if err := json.Unmarshal([]byte(encoded), &progress); err != nil {
		return StoredProgress{}, fmt.Errorf("conversation: unmarshal progress: %w", err)
	}
	updated, _ := time.Parse(time.RFC3339Nano, updatedAt)
	return StoredProgress{Progress: progress, Version: version, UpdatedAt: updated}, nil
}

// HasPriorRacePlan reports whether userID has any previously persisted
// planned session, used by CLASSIFY_TARGET's weekly_plan gating
// (spec.md §9 Open Question #3). It queries the calendar's table directly:
// calendar.Open opens the same conversation.db file under the data
// directory, so planned_sessions is visible here once the calendar store
// has migrated it.
func (s *Sqlite) HasPriorRacePlan(ctx context.Context, userID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM planned_sessions WHERE user_id = ?
	`, userID).Scan(&count)
	if err != nil {
		if isMissingTable(err) {
			return false, nil
		}
		return false, fmt.Errorf("conversation: checking prior race plan: %w", err)
	}
	return count > 0, nil
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
