package calendar

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var timeNow = time.Now

// StatusPlanned/StatusCompleted are the two statuses InsertPlan cares
// about; other statuses (e.g. cancelled) pass through untouched.
const (
	StatusPlanned   = "planned"
	StatusCompleted = "completed"
)

// Store is the DIP-style interface the Data tool server depends on.
type Store interface {
	InsertPlan(ctx context.Context, planID string, sessions []MaterializedSession) ([]Conflict, error)
	ModifyDay(ctx context.Context, sessionID string, mod DayModification) error
	Link(ctx context.Context, plannedID, activityID, method string, confidence float64) (SessionLink, error)
}

// Sqlite is the modernc.org/sqlite-backed Store, sharing the same
// open/pragma/migrate lifecycle as internal/conversation.Sqlite (both
// adapted from internal/memory/store.go's pattern).
type Sqlite struct {
	db *sql.DB
}

// Open creates (if needed) the data directory and database file and runs
// migrations.
func Open(dataDir string) (*Sqlite, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("calendar: create data dir: %w", err)
	}

	// Shared with internal/conversation so its HasPriorRacePlan can read
	// planned_sessions.
	dbPath := filepath.Join(dataDir, "conversation.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("calendar: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("calendar: pragma %q: %w", p, err)
		}
	}

	s := &Sqlite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("calendar: migration: %w", err)
	}
	return s, nil
}

func (s *Sqlite) Close() error { return s.db.Close() }

func (s *Sqlite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS planned_sessions (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			plan_id          TEXT NOT NULL,
			starts_at        TEXT NOT NULL,
			ends_at          TEXT NOT NULL,
			sport            TEXT NOT NULL,
			session_type     TEXT NOT NULL,
			intent           TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			distance_meters  REAL NOT NULL DEFAULT 0,
			description_text TEXT NOT NULL DEFAULT '',
			workout_steps    TEXT NOT NULL DEFAULT '[]',
			status           TEXT NOT NULL DEFAULT 'planned',
			tags             TEXT NOT NULL DEFAULT '[]'
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_planned_sessions_key
			ON planned_sessions(user_id, plan_id, starts_at, session_type);

		CREATE TABLE IF NOT EXISTS session_links (
			id              TEXT PRIMARY KEY,
			planned_id      TEXT NOT NULL,
			activity_id     TEXT NOT NULL,
			method          TEXT NOT NULL,
			confidence      REAL NOT NULL,
			status          TEXT NOT NULL DEFAULT 'proposed',
			created_at      TEXT NOT NULL,
			FOREIGN KEY (planned_id) REFERENCES planned_sessions(id)
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_session_links_pair
			ON session_links(planned_id, activity_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertPlan writes each session idempotently keyed on
// (user_id, starts_at, session_type, plan_id) (spec.md §4.4 B7): an
// existing row for that key is UPDATEd unless it is already
// StatusCompleted, in which case the write is skipped and a Conflict is
// reported. Re-running with an identical session set changes no rows,
// satisfying R1.
func (s *Sqlite) InsertPlan(ctx context.Context, planID string, sessions []MaterializedSession) ([]Conflict, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("calendar: begin tx: %w", err)
	}
	defer tx.Rollback()

	var conflicts []Conflict
	for _, sess := range sessions {
		if !sess.HasSinglePrimaryMetric() {
			return nil, fmt.Errorf("calendar: session at %s has zero or two primary metrics", sess.StartsAt)
		}

		var existingStatus string
		err := tx.QueryRowContext(ctx, `
			SELECT status FROM planned_sessions
			WHERE user_id = ? AND plan_id = ? AND starts_at = ? AND session_type = ?
		`, sess.UserID, planID, sess.StartsAt.UTC().Format(time.RFC3339), sess.SessionType).Scan(&existingStatus)

		switch {
		case err == sql.ErrNoRows:
			if err := insertSession(ctx, tx, planID, sess); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, fmt.Errorf("calendar: checking existing session: %w", err)
		case existingStatus == StatusCompleted:
			conflicts = append(conflicts, Conflict{
				StartsAt:    sess.StartsAt,
				SessionType: sess.SessionType,
				Reason:      "a completed session already occupies this day; planned session skipped",
			})
		default:
			if err := updateSession(ctx, tx, planID, sess); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("calendar: commit: %w", err)
	}
	return conflicts, nil
}

func insertSession(ctx context.Context, tx *sql.Tx, planID string, sess MaterializedSession) error {
	id := sess.ID
	if id == "" {
		id = uuid.NewString()
	}
	steps, err := json.Marshal(sess.WorkoutSteps)
	if err != nil {
		return fmt.Errorf("calendar: marshal workout steps: %w", err)
	}
	tags, err := json.Marshal(sess.Tags)
	if err != nil {
		return fmt.Errorf("calendar: marshal tags: %w", err)
	}
	status := sess.Status
	if status == "" {
		status = StatusPlanned
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO planned_sessions
			(id, user_id, plan_id, starts_at, ends_at, sport, session_type, intent,
			 duration_seconds, distance_meters, description_text, workout_steps, status, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, sess.UserID, planID, sess.StartsAt.UTC().Format(time.RFC3339), sess.EndsAt.UTC().Format(time.RFC3339),
		sess.Sport, sess.SessionType, string(sess.Intent), sess.DurationSeconds, sess.DistanceMeters,
		sess.DescriptionText, string(steps), status, string(tags))
	if err != nil {
		return fmt.Errorf("calendar: insert session: %w", err)
	}
	return nil
}

func updateSession(ctx context.Context, tx *sql.Tx, planID string, sess MaterializedSession) error {
	steps, err := json.Marshal(sess.WorkoutSteps)
	if err != nil {
		return fmt.Errorf("calendar: marshal workout steps: %w", err)
	}
	tags, err := json.Marshal(sess.Tags)
	if err != nil {
		return fmt.Errorf("calendar: marshal tags: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE planned_sessions
		SET ends_at = ?, sport = ?, intent = ?, duration_seconds = ?, distance_meters = ?,
		    description_text = ?, workout_steps = ?, tags = ?
		WHERE user_id = ? AND plan_id = ? AND starts_at = ? AND session_type = ?
	`, sess.EndsAt.UTC().Format(time.RFC3339), sess.Sport, string(sess.Intent), sess.DurationSeconds,
		sess.DistanceMeters, sess.DescriptionText, string(steps), string(tags),
		sess.UserID, planID, sess.StartsAt.UTC().Format(time.RFC3339), sess.SessionType)
	if err != nil {
		return fmt.Errorf("calendar: update session: %w", err)
	}
	return nil
}

// ModifyDay replaces sessionID's mutable fields, preserving Intent unless
// mod.ExplicitIntentChange is set (spec.md §4.5 MODIFY rule, P4).
func (s *Sqlite) ModifyDay(ctx context.Context, sessionID string, mod DayModification) error {
	steps, err := json.Marshal(mod.NewWorkoutSteps)
	if err != nil {
		return fmt.Errorf("calendar: marshal workout steps: %w", err)
	}

	if mod.ExplicitIntentChange {
		_, err = s.db.ExecContext(ctx, `
			UPDATE planned_sessions
			SET sport = ?, session_type = ?, intent = ?, duration_seconds = ?, distance_meters = ?,
			    description_text = ?, workout_steps = ?
			WHERE id = ?
		`, mod.NewSport, mod.NewSessionType, string(mod.NewIntent), mod.NewDurationSeconds,
			mod.NewDistanceMeters, mod.NewDescriptionText, string(steps), sessionID)
	} else {
		_, err = s.db.ExecContext(ctx, `
			UPDATE planned_sessions
			SET sport = ?, session_type = ?, duration_seconds = ?, distance_meters = ?,
			    description_text = ?, workout_steps = ?
			WHERE id = ?
		`, mod.NewSport, mod.NewSessionType, mod.NewDurationSeconds,
			mod.NewDistanceMeters, mod.NewDescriptionText, string(steps), sessionID)
	}
	if err != nil {
		return fmt.Errorf("calendar: modify day: %w", err)
	}
	return nil
}

// Link creates a SessionLink, relying on the unique index on
// (planned_id, activity_id) to enforce P7 (at most one link per pair).
func (s *Sqlite) Link(ctx context.Context, plannedID, activityID, method string, confidence float64) (SessionLink, error) {
	link := SessionLink{
		ID:         uuid.NewString(),
		PlannedID:  plannedID,
		ActivityID: activityID,
		Method:     method,
		Confidence: confidence,
		Status:     LinkProposed,
		CreatedAt:  timeNow().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_links (id, planned_id, activity_id, method, confidence, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, link.ID, link.PlannedID, link.ActivityID, link.Method, link.Confidence, string(link.Status),
		link.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return SessionLink{}, fmt.Errorf("calendar: insert link (may already exist): %w", err)
	}
	return link, nil
}
