// Package calendar implements the Calendar Persistor (C8): idempotent
// writes of planned sessions and session-link bookkeeping, persisted by the
// Data tool server (spec.md §4.5, §3, §6).
package calendar

import "time"

// Intent is a MaterializedSession's immutable purpose.
type Intent string

const (
	IntentRest    Intent = "rest"
	IntentEasy    Intent = "easy"
	IntentLong    Intent = "long"
	IntentQuality Intent = "quality"
)

// WorkoutStep is one ordered step of a session's workout (spec.md §4.4 B6).
type WorkoutStep struct {
	StepIndex    int
	StepType     string
	Targets      map[string]any
	Instructions string
	Purpose      string
}

// MaterializedSession is a concrete planned session for one calendar day
// (spec.md §3). Exactly one of DurationSeconds/DistanceMeters is non-zero
// (the "one primary metric" invariant); callers construct via
// NewDistanceSession/NewDurationSession to keep that true by construction.
type MaterializedSession struct {
	ID              string
	UserID          string
	PlanID          string
	StartsAt        time.Time
	EndsAt          time.Time
	Sport           string
	SessionType     string
	Intent          Intent
	DurationSeconds int64
	DistanceMeters  float64
	DescriptionText string
	WorkoutSteps    []WorkoutStep
	Status          string
	Tags            []string
}

// NewDistanceSession builds a session whose primary metric is distance.
func NewDistanceSession(base MaterializedSession, distanceMeters float64) MaterializedSession {
	base.DistanceMeters = distanceMeters
	base.DurationSeconds = 0
	return base
}

// NewDurationSession builds a session whose primary metric is duration.
func NewDurationSession(base MaterializedSession, durationSeconds int64) MaterializedSession {
	base.DurationSeconds = durationSeconds
	base.DistanceMeters = 0
	return base
}

// HasSinglePrimaryMetric checks the B5→B6 invariant: exactly one of
// distance/duration is set.
func (m MaterializedSession) HasSinglePrimaryMetric() bool {
	hasDistance := m.DistanceMeters != 0
	hasDuration := m.DurationSeconds != 0
	return hasDistance != hasDuration
}

// LinkStatus is a SessionLink's state.
type LinkStatus string

const (
	LinkProposed  LinkStatus = "proposed"
	LinkConfirmed LinkStatus = "confirmed"
	LinkRejected  LinkStatus = "rejected"
)

// SessionLink is a unique pairing between a planned session and a completed
// activity (spec.md §3). At most one link exists per (planned_session_id,
// activity_id) — enforced by a unique index in Sqlite, not just convention.
type SessionLink struct {
	ID         string
	PlannedID  string
	ActivityID string
	Method     string
	Confidence float64
	Status     LinkStatus
	CreatedAt  time.Time
}

// DayModification is the input to ModifyDay: a replacement session for one
// existing day. Intent is copied from the existing session unless
// ExplicitIntentChange is set (spec.md §4.5 MODIFY rule, P4).
type DayModification struct {
	NewSport             string
	NewSessionType       string
	NewDurationSeconds   int64
	NewDistanceMeters    float64
	NewDescriptionText   string
	NewWorkoutSteps      []WorkoutStep
	ExplicitIntentChange bool
	NewIntent            Intent // consulted only if ExplicitIntentChange
}

// Conflict is emitted by InsertPlan when a planned session would overwrite
// an existing completed session on the same day (spec.md §4.4 B7).
type Conflict struct {
	StartsAt    time.Time
	SessionType string
	Reason      string
}
