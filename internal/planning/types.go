// Package planning implements the seven-stage deterministic Planning
// Pipeline (C7, spec.md §4.4). Each stage is a pure function of its inputs
// plus the retrieval corpus; stage failures abort the pipeline with the
// first-violating guard (spec.md §4.4 "No stage retries, no repair loop").
package planning

import (
	"time"

	"github.com/virtus-coach/coach/internal/calendar"
)

// Phase is a macro-plan week's training phase.
type Phase string

const (
	PhaseBase  Phase = "base"
	PhaseBuild Phase = "build"
	PhasePeak  Phase = "peak"
	PhaseTaper Phase = "taper"
)

// phaseOrder ranks phases for the B2→B3 monotonic-transition guard.
var phaseOrder = map[Phase]int{PhaseBase: 0, PhaseBuild: 1, PhasePeak: 2, PhaseTaper: 3}

// WeekRecord is one macro-plan week (spec.md §4.4 B2).
type WeekRecord struct {
	Index             int
	Phase             Phase
	Focus             string
	TargetWeeklyMiles float64
	WeekStart         time.Time
}

// AthleteProfile carries the slots + athlete preferences the pipeline
// reads; assembled by the caller from Planning Context (spec.md §3).
type AthleteProfile struct {
	UserID            string
	RaceDistance      string
	RaceDate          time.Time
	TargetTimeSeconds int
	WeeklyMileage     float64
	Tags              []string
	PlanStart         time.Time
	Audience          string
}

// raceDistanceMiles maps a canonical race-distance slot value (internal/
// slots' normalized RaceDistance forms) to its length in miles, letting B6
// derive a numeric goal pace instead of leaving it free-text.
var raceDistanceMiles = map[string]float64{
	"5k":       3.10686,
	"10k":      6.21371,
	"half":     13.10938,
	"marathon": 26.21875,
	"ultra":    31.06856, // 50k, the only ultra distance internal/slots recognizes
}

// GoalPaceSecondsPerMile derives the athlete's race-goal pace from
// RaceDistance and TargetTimeSeconds, so downstream session text always
// computes pace from this rather than inventing free text (spec.md §3,
// MaterializedSession invariant (c)). ok is false when either input is
// unavailable — B6 falls back to effort-based language in that case.
func (p AthleteProfile) GoalPaceSecondsPerMile() (seconds float64, ok bool) {
	if p.TargetTimeSeconds <= 0 {
		return 0, false
	}
	miles, known := raceDistanceMiles[p.RaceDistance]
	if !known || miles <= 0 {
		return 0, false
	}
	return float64(p.TargetTimeSeconds) / miles, true
}

// StageError names the first-violating stage and guard, per spec.md §4.4's
// "surfaces the first violation".
type StageError struct {
	Stage string
	Guard string
	Cause error
}

func (e *StageError) Error() string {
	return "planning: " + e.Stage + " guard " + e.Guard + " violated: " + e.Cause.Error()
}

func (e *StageError) Unwrap() error { return e.Cause }

func stageErr(stage, guard string, cause error) *StageError {
	return &StageError{Stage: stage, Guard: guard, Cause: cause}
}

// DaySlot is one day's allocated volume within a week (spec.md §4.4 B4).
type DaySlot struct {
	Weekday       string
	SessionType   string
	Intent        calendar.Intent
	HardGroup     bool
	AssignedMiles float64
}

// StructuredWeek pairs a WeekRecord with the week_pattern/rules chosen for
// it in B3, and its allocated volume from B4.
type StructuredWeek struct {
	Week WeekRecord
	Days []DaySlot
}

// TemplateBinding is B5's output for one day: a concrete, in-range
// parameter set for its session type.
type TemplateBinding struct {
	Day             DaySlot
	TemplateID      string
	DistanceMeters  float64
	DurationSeconds int64
}

// Plan is the pipeline's final output before persistence: every
// MaterializedSession it produced, keyed by plan_id.
type Plan struct {
	PlanID   string
	UserID   string
	Sessions []calendar.MaterializedSession
}
