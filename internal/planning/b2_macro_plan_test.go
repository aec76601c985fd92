package planning

import (
	"errors"
	"testing"
	"time"
)

func TestMacroPlanRejectsRaceDateNotAfterPlanStart(t *testing.T) {
	profile := AthleteProfile{
		PlanStart: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		RaceDate:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := MacroPlan(profile)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "B2" || stageErr.Guard != "plan_span" {
		t.Fatalf("expected B2/plan_span error, got %v", err)
	}
}

func TestMacroPlanRejectsTooShortSpan(t *testing.T) {
	profile := AthleteProfile{
		PlanStart:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		RaceDate:      time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		WeeklyMileage: 20,
	}
	_, err := MacroPlan(profile)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "min_span" {
		t.Fatalf("expected min_span error, got %v", err)
	}
}

func TestMacroPlanProducesContiguousMonotonicWeeks(t *testing.T) {
	profile := AthleteProfile{
		PlanStart:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		RaceDate:      time.Date(2026, 4, 26, 0, 0, 0, 0, time.UTC), // ~16 weeks out
		WeeklyMileage: 25,
	}
	weeks, err := MacroPlan(profile)
	if err != nil {
		t.Fatalf("MacroPlan: %v", err)
	}
	if len(weeks) < 4 {
		t.Fatalf("expected at least 4 weeks, got %d", len(weeks))
	}
	for i, w := range weeks {
		if w.Index != i {
			t.Errorf("week %d has index %d", i, w.Index)
		}
		if i > 0 && w.WeekStart.Sub(weeks[i-1].WeekStart) != 7*24*time.Hour {
			t.Errorf("week %d does not start exactly 7 days after week %d", i, i-1)
		}
	}
	last := weeks[len(weeks)-1]
	if last.Phase != PhaseTaper {
		t.Errorf("final week phase = %q, want taper", last.Phase)
	}
}

func TestMacroPlanNeverRegressesPhase(t *testing.T) {
	profile := AthleteProfile{
		PlanStart:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		RaceDate:      time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
		WeeklyMileage: 30,
	}
	weeks, err := MacroPlan(profile)
	if err != nil {
		t.Fatalf("MacroPlan: %v", err)
	}
	for i := 1; i < len(weeks); i++ {
		if phaseOrder[weeks[i].Phase] < phaseOrder[weeks[i-1].Phase] {
			t.Fatalf("phase regressed at week %d: %s -> %s", i, weeks[i-1].Phase, weeks[i].Phase)
		}
	}
}

func TestMacroPlanRecoveryWeekEveryFourthBuildWeek(t *testing.T) {
	profile := AthleteProfile{
		PlanStart:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		RaceDate:      time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
		WeeklyMileage: 30,
	}
	weeks, err := MacroPlan(profile)
	if err != nil {
		t.Fatalf("MacroPlan: %v", err)
	}
	// Week index 3 (the 4th week, 0-indexed) should carry a recovery focus if
	// it falls within the pre-peak base/build weeks.
	for _, w := range weeks {
		if w.Index == 3 && (w.Phase == PhaseBase || w.Phase == PhaseBuild) {
			if w.Focus != "recovery" {
				t.Errorf("week 3 focus = %q, want recovery", w.Focus)
			}
		}
	}
}
