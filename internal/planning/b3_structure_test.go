package planning

import (
	"errors"
	"testing"

	"github.com/virtus-coach/coach/internal/calendar"
	"github.com/virtus-coach/coach/internal/corpus"
)

func structureFixture(id string, phase string, daysMin, daysMax, taperLE, priority int) *corpus.Structure {
	return &corpus.Structure{
		Metadata: corpus.Metadata{
			ID:                id,
			RaceTypes:         []string{"marathon"},
			Phase:             phase,
			DaysToRaceMin:     daysMin,
			DaysToRaceMax:     daysMax,
			TaperDaysToRaceLE: taperLE,
			Priority:          priority,
		},
		WeekPattern: []corpus.WeekPatternEntry{
			{Weekday: "monday", SessionType: "rest"},
			{Weekday: "tuesday", SessionType: "easy"},
			{Weekday: "wednesday", SessionType: "quality", HardGroup: true},
			{Weekday: "thursday", SessionType: "easy"},
			{Weekday: "friday", SessionType: "rest"},
			{Weekday: "saturday", SessionType: "long"},
			{Weekday: "sunday", SessionType: "easy"},
		},
		Rules: corpus.StructureRules{HardDaysMax: 1, LongRunRequiredCount: 1, NoConsecutiveHardDays: true},
	}
}

func TestLoadStructureMatchesPhaseAndWindow(t *testing.T) {
	candidates := []*corpus.Structure{
		structureFixture("s-base", "base", 0, 0, 0, 1),
		structureFixture("s-build", "build", 0, 0, 0, 1),
	}
	profile := AthleteProfile{RaceDistance: "marathon"}
	week := WeekRecord{Phase: PhaseBuild}
	got, err := LoadStructure(candidates, "", profile, week, 60)
	if err != nil {
		t.Fatalf("LoadStructure: %v", err)
	}
	if got.ID != "s-build" {
		t.Errorf("selected %q, want s-build", got.ID)
	}
}

func TestLoadStructurePrefersTaperWhenWithinWindow(t *testing.T) {
	candidates := []*corpus.Structure{
		structureFixture("s-taper", "taper", 0, 0, 14, 1),
		structureFixture("s-regular-taper", "taper", 0, 0, 0, 5),
	}
	profile := AthleteProfile{RaceDistance: "marathon"}
	week := WeekRecord{Phase: PhaseTaper}
	got, err := LoadStructure(candidates, "", profile, week, 10)
	if err != nil {
		t.Fatalf("LoadStructure: %v", err)
	}
	if got.ID != "s-taper" {
		t.Errorf("selected %q, want s-taper (taper preference beats higher priority)", got.ID)
	}
}

func TestLoadStructureNoMatchErrors(t *testing.T) {
	profile := AthleteProfile{RaceDistance: "marathon"}
	week := WeekRecord{Phase: PhasePeak}
	_, err := LoadStructure(nil, "", profile, week, 20)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "no_matching_structure" {
		t.Fatalf("expected no_matching_structure error, got %v", err)
	}
}

func TestMapHardGroupsToIntentProducesQualityDays(t *testing.T) {
	s := structureFixture("s1", "build", 0, 0, 0, 1)
	days, err := MapHardGroupsToIntent(s)
	if err != nil {
		t.Fatalf("MapHardGroupsToIntent: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if days[2].Intent != calendar.IntentQuality {
		t.Errorf("wednesday intent = %v, want quality", days[2].Intent)
	}
}

func TestMapHardGroupsToIntentRejectsExceedingHardDaysMax(t *testing.T) {
	s := structureFixture("s1", "build", 0, 0, 0, 1)
	s.WeekPattern[1].HardGroup = true // add a second hard day: tuesday
	s.Rules.HardDaysMax = 1
	_, err := MapHardGroupsToIntent(s)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "hard_days_max" {
		t.Fatalf("expected hard_days_max error, got %v", err)
	}
}

func TestMapHardGroupsToIntentRejectsConsecutiveHardDays(t *testing.T) {
	s := structureFixture("s1", "build", 0, 0, 0, 1)
	s.WeekPattern[3].HardGroup = true // thursday hard, right after wednesday
	s.WeekPattern[2].HardGroup = true
	// make wednesday and thursday consecutive quality days
	s.WeekPattern[3].SessionType = "quality"
	s.Rules.HardDaysMax = 0
	_, err := MapHardGroupsToIntent(s)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "no_consecutive_hard_days" {
		t.Fatalf("expected no_consecutive_hard_days error, got %v", err)
	}
}

func TestMapHardGroupsToIntentRejectsWrongLongRunCount(t *testing.T) {
	s := structureFixture("s1", "build", 0, 0, 0, 1)
	s.WeekPattern[5].SessionType = "easy" // remove the only long run
	_, err := MapHardGroupsToIntent(s)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "long_run_count" {
		t.Fatalf("expected long_run_count error, got %v", err)
	}
}
