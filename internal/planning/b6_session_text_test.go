package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/virtus-coach/coach/internal/calendar"
)

var mondayWeekStart = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC) // a Monday

func TestGenerateSessionTextFallbackForLongRun(t *testing.T) {
	binding := TemplateBinding{
		Day:            DaySlot{Weekday: "saturday", Intent: calendar.IntentLong, SessionType: "long"},
		DistanceMeters: 16093.4, // 10 miles
	}
	sess, err := GenerateSessionText(context.Background(), binding, mondayWeekStart, AthleteProfile{UserID: "user1"}, "plan1", nil)
	if err != nil {
		t.Fatalf("GenerateSessionText: %v", err)
	}
	if sess.DescriptionText == "" {
		t.Error("expected non-empty description")
	}
	if len(sess.WorkoutSteps) == 0 {
		t.Error("expected fallback workout steps for a long run")
	}
	if !sess.HasSinglePrimaryMetric() {
		t.Error("expected exactly one primary metric")
	}
	wantStart := mondayWeekStart.AddDate(0, 0, 5) // saturday offset
	if !sess.StartsAt.Equal(wantStart) {
		t.Errorf("StartsAt = %v, want %v", sess.StartsAt, wantStart)
	}
}

func TestGenerateSessionTextRejectsZeroMetricRestBinding(t *testing.T) {
	binding := TemplateBinding{
		Day:             DaySlot{Weekday: "monday", Intent: calendar.IntentRest, SessionType: "rest"},
		DurationSeconds: 0,
		DistanceMeters:  0,
	}
	_, err := GenerateSessionText(context.Background(), binding, mondayWeekStart, AthleteProfile{UserID: "user1"}, "plan1", nil)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "single_primary_metric" {
		t.Fatalf("expected single_primary_metric error for a zero-metric rest binding, got %v", err)
	}
}

type fakeCompleter struct {
	result map[string]any
	err    error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error) {
	return f.result, f.err
}

func TestGenerateSessionTextUsesCompleterOnSuccess(t *testing.T) {
	completer := &fakeCompleter{result: map[string]any{
		"description": "Custom generated text.",
		"steps": []any{
			map[string]any{"step_index": float64(0), "step_type": "warmup", "instructions": "Jog easy.", "purpose": "warm up"},
		},
	}}
	binding := TemplateBinding{
		Day:            DaySlot{Weekday: "tuesday", Intent: calendar.IntentEasy, SessionType: "easy"},
		DistanceMeters: 8046.7,
	}
	sess, err := GenerateSessionText(context.Background(), binding, mondayWeekStart, AthleteProfile{UserID: "user1"}, "plan1", completer)
	if err != nil {
		t.Fatalf("GenerateSessionText: %v", err)
	}
	if sess.DescriptionText != "Custom generated text." {
		t.Errorf("DescriptionText = %q, want completer output", sess.DescriptionText)
	}
}

func TestGenerateSessionTextFallsBackOnMalformedCompleterOutput(t *testing.T) {
	completer := &fakeCompleter{result: map[string]any{"description": "", "steps": []any{}}}
	binding := TemplateBinding{
		Day:            DaySlot{Weekday: "tuesday", Intent: calendar.IntentEasy, SessionType: "easy"},
		DistanceMeters: 8046.7,
	}
	sess, err := GenerateSessionText(context.Background(), binding, mondayWeekStart, AthleteProfile{UserID: "user1"}, "plan1", completer)
	if err != nil {
		t.Fatalf("GenerateSessionText: %v", err)
	}
	if sess.DescriptionText == "" {
		t.Error("expected non-empty fallback description when completer output is malformed")
	}
}

func TestGenerateSessionTextFallsBackOnCompleterError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("boom")}
	binding := TemplateBinding{
		Day:            DaySlot{Weekday: "wednesday", Intent: calendar.IntentQuality, SessionType: "quality"},
		DistanceMeters: 9656.1,
	}
	sess, err := GenerateSessionText(context.Background(), binding, mondayWeekStart, AthleteProfile{UserID: "user1"}, "plan1", completer)
	if err != nil {
		t.Fatalf("GenerateSessionText: %v", err)
	}
	if len(sess.WorkoutSteps) == 0 {
		t.Error("expected fallback steps when completer errors")
	}
}

func TestGenerateSessionTextDerivesNumericPaceFromRaceGoal(t *testing.T) {
	profile := AthleteProfile{UserID: "user1", RaceDistance: "marathon", TargetTimeSeconds: 3*3600 + 30*60} // 3:30 marathon
	binding := TemplateBinding{
		Day:            DaySlot{Weekday: "wednesday", Intent: calendar.IntentQuality, SessionType: "quality"},
		DistanceMeters: 9656.1,
	}
	sess, err := GenerateSessionText(context.Background(), binding, mondayWeekStart, profile, "plan1", nil)
	if err != nil {
		t.Fatalf("GenerateSessionText: %v", err)
	}
	wantPace, ok := profile.GoalPaceSecondsPerMile()
	if !ok {
		t.Fatal("expected a derivable goal pace")
	}
	interval := sess.WorkoutSteps[1]
	got, ok := interval.Targets["pace_seconds_per_mile"].(float64)
	if !ok || got != wantPace {
		t.Errorf("interval step pace_seconds_per_mile = %v, want %v", interval.Targets["pace_seconds_per_mile"], wantPace)
	}
}

func TestGoalPaceSecondsPerMileRequiresBothInputs(t *testing.T) {
	if _, ok := (AthleteProfile{RaceDistance: "marathon"}).GoalPaceSecondsPerMile(); ok {
		t.Error("expected no pace without TargetTimeSeconds")
	}
	if _, ok := (AthleteProfile{TargetTimeSeconds: 12000}).GoalPaceSecondsPerMile(); ok {
		t.Error("expected no pace without a recognized RaceDistance")
	}
}
