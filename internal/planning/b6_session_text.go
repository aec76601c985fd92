package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/virtus-coach/coach/internal/calendar"
	"github.com/virtus-coach/coach/internal/llmclient"
)

// sessionTextSchema is the shape B6 requires a structured-completion
// response to satisfy before it is trusted (spec.md §4.4 B6): each step has
// step_index, step_type, targets, instructions, purpose.
var sessionTextSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"description": map[string]any{"type": "string"},
		"steps": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"step_index":   map[string]any{"type": "integer"},
					"step_type":    map[string]any{"type": "string"},
					"targets":      map[string]any{"type": "object"},
					"instructions": map[string]any{"type": "string"},
					"purpose":      map[string]any{"type": "string"},
				},
			},
		},
	},
}

// GenerateSessionText implements B6: builds description text and workout
// steps for one TemplateBinding, starting on weekStart. May invoke
// completer for richer text, but always validates its output and falls
// back to a deterministic template on any failure.
func GenerateSessionText(ctx context.Context, binding TemplateBinding, weekStart time.Time, profile AthleteProfile, planID string, completer llmclient.Completer) (calendar.MaterializedSession, error) {
	startsAt := dayOffset(weekStart, binding.Day.Weekday)

	pace, hasPace := profile.GoalPaceSecondsPerMile()
	description, steps := fallbackText(binding, pace, hasPace)
	if completer != nil {
		if gen, ok := tryCompleterText(ctx, completer, binding); ok {
			description, steps = gen.description, gen.steps
		}
	}

	sess := calendar.MaterializedSession{
		UserID:          profile.UserID,
		PlanID:          planID,
		StartsAt:        startsAt,
		EndsAt:          startsAt.Add(time.Hour),
		Sport:           "run",
		SessionType:     binding.Day.SessionType,
		Intent:          binding.Day.Intent,
		DescriptionText: description,
		WorkoutSteps:    steps,
		Status:          calendar.StatusPlanned,
	}

	if binding.DistanceMeters > 0 {
		sess = calendar.NewDistanceSession(sess, binding.DistanceMeters)
	} else if binding.DurationSeconds > 0 {
		sess = calendar.NewDurationSession(sess, binding.DurationSeconds)
	} else {
		return calendar.MaterializedSession{}, stageErr("B5→B6", "single_primary_metric", fmt.Errorf("binding for %s has no distance or duration", binding.Day.Weekday))
	}

	if !sess.HasSinglePrimaryMetric() {
		return calendar.MaterializedSession{}, stageErr("B5→B6", "single_primary_metric", fmt.Errorf("session for %s has zero or two primary metrics", binding.Day.Weekday))
	}
	return sess, nil
}

type generatedText struct {
	description string
	steps       []calendar.WorkoutStep
}

func tryCompleterText(ctx context.Context, completer llmclient.Completer, binding TemplateBinding) (generatedText, bool) {
	prompt := fmt.Sprintf("Write session text for a %s day targeting %.1f meters.", binding.Day.SessionType, binding.DistanceMeters)
	result, err := completer.Complete(ctx, prompt, sessionTextSchema)
	if err != nil {
		return generatedText{}, false
	}

	description, _ := result["description"].(string)
	rawSteps, _ := result["steps"].([]any)
	if description == "" || len(rawSteps) == 0 {
		return generatedText{}, false
	}

	steps := make([]calendar.WorkoutStep, 0, len(rawSteps))
	for _, raw := range rawSteps {
		m, ok := raw.(map[string]any)
		if !ok {
			return generatedText{}, false
		}
		idx, _ := m["step_index"].(float64)
		stepType, _ := m["step_type"].(string)
		instructions, _ := m["instructions"].(string)
		purpose, _ := m["purpose"].(string)
		targets, _ := m["targets"].(map[string]any)
		if stepType == "" || instructions == "" {
			return generatedText{}, false
		}
		steps = append(steps, calendar.WorkoutStep{
			StepIndex:    int(idx),
			StepType:     stepType,
			Targets:      targets,
			Instructions: instructions,
			Purpose:      purpose,
		})
	}

	return generatedText{description: description, steps: steps}, true
}

// longRunPaceBufferSeconds is how much slower than goal race pace a long
// run's steady effort runs, per mile.
const longRunPaceBufferSeconds = 75.0

// formatPace renders a seconds-per-mile value as m:ss.
func formatPace(secondsPerMile float64) string {
	total := int(secondsPerMile + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// fallbackText is the deterministic template used when no completer is
// wired or its output fails schema validation (spec.md §4.4 B6 "If
// generation fails, a deterministic fallback template is used"). Adapted
// from HendryAvila-Hoofy/internal/templates' text-template rendering idiom.
// paceSecondsPerMile/hasPace come from AthleteProfile.GoalPaceSecondsPerMile
// — quality and long sessions describe pace numerically when it is known,
// never inventing a pace from free text (spec.md §3 invariant (c)).
func fallbackText(binding TemplateBinding, paceSecondsPerMile float64, hasPace bool) (string, []calendar.WorkoutStep) {
	miles := binding.DistanceMeters / 1609.34
	switch binding.Day.Intent {
	case calendar.IntentRest:
		return "Rest day. No structured training.", nil
	case calendar.IntentLong:
		paceText := "an easy, conversational pace"
		var targets map[string]any
		if hasPace {
			longPace := paceSecondsPerMile + longRunPaceBufferSeconds
			paceText = fmt.Sprintf("%s/mi (goal race pace plus a buffer)", formatPace(longPace))
			targets = map[string]any{"pace_seconds_per_mile": longPace}
		}
		description := fmt.Sprintf("Long run: %.1f miles at %s.", miles, paceText)
		return description, []calendar.WorkoutStep{
			{StepIndex: 0, StepType: "warmup", Instructions: "Start easy for the first mile.", Purpose: "gradual aerobic ramp-up"},
			{StepIndex: 1, StepType: "steady", Instructions: fmt.Sprintf("Settle into %s for the remaining %.1f miles.", paceText, miles-1), Purpose: "aerobic endurance", Targets: targets},
		}
	case calendar.IntentQuality:
		paceText := "structured intensity"
		var targets map[string]any
		if hasPace {
			paceText = fmt.Sprintf("goal race pace (%s/mi)", formatPace(paceSecondsPerMile))
			targets = map[string]any{"pace_seconds_per_mile": paceSecondsPerMile}
		}
		description := fmt.Sprintf("Quality session: %.1f miles with %s.", miles, paceText)
		return description, []calendar.WorkoutStep{
			{StepIndex: 0, StepType: "warmup", Instructions: "15 minutes easy.", Purpose: "prime for intensity"},
			{StepIndex: 1, StepType: "interval", Instructions: fmt.Sprintf("Main set at %s.", paceText), Purpose: "stimulate fitness-limiting systems", Targets: targets},
			{StepIndex: 2, StepType: "cooldown", Instructions: "10 minutes easy.", Purpose: "recovery"},
		}
	default:
		description := fmt.Sprintf("Easy run: %.1f miles at a comfortable pace.", miles)
		return description, []calendar.WorkoutStep{
			{StepIndex: 0, StepType: "steady", Instructions: fmt.Sprintf("Run %.1f miles easy.", miles), Purpose: "active recovery / aerobic maintenance"},
		}
	}
}

var weekdayOffsets = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

func dayOffset(weekStart time.Time, weekday string) time.Time {
	offset := weekdayOffsets[weekday]
	return weekStart.AddDate(0, 0, offset)
}
