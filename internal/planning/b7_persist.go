package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/virtus-coach/coach/internal/calendar"
)

// ToolCaller is the subset of mcpclient.Client the pipeline depends on for
// persistence, narrowed to an interface per spec.md §4.1 (all side effects
// flow through the Tool Client).
type ToolCaller interface {
	Call(ctx context.Context, toolName string, arguments map[string]any) (map[string]any, error)
}

// Persist implements B7: writes every session in plan via the Data tool
// server's save_planned_sessions operation, honoring the idempotency key
// (user_id, starts_at, session_type, plan_id) server-side (spec.md §4.4 B7).
func Persist(ctx context.Context, tools ToolCaller, plan Plan) error {
	if len(plan.Sessions) == 0 {
		return nil
	}
	if err := checkNoSameSecondCollision(plan.Sessions); err != nil {
		return err
	}

	sessions := make([]map[string]any, 0, len(plan.Sessions))
	for _, s := range plan.Sessions {
		sessions = append(sessions, sessionToArguments(s))
	}

	_, err := tools.Call(ctx, "save_planned_sessions", map[string]any{
		"user_id":  plan.UserID,
		"plan_id":  plan.PlanID,
		"plan_type": "race_build",
		"sessions": sessions,
	})
	if err != nil {
		return fmt.Errorf("planning: B7 persist: %w", err)
	}
	return nil
}

// checkNoSameSecondCollision enforces the B7 guard: no two planned sessions
// share a (user_id, starts_at second).
func checkNoSameSecondCollision(sessions []calendar.MaterializedSession) error {
	seen := map[string]bool{}
	for _, s := range sessions {
		key := s.UserID + "|" + s.StartsAt.UTC().Truncate(time.Second).Format(time.RFC3339)
		if seen[key] {
			return stageErr("B7", "no_same_second_collision", fmt.Errorf("two sessions for user %s both start at %s", s.UserID, s.StartsAt))
		}
		seen[key] = true
	}
	return nil
}

func sessionToArguments(s calendar.MaterializedSession) map[string]any {
	steps := make([]map[string]any, 0, len(s.WorkoutSteps))
	for _, step := range s.WorkoutSteps {
		steps = append(steps, map[string]any{
			"step_index":   step.StepIndex,
			"step_type":    step.StepType,
			"targets":      step.Targets,
			"instructions": step.Instructions,
			"purpose":      step.Purpose,
		})
	}
	return map[string]any{
		"starts_at":        s.StartsAt.UTC().Format(time.RFC3339),
		"ends_at":          s.EndsAt.UTC().Format(time.RFC3339),
		"sport":            s.Sport,
		"session_type":     s.SessionType,
		"intent":           string(s.Intent),
		"duration_seconds": s.DurationSeconds,
		"distance_meters":  s.DistanceMeters,
		"description_text": s.DescriptionText,
		"workout_steps":    steps,
	}
}
