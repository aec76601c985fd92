package controller

import (
	"context"
	"strings"

	"github.com/virtus-coach/coach/internal/llmclient"
)

// Classifier picks a TargetAction for a turn's message using a
// deterministic keyword heuristic.
type Classifier struct {
	completer llmclient.Completer
}

// NewClassifier builds a Classifier. completer may be nil; it is stored but
// Classify does not consult it and always uses the keyword heuristic.
func NewClassifier(completer llmclient.Completer) *Classifier {
	return &Classifier{completer: completer}
}

var classifyKeywords = []struct {
	action   TargetAction
	keywords []string
}{
	{ActionAddWorkout, []string{"add a workout", "log a workout", "add this run", "add workout"}},
	{ActionModifyWeek, []string{"change this week", "modify this week", "adjust this week", "reduce this week", "this week"}},
	{ActionModifyDay, []string{"change tomorrow", "move my run", "swap", "change today", "modify today", "modify tomorrow"}},
	{ActionPlanSeason, []string{"whole season", "multiple races", "season plan", "plan my season"}},
	{ActionWeeklyPlan, []string{"next week", "plan my week", "weekly plan", "this coming week"}},
	{ActionPlanRaceBuild, []string{"training for", "race build", "train for", "marathon", "half marathon", "5k", "10k", "ultra"}},
}

// Classify implements CLASSIFY_TARGET (spec.md §4.3). hasPriorRacePlan
// implements the weekly_plan dependency-gating rewrite: a weekly_plan
// request with no existing race plan becomes plan_race_build.
func (c *Classifier) Classify(ctx context.Context, message string, hasPriorRacePlan bool) TargetAction {
	action := c.classifyDeterministic(message)
	if action == ActionWeeklyPlan && !hasPriorRacePlan {
		action = ActionPlanRaceBuild
	}
	return action
}

func (c *Classifier) classifyDeterministic(message string) TargetAction {
	lower := strings.ToLower(message)
	for _, candidate := range classifyKeywords {
		for _, kw := range candidate.keywords {
			if strings.Contains(lower, kw) {
				return candidate.action
			}
		}
	}
	return ActionNone
}
