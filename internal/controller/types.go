// Package controller implements the Execution Controller (C6): the state
// machine that turns one user turn into exactly one of
// {asks_question, executes_tool, chat_informational} (spec.md §4.3).
package controller

import "github.com/virtus-coach/coach/internal/slots"

// TargetAction is the single planning tool (or "none") CLASSIFY_TARGET
// selects for a turn.
type TargetAction string

const (
	ActionPlanRaceBuild TargetAction = "plan_race_build"
	ActionPlanSeason    TargetAction = "plan_season"
	ActionAddWorkout    TargetAction = "add_workout"
	ActionWeeklyPlan    TargetAction = "weekly_plan"
	ActionModifyDay     TargetAction = "modify_day"
	ActionModifyWeek    TargetAction = "modify_week"
	ActionNone          TargetAction = "none"
)

// actionAttributes declares each target action's required and optional
// slots (spec.md §4.3 CLASSIFY_TARGET).
var actionAttributes = map[TargetAction]struct {
	Required []slots.Name
	Optional []slots.Name
}{
	ActionPlanRaceBuild: {
		Required: []slots.Name{slots.RaceDistance, slots.RaceDate},
		Optional: []slots.Name{slots.TargetTime, slots.WeeklyMileage},
	},
	ActionPlanSeason: {
		Required: []slots.Name{slots.RaceDistance, slots.RaceDate},
		Optional: []slots.Name{slots.TargetTime},
	},
	ActionAddWorkout: {
		Required: []slots.Name{slots.WorkoutDescription},
	},
	ActionWeeklyPlan: {},
	ActionModifyDay: {
		Required: []slots.Name{slots.WorkoutDescription},
	},
	ActionModifyWeek: {
		Required: []slots.Name{slots.WorkoutDescription},
	},
	ActionNone: {},
}

// RequiredAttributes returns the declared required slots for a target
// action.
func RequiredAttributes(a TargetAction) []slots.Name { return actionAttributes[a].Required }

// OptionalAttributes returns the declared optional slots for a target
// action.
func OptionalAttributes(a TargetAction) []slots.Name { return actionAttributes[a].Optional }

// Progress mirrors conversation.Progress's wire shape. The controller is a
// client of the Data tool server over the MCP boundary (spec.md §4.1) and
// therefore never imports the server-side internal/conversation package
// directly; it only knows this JSON shape.
type Progress struct {
	RequiredAttributes []string          `json:"required_attributes"`
	OptionalAttributes []string          `json:"optional_attributes"`
	FilledSlots        map[string]string `json:"filled_slots"`
	AwaitingSlots      []string          `json:"awaiting_slots"`
	TargetAction       string            `json:"target_action"`
}

// Response is what the controller emits at EMIT_RESPONSE.
type Response struct {
	Text          string
	ShouldExecute bool
	TargetAction  TargetAction
	AskedSlot     slots.Name
	Chat          bool
	// FilledSlots is the conversation's canonical slot values at the end of
	// this turn, so an executing caller (cmd/coach) can build a Planning
	// Context (spec.md §3) from the actual conversation instead of
	// placeholder values.
	FilledSlots map[string]string
}
