package dataserver

import "github.com/mark3labs/mcp-go/mcp"

// toolSchemas declares the Data tool server's argument contract using
// mark3labs/mcp-go's mcp.NewTool/mcp.With*/mcp.Required builder idiom
// (grounded on HendryAvila-Hoofy/internal/memtools — e.g. save.go's
// SaveTool.Definition). The transport here is the spec's HTTP envelope, not
// MCP JSON-RPC, so these schemas aren't served over the wire; handleCall
// uses InputSchema.Required to validate arguments before dispatch, keeping
// one declared contract instead of the required-field checks duplicated
// across every handle* function.
var toolSchemas = map[string]mcp.Tool{
	"load_context": mcp.NewTool("load_context",
		mcp.WithDescription("Load recent conversation history for building conversation_summary_optional."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to load history for")),
		mcp.WithNumber("limit", mcp.Description("Max messages to return (default 50)")),
	),
	"save_context": mcp.NewTool("save_context",
		mcp.WithDescription("Append a user/assistant message pair to a conversation's history."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to append to")),
		mcp.WithString("user_message", mcp.Required(), mcp.Description("The user's message this turn")),
		mcp.WithString("assistant_message", mcp.Description("The assistant's response this turn")),
	),
	"save_progress": mcp.NewTool("save_progress",
		mcp.WithDescription("Persist slot-filling progress with optimistic-concurrency version checking."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to persist progress for")),
		mcp.WithString("progress", mcp.Required(), mcp.Description("Progress object: required/optional attributes, filled slots, awaiting slots, target action")),
		mcp.WithNumber("expected_version", mcp.Description("Version read before this write; mismatch rejects as a conflict")),
	),
	"load_progress": mcp.NewTool("load_progress",
		mcp.WithDescription("Load slot-filling progress and its current version."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to load progress for")),
	),
	"get_recent_activities": mcp.NewTool("get_recent_activities",
		mcp.WithDescription("Read recent training activities and whether the athlete has a prior race plan."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Athlete to look up")),
		mcp.WithNumber("days", mcp.Description("Lookback window in days (0 skips activity ingestion)")),
	),
	"save_planned_sessions": mcp.NewTool("save_planned_sessions",
		mcp.WithDescription("Persist a batch of B7-materialized sessions idempotently."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Athlete the sessions belong to")),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan these sessions were generated under")),
		mcp.WithArray("sessions", mcp.Required(), mcp.Description("Materialized sessions, including workout_steps")),
	),
	"plan_race_build": mcp.NewTool("plan_race_build",
		mcp.WithDescription("Validate race-build inputs ahead of Planning Pipeline execution."),
		mcp.WithString("race_distance", mcp.Required(), mcp.Description("Canonical race distance: 5k, 10k, half, marathon, ultra")),
		mcp.WithString("race_date", mcp.Required(), mcp.Description("Race date, YYYY-MM-DD")),
	),
	"plan_season": mcp.NewTool("plan_season",
		mcp.WithDescription("Validate season-plan inputs ahead of Planning Pipeline execution."),
		mcp.WithString("race_distance", mcp.Required(), mcp.Description("Canonical race distance: 5k, 10k, half, marathon, ultra")),
		mcp.WithString("race_date", mcp.Required(), mcp.Description("Race date, YYYY-MM-DD")),
	),
	// workout_description is required by handleAddWorkout itself, which
	// reports CodeInvalidWorkoutDescription — a more specific code than the
	// generic pre-dispatch check below, so it's declared here without
	// mcp.Required() to leave that validation to the handler.
	"add_workout": mcp.NewTool("add_workout",
		mcp.WithDescription("Validate a free-text workout addition."),
		mcp.WithString("workout_description", mcp.Description("Free-text description of the workout to add")),
	),
}

// validateAgainstSchema checks that every field mcp.Tool.InputSchema marks
// required is present in arguments, before the concrete handler runs.
func validateAgainstSchema(toolName string, arguments map[string]any) *string {
	schema, ok := toolSchemas[toolName]
	if !ok {
		return nil
	}
	for _, field := range schema.InputSchema.Required {
		if _, present := arguments[field]; !present {
			msg := field + " is required"
			return &msg
		}
	}
	return nil
}
