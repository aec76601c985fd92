package dataserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/virtus-coach/coach/internal/calendar"
	"github.com/virtus-coach/coach/internal/conversation"
	"github.com/virtus-coach/coach/internal/mcpenvelope"
)

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

func argInt(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func invalidInput(message string) *mcpenvelope.Error {
	return &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidInput, Message: message}
}

func dbError(message string) *mcpenvelope.Error {
	return &mcpenvelope.Error{Code: mcpenvelope.CodeDBError, Message: message}
}

func (s *Server) handleLoadContext(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	conversationID, ok := argString(args, "conversation_id")
	if !ok || conversationID == "" {
		return nil, invalidInput("conversation_id is required")
	}
	limit := argInt(args, "limit", 50)

	ctx := context.Background()
	msgs, err := s.conversations.LoadContext(ctx, conversationID, limit)
	if err != nil {
		s.logger.Warn("dataserver: load_context degraded to empty history", "error", err.Error())
		return map[string]any{"messages": []any{}}, nil
	}

	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"id":         m.ID,
			"sender":     string(m.Sender),
			"content":    m.Content,
			"created_at": m.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return map[string]any{"messages": out}, nil
}

func (s *Server) handleSaveContext(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	conversationID, ok := argString(args, "conversation_id")
	if !ok || conversationID == "" {
		return nil, invalidInput("conversation_id is required")
	}
	userMessage, _ := argString(args, "user_message")
	assistantMessage, _ := argString(args, "assistant_message")
	if userMessage == "" {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidMessage, Message: "user_message is required"}
	}

	ctx := context.Background()
	if err := s.conversations.EnsureConversation(ctx, conversationID, ""); err != nil {
		return nil, dbError(err.Error())
	}

	msgs := []conversation.Message{{Sender: conversation.SenderUser, Content: userMessage, CreatedAt: time.Now()}}
	if assistantMessage != "" {
		msgs = append(msgs, conversation.Message{Sender: conversation.SenderAssistant, Content: assistantMessage, CreatedAt: time.Now()})
	}
	if err := s.conversations.AppendMessages(ctx, conversationID, msgs); err != nil {
		return nil, dbError(err.Error())
	}
	return map[string]any{"saved": true}, nil
}

func (s *Server) handleSaveProgress(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	conversationID, ok := argString(args, "conversation_id")
	if !ok || conversationID == "" {
		return nil, invalidInput("conversation_id is required")
	}
	raw, ok := args["progress"]
	if !ok {
		return nil, invalidInput("progress is required")
	}
	expectedVersion := argInt(args, "expected_version", 0)

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, invalidInput("progress is not a valid object")
	}
	var progress conversation.Progress
	if err := json.Unmarshal(encoded, &progress); err != nil {
		return nil, invalidInput("progress is not a valid object")
	}
	if progress.FilledSlots == nil {
		progress.FilledSlots = map[string]string{}
	}

	ctx := context.Background()
	version, err := s.conversations.SaveProgress(ctx, conversationID, progress, expectedVersion)
	if err != nil {
		if err == conversation.ErrVersionConflict {
			return nil, invalidInput("progress version conflict, re-read and retry")
		}
		return nil, dbError(err.Error())
	}
	return map[string]any{"version": version}, nil
}

func (s *Server) handleLoadProgress(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	conversationID, ok := argString(args, "conversation_id")
	if !ok || conversationID == "" {
		return nil, invalidInput("conversation_id is required")
	}

	ctx := context.Background()
	stored, err := s.conversations.LoadProgress(ctx, conversationID)
	if err != nil {
		return nil, dbError(err.Error())
	}

	return map[string]any{
		"progress": map[string]any{
			"required_attributes": stored.Progress.RequiredAttributes,
			"optional_attributes": stored.Progress.OptionalAttributes,
			"filled_slots":        stored.Progress.FilledSlots,
			"awaiting_slots":      stored.Progress.AwaitingSlots,
			"target_action":       stored.Progress.TargetAction,
		},
		"version": stored.Version,
	}, nil
}

func (s *Server) handleGetRecentActivities(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	userID, ok := argString(args, "user_id")
	if !ok || userID == "" {
		return nil, invalidInput("user_id is required")
	}
	days := argInt(args, "days", 0)
	if days < 0 {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidDays, Message: "days must be non-negative"}
	}

	ctx := context.Background()
	hasPlan, err := s.conversations.HasPriorRacePlan(ctx, userID)
	if err != nil {
		return nil, dbError(err.Error())
	}

	activities := []any{}
	if s.activities != nil && days > 0 {
		acts, err := s.activities.RecentActivities(ctx, userID, time.Now().AddDate(0, 0, -days))
		if err != nil {
			s.logger.Warn("dataserver: activity source read failed, degrading to empty", "error", err.Error())
		} else {
			for _, a := range acts {
				activities = append(activities, map[string]any{
					"id":               a.ID,
					"started_at":       a.StartedAt.Format(time.RFC3339),
					"sport":            a.Sport,
					"duration_seconds": a.DurationSeconds,
					"distance_meters":  a.DistanceMeters,
				})
			}
		}
	}

	return map[string]any{"activities": activities, "has_prior_race_plan": hasPlan}, nil
}

func (s *Server) handleSavePlannedSessions(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	userID, ok := argString(args, "user_id")
	if !ok || userID == "" {
		return nil, invalidInput("user_id is required")
	}
	planID, ok := argString(args, "plan_id")
	if !ok || planID == "" {
		return nil, invalidInput("plan_id is required")
	}
	rawSessions, _ := args["sessions"].([]any)
	if len(rawSessions) == 0 {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidSessionData, Message: "sessions is required and must be non-empty"}
	}

	sessions := make([]calendar.MaterializedSession, 0, len(rawSessions))
	for _, raw := range rawSessions {
		sess, err := decodeSession(userID, raw)
		if err != nil {
			return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidSessionData, Message: err.Error()}
		}
		sessions = append(sessions, sess)
	}

	ctx := context.Background()
	conflicts, err := s.sessions.InsertPlan(ctx, planID, sessions)
	if err != nil {
		return nil, dbError(err.Error())
	}

	out := make([]map[string]any, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, map[string]any{
			"starts_at":    c.StartsAt.Format(time.RFC3339),
			"session_type": c.SessionType,
			"reason":       c.Reason,
		})
	}
	return map[string]any{"inserted": len(sessions) - len(conflicts), "conflicts": out}, nil
}

func decodeSession(userID string, raw any) (calendar.MaterializedSession, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return calendar.MaterializedSession{}, errInvalidSession
	}
	startsAt, _ := m["starts_at"].(string)
	endsAt, _ := m["ends_at"].(string)
	startTime, err := time.Parse(time.RFC3339, startsAt)
	if err != nil {
		return calendar.MaterializedSession{}, errInvalidSession
	}
	endTime, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		endTime = startTime.Add(time.Hour)
	}

	sport, _ := m["sport"].(string)
	sessionType, _ := m["session_type"].(string)
	intent, _ := m["intent"].(string)
	duration, _ := m["duration_seconds"].(float64)
	distance, _ := m["distance_meters"].(float64)
	description, _ := m["description_text"].(string)
	steps := decodeWorkoutSteps(m["workout_steps"])

	return calendar.MaterializedSession{
		ID:              uuid.NewString(),
		UserID:          userID,
		StartsAt:        startTime,
		EndsAt:          endTime,
		Sport:           sport,
		SessionType:     sessionType,
		Intent:          calendar.Intent(intent),
		DurationSeconds: int64(duration),
		DistanceMeters:  distance,
		DescriptionText: description,
		WorkoutSteps:    steps,
		Status:          calendar.StatusPlanned,
	}, nil
}

// decodeWorkoutSteps decodes the wire shape internal/planning's
// sessionToArguments sends: a []any of maps with step_index/step_type/
// targets/instructions/purpose. Malformed entries are skipped rather than
// failing the whole session, since a missing step is recoverable but a
// missing session is not.
func decodeWorkoutSteps(raw any) []calendar.WorkoutStep {
	rawSteps, ok := raw.([]any)
	if !ok || len(rawSteps) == 0 {
		return nil
	}
	steps := make([]calendar.WorkoutStep, 0, len(rawSteps))
	for _, r := range rawSteps {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		idx, _ := m["step_index"].(float64)
		stepType, _ := m["step_type"].(string)
		instructions, _ := m["instructions"].(string)
		purpose, _ := m["purpose"].(string)
		targets, _ := m["targets"].(map[string]any)
		steps = append(steps, calendar.WorkoutStep{
			StepIndex:    int(idx),
			StepType:     stepType,
			Targets:      targets,
			Instructions: instructions,
			Purpose:      purpose,
		})
	}
	return steps
}

var errInvalidSession = &invalidSessionError{}

type invalidSessionError struct{}

func (e *invalidSessionError) Error() string { return "session record is malformed" }

// handlePlanRaceBuild/PlanSeason/AddWorkout are thin validation fronts: the
// actual plan materialization happens in internal/planning, invoked by the
// caller after these confirm required fields are present (spec.md §6's
// tool surface names these as the controller's execution targets; their
// domain logic is the Planning Pipeline, not the Data tool server).
func (s *Server) handlePlanRaceBuild(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	if _, ok := argString(args, "race_distance"); !ok {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeMissingRaceInfo, Message: "race_distance is required"}
	}
	raceDate, ok := argString(args, "race_date")
	if !ok {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeMissingRaceInfo, Message: "race_date is required"}
	}
	if _, err := time.Parse("2006-01-02", raceDate); err != nil {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidRaceDate, Message: "race_date must be YYYY-MM-DD"}
	}
	return map[string]any{"accepted": true}, nil
}

func (s *Server) handlePlanSeason(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	if _, ok := argString(args, "race_distance"); !ok {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeMissingSeasonInfo, Message: "race_distance is required"}
	}
	raceDate, ok := argString(args, "race_date")
	if !ok {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeMissingSeasonInfo, Message: "race_date is required"}
	}
	if _, err := time.Parse("2006-01-02", raceDate); err != nil {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidSeasonDates, Message: "race_date must be YYYY-MM-DD"}
	}
	return map[string]any{"accepted": true}, nil
}

func (s *Server) handleAddWorkout(args map[string]any) (map[string]any, *mcpenvelope.Error) {
	description, ok := argString(args, "workout_description")
	if !ok || description == "" {
		return nil, &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidWorkoutDescription, Message: "workout_description is required"}
	}
	return map[string]any{"accepted": true}, nil
}
