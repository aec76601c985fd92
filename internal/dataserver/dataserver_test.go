package dataserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/virtus-coach/coach/internal/activitysource"
	"github.com/virtus-coach/coach/internal/calendar"
	"github.com/virtus-coach/coach/internal/conversation"
	"github.com/virtus-coach/coach/internal/logging"
	"github.com/virtus-coach/coach/internal/mcpenvelope"
)

type fakeConversationStore struct {
	messages         []conversation.Message
	loadContextErr   error
	progress         conversation.StoredProgress
	saveProgressErr  error
	hasPriorRacePlan bool
}

func (f *fakeConversationStore) AppendMessages(ctx context.Context, conversationID string, msgs []conversation.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeConversationStore) LoadContext(ctx context.Context, conversationID string, limit int) ([]conversation.Message, error) {
	if f.loadContextErr != nil {
		return nil, f.loadContextErr
	}
	return f.messages, nil
}

func (f *fakeConversationStore) SaveProgress(ctx context.Context, conversationID string, progress conversation.Progress, expectedVersion int) (int, error) {
	if f.saveProgressErr != nil {
		return 0, f.saveProgressErr
	}
	f.progress = conversation.StoredProgress{Progress: progress, Version: expectedVersion + 1}
	return f.progress.Version, nil
}

func (f *fakeConversationStore) LoadProgress(ctx context.Context, conversationID string) (conversation.StoredProgress, error) {
	return f.progress, nil
}

func (f *fakeConversationStore) EnsureConversation(ctx context.Context, conversationID, userID string) error {
	return nil
}

func (f *fakeConversationStore) HasPriorRacePlan(ctx context.Context, userID string) (bool, error) {
	return f.hasPriorRacePlan, nil
}

type fakeCalendarStore struct {
	conflicts []calendar.Conflict
}

func (f *fakeCalendarStore) InsertPlan(ctx context.Context, planID string, sessions []calendar.MaterializedSession) ([]calendar.Conflict, error) {
	return f.conflicts, nil
}

func (f *fakeCalendarStore) ModifyDay(ctx context.Context, sessionID string, mod calendar.DayModification) error {
	return nil
}

func (f *fakeCalendarStore) Link(ctx context.Context, plannedID, activityID, method string, confidence float64) (calendar.SessionLink, error) {
	return calendar.SessionLink{}, nil
}

type fakeActivitySource struct {
	activities []activitysource.Activity
	err        error
}

func (f *fakeActivitySource) RecentActivities(ctx context.Context, userID string, since time.Time) ([]activitysource.Activity, error) {
	return f.activities, f.err
}

func newTestServer(convs *fakeConversationStore, cal *fakeCalendarStore, acts *fakeActivitySource) *Server {
	logger, _ := logging.New("test")
	if acts == nil {
		return New(convs, cal, nil, logger)
	}
	return New(convs, cal, acts, logger)
}

func callTool(t *testing.T, s *Server, tool string, args map[string]any) (int, mcpenvelope.Response) {
	t.Helper()
	body, err := json.Marshal(mcpenvelope.Request{Tool: tool, Arguments: args})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/mcp/tools/call", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var resp mcpenvelope.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return rec.Code, resp
}

func TestHandleCallUnknownToolIsInvalidInput(t *testing.T) {
	s := newTestServer(&fakeConversationStore{}, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "not_a_real_tool", nil)
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %+v", resp.Error)
	}
}

func TestHandleLoadContextDegradesToEmptyOnStoreError(t *testing.T) {
	convs := &fakeConversationStore{loadContextErr: context.DeadlineExceeded}
	s := newTestServer(convs, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "load_context", map[string]any{"conversation_id": "c1"})
	if resp.Error != nil {
		t.Fatalf("expected degraded success, got error %+v", resp.Error)
	}
	msgs, _ := resp.Result["messages"].([]any)
	if len(msgs) != 0 {
		t.Errorf("expected empty messages on degrade, got %v", msgs)
	}
}

func TestHandleLoadContextRequiresConversationID(t *testing.T) {
	s := newTestServer(&fakeConversationStore{}, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "load_context", map[string]any{})
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %+v", resp.Error)
	}
}

func TestHandleGetRecentActivitiesReportsHasPriorRacePlan(t *testing.T) {
	convs := &fakeConversationStore{hasPriorRacePlan: true}
	s := newTestServer(convs, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "get_recent_activities", map[string]any{"user_id": "u1"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if hasPlan, _ := resp.Result["has_prior_race_plan"].(bool); !hasPlan {
		t.Error("expected has_prior_race_plan = true")
	}
}

func TestHandleGetRecentActivitiesDegradesOnActivitySourceError(t *testing.T) {
	convs := &fakeConversationStore{}
	acts := &fakeActivitySource{err: context.DeadlineExceeded}
	s := newTestServer(convs, &fakeCalendarStore{}, acts)
	_, resp := callTool(t, s, "get_recent_activities", map[string]any{"user_id": "u1", "days": float64(7)})
	if resp.Error != nil {
		t.Fatalf("expected degraded success, got %+v", resp.Error)
	}
	acts2, _ := resp.Result["activities"].([]any)
	if len(acts2) != 0 {
		t.Errorf("expected empty activities on source error, got %v", acts2)
	}
}

func TestHandleGetRecentActivitiesRejectsNegativeDays(t *testing.T) {
	s := newTestServer(&fakeConversationStore{}, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "get_recent_activities", map[string]any{"user_id": "u1", "days": float64(-1)})
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidDays {
		t.Fatalf("expected INVALID_DAYS, got %+v", resp.Error)
	}
}

func TestHandleSaveProgressMapsVersionConflict(t *testing.T) {
	convs := &fakeConversationStore{saveProgressErr: conversation.ErrVersionConflict}
	s := newTestServer(convs, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "save_progress", map[string]any{
		"conversation_id": "c1", "progress": map[string]any{}, "expected_version": float64(0),
	})
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidInput {
		t.Fatalf("expected version conflict mapped to INVALID_INPUT, got %+v", resp.Error)
	}
}

func TestHandleSaveProgressRequiresProgressArgument(t *testing.T) {
	s := newTestServer(&fakeConversationStore{}, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "save_progress", map[string]any{"conversation_id": "c1"})
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %+v", resp.Error)
	}
}

func TestHandleSavePlannedSessionsRequiresNonEmptySessions(t *testing.T) {
	s := newTestServer(&fakeConversationStore{}, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "save_planned_sessions", map[string]any{"user_id": "u1", "plan_id": "p1", "sessions": []any{}})
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidSessionData {
		t.Fatalf("expected INVALID_SESSION_DATA, got %+v", resp.Error)
	}
}

func TestHandleSavePlannedSessionsInsertsAndReportsConflicts(t *testing.T) {
	cal := &fakeCalendarStore{conflicts: []calendar.Conflict{{SessionType: "easy", Reason: "completed"}}}
	s := newTestServer(&fakeConversationStore{}, cal, nil)
	_, resp := callTool(t, s, "save_planned_sessions", map[string]any{
		"user_id": "u1", "plan_id": "p1",
		"sessions": []any{
			map[string]any{"starts_at": "2026-03-02T07:00:00Z", "ends_at": "2026-03-02T08:00:00Z", "sport": "run", "session_type": "easy", "intent": "easy", "distance_meters": 8000.0},
		},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	conflicts, _ := resp.Result["conflicts"].([]any)
	if len(conflicts) != 1 {
		t.Errorf("expected 1 reported conflict, got %v", conflicts)
	}
}

func TestHandlePlanRaceBuildValidatesRaceDateFormat(t *testing.T) {
	s := newTestServer(&fakeConversationStore{}, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "plan_race_build", map[string]any{"race_distance": "marathon", "race_date": "not-a-date"})
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidRaceDate {
		t.Fatalf("expected INVALID_RACE_DATE, got %+v", resp.Error)
	}
}

func TestHandleAddWorkoutRequiresDescription(t *testing.T) {
	s := newTestServer(&fakeConversationStore{}, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "add_workout", map[string]any{})
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidWorkoutDescription {
		t.Fatalf("expected INVALID_WORKOUT_DESCRIPTION, got %+v", resp.Error)
	}
}

// Scenario: the mcp.Tool schema's declared Required fields are enforced
// ahead of dispatch: save_context's handler would report INVALID_MESSAGE, but
// the schema check rejects the missing user_message first.
func TestHandleCallRejectsMissingRequiredArgumentPerSchema(t *testing.T) {
	s := newTestServer(&fakeConversationStore{}, &fakeCalendarStore{}, nil)
	_, resp := callTool(t, s, "save_context", map[string]any{"conversation_id": "c1"})
	if resp.Error == nil || resp.Error.Code != mcpenvelope.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT for missing user_message, got %+v", resp.Error)
	}
}
