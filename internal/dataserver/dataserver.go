// Package dataserver implements the Data tool server (C2): the
// out-of-process HTTP server exposing conversation/activity/session
// operations (spec.md §4.1, §6). Its composition-root shape — build
// stores, register handlers, serve — is adapted from
// HendryAvila-Hoofy/internal/server/server.go's New() pattern, with the
// transport changed from stdio MCP JSON-RPC to the spec's HTTP envelope.
package dataserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtus-coach/coach/internal/activitysource"
	"github.com/virtus-coach/coach/internal/calendar"
	"github.com/virtus-coach/coach/internal/conversation"
	"github.com/virtus-coach/coach/internal/logging"
	"github.com/virtus-coach/coach/internal/mcpenvelope"
)

// Server wires the conversation and calendar stores behind the MCP
// envelope. Subsystem degradation follows the teacher's pattern: a missing
// activity source logs a warning and serves get_recent_activities with an
// empty result rather than failing the whole server.
type Server struct {
	conversations conversation.Store
	sessions      calendar.Store
	activities    activitysource.Source // optional; nil degrades gracefully
	logger        *logging.Logger
	engine        *gin.Engine
}

// New builds a Server. activities may be nil (spec.md §1: activity
// ingestion is an external collaborator, interface only).
func New(conversations conversation.Store, sessions calendar.Store, activities activitysource.Source, logger *logging.Logger) *Server {
	s := &Server{conversations: conversations, sessions: sessions, activities: activities, logger: logger}

	if activities == nil {
		logger.Warn("dataserver: no activity source configured, get_recent_activities will degrade to empty")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/mcp/tools/call", s.handleCall)
	s.engine = engine
	return s
}

// Run starts the HTTP listener, blocking until it exits.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

var handlers = map[string]func(*Server, map[string]any) (map[string]any, *mcpenvelope.Error){
	"load_context":          (*Server).handleLoadContext,
	"save_context":          (*Server).handleSaveContext,
	"save_progress":         (*Server).handleSaveProgress,
	"load_progress":         (*Server).handleLoadProgress,
	"get_recent_activities": (*Server).handleGetRecentActivities,
	"save_planned_sessions": (*Server).handleSavePlannedSessions,
	"plan_race_build":       (*Server).handlePlanRaceBuild,
	"plan_season":           (*Server).handlePlanSeason,
	"add_workout":           (*Server).handleAddWorkout,
}

func (s *Server) handleCall(c *gin.Context) {
	var req mcpenvelope.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidInput, Message: "malformed request body"},
		})
		return
	}

	handler, ok := handlers[req.Tool]
	if !ok {
		c.JSON(http.StatusNotFound, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidInput, Message: "unknown tool " + req.Tool},
		})
		return
	}

	if msg := validateAgainstSchema(req.Tool, req.Arguments); msg != nil {
		c.JSON(http.StatusOK, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidInput, Message: *msg},
		})
		return
	}

	result, toolErr := handler(s, req.Arguments)
	if toolErr != nil {
		c.JSON(http.StatusOK, mcpenvelope.Response{Error: toolErr})
		return
	}
	c.JSON(http.StatusOK, mcpenvelope.Response{Result: result})
}
