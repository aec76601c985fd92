// Package promptserver implements the Prompt tool server (C3): a minimal
// HTTP server exposing read-only prompt-file access, with strict filename
// validation against path traversal (spec.md §6).
package promptserver

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/virtus-coach/coach/internal/logging"
	"github.com/virtus-coach/coach/internal/mcpenvelope"
)

var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

const orchestratorPromptFile = "orchestrator.md"

// Server serves prompt files from a fixed root directory.
type Server struct {
	root   string
	logger *logging.Logger
	engine *gin.Engine
}

// New builds a Server rooted at promptDir.
func New(promptDir string, logger *logging.Logger) *Server {
	s := &Server{root: promptDir, logger: logger}

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

func (s *Server) handleCall(c *gin.Context) {
	var req mcpenvelope.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidInput, Message: "malformed request body"},
		})
		return
	}

	if msg := validateAgainstSchema(req.Tool, req.Arguments); msg != nil {
		c.JSON(http.StatusOK, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidInput, Message: *msg},
		})
		return
	}

	switch req.Tool {
	case "load_orchestrator_prompt":
		s.respondWithFile(c, orchestratorPromptFile)
	case "load_prompt":
		filename, _ := req.Arguments["filename"].(string)
		s.respondWithFile(c, filename)
	default:
		c.JSON(http.StatusNotFound, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidInput, Message: "unknown tool " + req.Tool},
		})
	}
}

func (s *Server) respondWithFile(c *gin.Context, filename string) {
	if !filenamePattern.MatchString(filename) {
		c.JSON(http.StatusOK, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidFilename, Message: "filename must match ^[A-Za-z0-9_.-]+$"},
		})
		return
	}

	path := filepath.Join(s.root, filename)
	// Belt-and-suspenders: even though filenamePattern already rejects
	// path separators, confirm the resolved path stays under root before
	// opening it.
	if rel, err := filepath.Rel(s.root, path); err != nil || rel == ".." || len(rel) >= 2 && rel[:2] == ".." {
		c.JSON(http.StatusOK, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeInvalidFilename, Message: "filename resolves outside the prompt directory"},
		})
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, mcpenvelope.Response{
				Error: &mcpenvelope.Error{Code: mcpenvelope.CodeFileNotFound, Message: "prompt file not found"},
			})
			return
		}
		c.JSON(http.StatusOK, mcpenvelope.Response{
			Error: &mcpenvelope.Error{Code: mcpenvelope.CodeReadError, Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, mcpenvelope.Response{Result: map[string]any{"content": string(content)}})
}
