// Package collab is the HTTP collaboration front end. It is an external
// collaborator to the core: it only ever runs a pipeline and reads back the
// final context, and it keeps an in-memory history of collaboration events.
package collab

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/living-library/loom/internal/pipeline"
)

// Runner executes one pipeline run against a workspace.
type Runner interface {
	Run(ctx context.Context, workspaceID, input, userID string) (*pipeline.Response, error)
}

// Event is one recorded collaboration event.
type Event struct {
	Type      string         `json:"type"`
	User      string         `json:"user,omitempty"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Server fronts a Runner with a small HTTP API.
type Server struct {
	runner Runner

	mu      sync.Mutex
	history []Event
}

// NewServer builds a server over the given runner.
func NewServer(runner Runner) *Server {
	return &Server{runner: runner}
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health/live", s.handleLive)

	v1 := r.Group("/v1")
	v1.POST("/pipeline/run", s.handleRun)
	v1.GET("/history", s.handleHistory)

	return r
}

type runRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Input       string `json:"input" binding:"required"`
	UserID      string `json:"user_id"`
}

func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "error": err.Error()})
		return
	}
	if req.WorkspaceID == "" {
		req.WorkspaceID = "default"
	}

	resp, err := s.runner.Run(c.Request.Context(), req.WorkspaceID, req.Input, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "STORAGE", "error": err.Error()})
		return
	}

	s.record("pipeline_run", req.UserID, map[string]any{
		"workspace_id": req.WorkspaceID,
		"run_id":       resp.RunID,
		"success":      resp.Success,
	})
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c *gin.Context) {
	s.mu.Lock()
	events := append([]Event(nil), s.history...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// History returns a snapshot of recorded events.
func (s *Server) History() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.history...)
}

func (s *Server) record(eventType, user string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Event{
		Type:      eventType,
		User:      user,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}
