package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/living-library/loom/internal/pipeline"
)

type fakeRunner struct {
	lastWorkspace string
	lastInput     string
}

func (f *fakeRunner) Run(_ context.Context, workspaceID, input, userID string) (*pipeline.Response, error) {
	f.lastWorkspace = workspaceID
	f.lastInput = input
	return &pipeline.Response{RunID: "run-1", Success: true}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeRunner, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	runner := &fakeRunner{}
	server := NewServer(runner)
	return server, runner, server.Router()
}

func TestHealthLive(t *testing.T) {
	_, _, router := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRunPipeline(t *testing.T) {
	server, runner, router := newTestServer(t)

	body := `{"workspace_id": "alpha", "input": "hello", "user_id": "u1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/pipeline/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if runner.lastWorkspace != "alpha" || runner.lastInput != "hello" {
		t.Errorf("runner got workspace=%q input=%q", runner.lastWorkspace, runner.lastInput)
	}

	var resp pipeline.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RunID != "run-1" || !resp.Success {
		t.Errorf("unexpected response %+v", resp)
	}

	history := server.History()
	if len(history) != 1 || history[0].Type != "pipeline_run" {
		t.Errorf("expected one pipeline_run event, got %v", history)
	}
}

func TestRunRequiresInput(t *testing.T) {
	_, _, router := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/pipeline/run", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	server, _, router := newTestServer(t)
	server.record("pipeline_run", "u1", map[string]any{"run_id": "r1"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out struct {
		Events []Event `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Events) != 1 || out.Events[0].User != "u1" {
		t.Errorf("unexpected events %v", out.Events)
	}
}
