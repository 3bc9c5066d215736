package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/workbench/workflow"
)

// stubAPI records requests and plays back canned responses.
type stubAPI struct {
	t        *testing.T
	requests []string
	respond  map[string]any // "METHOD path" -> response body
	status   map[string]int // "METHOD path" -> status override
}

func (s *stubAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.requests = append(s.requests, key)

		if status, ok := s.status[key]; ok {
			http.Error(w, "boom", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if body, ok := s.respond[key]; ok {
			json.NewEncoder(w).Encode(body)
			return
		}
		w.Write([]byte("{}"))
	})
}

func newStub(t *testing.T) (*stubAPI, *Client) {
	stub := &stubAPI{t: t, respond: map[string]any{}, status: map[string]int{}}
	ts := httptest.NewServer(stub.handler())
	t.Cleanup(ts.Close)
	return stub, New(ts.URL)
}

func TestWorkflowState(t *testing.T) {
	stub, c := newStub(t)
	stub.respond["GET /api/devtools/workflow/state"] = workflow.State{
		Version:      workflow.StateVersion,
		WorkflowType: workflow.TypeBugfix,
		CurrentStage: workflow.StagePlan,
	}

	state, err := c.WorkflowState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, workflow.TypeBugfix, state.WorkflowType)
	assert.Equal(t, workflow.StagePlan, state.CurrentStage)
}

func TestClearProjectState(t *testing.T) {
	stub, c := newStub(t)

	err := c.ClearProjectState(context.Background(), workflow.GroupMappings)
	require.NoError(t, err)
	require.Len(t, stub.requests, 1)
	assert.Equal(t, "POST /api/devtools/project/clear", stub.requests[0])
}

func TestRunValidation(t *testing.T) {
	stub, c := newStub(t)
	stub.respond["POST /api/devtools/validate"] = map[string]string{"result": "validated 3 artifacts, 0 problems"}

	result, err := c.RunValidation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "validated 3 artifacts, 0 problems", result)
}

// The client must satisfy workflow.Backend so rollback can drive it.
var _ workflow.Backend = (*Client)(nil)

func TestRollbackThroughClient(t *testing.T) {
	stub, c := newStub(t)
	stub.respond["POST /api/devtools/validate"] = map[string]string{"result": "clean"}

	controller := workflow.NewController(c, nil)
	require.NoError(t, controller.SetCurrent(workflow.StepGenerate))
	require.NoError(t, controller.Rollback(context.Background(), workflow.StepValidate))

	// Validation and plan/generate share one group; it is cleared once,
	// then validation re-runs.
	assert.Equal(t, []string{
		"POST /api/devtools/project/clear",
		"POST /api/devtools/validate",
	}, stub.requests)
	assert.Equal(t, "clean", controller.ValidationResult())
}

func TestErrorExtraction(t *testing.T) {
	stub, c := newStub(t)
	stub.status["GET /api/devtools/artifacts/ADR-404"] = http.StatusNotFound

	_, err := c.GetArtifact(context.Background(), "ADR-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestStartWorkflow(t *testing.T) {
	stub, c := newStub(t)
	stub.respond["POST /api/devtools/workflow/start"] = workflow.State{
		Version:      workflow.StateVersion,
		WorkflowType: workflow.TypeFeature,
		CurrentStage: workflow.StageDiscussion,
	}

	state, err := c.StartWorkflow(context.Background(), workflow.TypeFeature)
	require.NoError(t, err)
	assert.Equal(t, workflow.StageDiscussion, state.CurrentStage)
}
