// Package client provides a thin typed client for the Workbench REST API.
// Every call takes a context and makes exactly one request; there is no
// retry policy. Failures surface as wrapped errors for the caller to
// display.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/c360studio/workbench/graph"
	"github.com/c360studio/workbench/schema"
	"github.com/c360studio/workbench/workflow"
)

// APIPrefix is the path prefix all endpoints live under.
const APIPrefix = "/api/devtools"

// Client calls the Workbench REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8713").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ArtifactResponse is the artifact detail payload.
type ArtifactResponse struct {
	Artifact *workflow.Artifact `json:"artifact"`
	Content  string             `json:"content"`
}

// GetArtifact fetches one artifact and its content.
func (c *Client) GetArtifact(ctx context.Context, id string) (*ArtifactResponse, error) {
	var out ArtifactResponse
	if err := c.get(ctx, "/artifacts/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListArtifacts fetches all artifacts.
func (c *Client) ListArtifacts(ctx context.Context) ([]*workflow.Artifact, error) {
	var out struct {
		Artifacts []*workflow.Artifact `json:"artifacts"`
	}
	if err := c.get(ctx, "/artifacts", &out); err != nil {
		return nil, err
	}
	return out.Artifacts, nil
}

// PutArtifact replaces an artifact's content.
func (c *Client) PutArtifact(ctx context.Context, id, content string) error {
	body := map[string]string{"content": content}
	return c.do(ctx, http.MethodPut, "/artifacts/"+url.PathEscape(id), body, nil)
}

// CreateArtifact creates a new artifact and returns its stored form.
func (c *Client) CreateArtifact(ctx context.Context, a *workflow.Artifact, content string) (*workflow.Artifact, error) {
	req := struct {
		Artifact *workflow.Artifact `json:"artifact"`
		Content  string             `json:"content"`
	}{a, content}
	var out struct {
		Artifact *workflow.Artifact `json:"artifact"`
	}
	if err := c.do(ctx, http.MethodPost, "/artifacts", req, &out); err != nil {
		return nil, err
	}
	return out.Artifact, nil
}

// GetSchema fetches the JSON Schema for an artifact type.
func (c *Client) GetSchema(ctx context.Context, artifactType string) (*schema.Document, error) {
	raw, err := c.getRaw(ctx, "/schemas/"+url.PathEscape(artifactType))
	if err != nil {
		return nil, err
	}
	return schema.Parse(raw)
}

// GetGraph fetches the styled artifact graph. selected and hovered may
// be empty.
func (c *Client) GetGraph(ctx context.Context, selected, hovered string) (*graph.StyledProjection, error) {
	path := "/graph"
	q := url.Values{}
	if selected != "" {
		q.Set("selected", selected)
	}
	if hovered != "" {
		q.Set("hovered", hovered)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out graph.StyledProjection
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WorkflowState fetches the current workflow state.
func (c *Client) WorkflowState(ctx context.Context) (*workflow.State, error) {
	var out workflow.State
	if err := c.get(ctx, "/workflow/state", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartWorkflow starts a workflow of the given type.
func (c *Client) StartWorkflow(ctx context.Context, t workflow.Type) (*workflow.State, error) {
	var out workflow.State
	if err := c.do(ctx, http.MethodPost, "/workflow/start", map[string]string{"type": string(t)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdvanceStage records an artifact for the current stage and advances.
func (c *Client) AdvanceStage(ctx context.Context, artifactID string) (*workflow.State, error) {
	var out workflow.State
	if err := c.do(ctx, http.MethodPost, "/workflow/advance", map[string]string{"artifact_id": artifactID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetWorkflow clears the workflow state.
func (c *Client) ResetWorkflow(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/workflow/reset", nil, nil)
}

// ClearProjectState clears backend state for a coarse step group.
// Satisfies workflow.Backend.
func (c *Client) ClearProjectState(ctx context.Context, group workflow.StepGroup) error {
	return c.do(ctx, http.MethodPost, "/project/clear", map[string]string{"group": string(group)}, nil)
}

// RunValidation re-runs validation and returns its result.
// Satisfies workflow.Backend.
func (c *Client) RunValidation(ctx context.Context) (string, error) {
	var out struct {
		Result string `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/validate", nil, &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// Render fetches the schema-interpreted Markdown rendering of an artifact.
func (c *Client) Render(ctx context.Context, id string) (string, error) {
	raw, err := c.getRaw(ctx, "/render/"+url.PathEscape(id))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Health checks the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

// ----------------------------------------------------------------------------
// Internals
// ----------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+APIPrefix+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(path, resp)
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+APIPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError extracts a message from a non-2xx response body.
func apiError(path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("%s: %s", path, msg)
}
