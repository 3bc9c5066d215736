package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/workbench/graph"
	"github.com/c360studio/workbench/schema"
	"github.com/c360studio/workbench/storage"
	"github.com/c360studio/workbench/workflow"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// RegisterHTTPHandlers registers all API handlers under the given prefix.
// The prefix should be the path segment without a trailing slash
// (e.g. "api/devtools"). Handlers are registered as:
//
//	GET  <prefix>/artifacts
//	POST <prefix>/artifacts
//	GET  <prefix>/artifacts/{id}
//	PUT  <prefix>/artifacts/{id}
//	GET  <prefix>/schemas/{type}
//	GET  <prefix>/graph
//	GET  <prefix>/workflow/state
//	POST <prefix>/workflow/start
//	POST <prefix>/workflow/advance
//	POST <prefix>/workflow/reset
//	POST <prefix>/project/clear
//	POST <prefix>/validate
//	GET  <prefix>/render/{id}
//	GET  <prefix>/health
func (s *Server) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: ensure leading slash and trailing slash.
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"artifacts", s.handleArtifacts)
	mux.HandleFunc(prefix+"artifacts/", s.handleArtifact(prefix+"artifacts/"))
	mux.HandleFunc(prefix+"schemas/", s.handleSchema(prefix+"schemas/"))
	mux.HandleFunc(prefix+"graph", s.handleGraph)
	mux.HandleFunc(prefix+"workflow/state", s.handleWorkflowState)
	mux.HandleFunc(prefix+"workflow/start", s.handleWorkflowStart)
	mux.HandleFunc(prefix+"workflow/advance", s.handleWorkflowAdvance)
	mux.HandleFunc(prefix+"workflow/reset", s.handleWorkflowReset)
	mux.HandleFunc(prefix+"project/clear", s.handleProjectClear)
	mux.HandleFunc(prefix+"validate", s.handleValidate)
	mux.HandleFunc(prefix+"render/", s.handleRender(prefix+"render/"))
	mux.HandleFunc(prefix+"health", s.handleHealth)
}

// ----------------------------------------------------------------------------
// GET/POST /api/devtools/artifacts
// ----------------------------------------------------------------------------

// ArtifactsResponse is the artifact list payload.
type ArtifactsResponse struct {
	Artifacts []*workflow.Artifact `json:"artifacts"`
}

// CreateArtifactRequest is the request body for POST /artifacts.
type CreateArtifactRequest struct {
	Artifact *workflow.Artifact `json:"artifact"`
	Content  string             `json:"content,omitempty"`
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		artifacts, err := s.store.ListArtifacts(r.Context())
		if err != nil {
			s.logger.Error("List artifacts failed", "error", err)
			http.Error(w, "Failed to list artifacts", http.StatusInternalServerError)
			return
		}
		if artifacts == nil {
			artifacts = []*workflow.Artifact{}
		}
		writeJSON(w, http.StatusOK, ArtifactsResponse{Artifacts: artifacts})

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req CreateArtifactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Artifact == nil || !req.Artifact.Type.IsValid() {
			http.Error(w, "artifact.type is required", http.StatusBadRequest)
			return
		}

		id, err := s.store.CreateArtifact(r.Context(), req.Artifact)
		if err != nil {
			s.logger.Error("Create artifact failed", "error", err)
			http.Error(w, "Failed to create artifact", http.StatusInternalServerError)
			return
		}
		if req.Content != "" {
			if err := s.store.WriteContent(r.Context(), req.Artifact, []byte(req.Content)); err != nil {
				s.logger.Error("Write artifact content failed", "id", id, "error", err)
				http.Error(w, "Failed to write artifact content", http.StatusInternalServerError)
				return
			}
		}
		s.metrics.artifactWrites.Inc()

		s.publishGraphEntity(r, req.Artifact)
		s.hub.Broadcast("artifact.created", map[string]string{"id": id})

		writeJSON(w, http.StatusCreated, map[string]*workflow.Artifact{"artifact": req.Artifact})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ----------------------------------------------------------------------------
// GET/PUT /api/devtools/artifacts/{id}
// ----------------------------------------------------------------------------

// ArtifactResponse is the artifact detail payload.
type ArtifactResponse struct {
	Artifact *workflow.Artifact `json:"artifact"`
	Content  string             `json:"content"`
}

// PutArtifactRequest is the request body for PUT /artifacts/{id}.
type PutArtifactRequest struct {
	Content string                  `json:"content"`
	Status  workflow.ArtifactStatus `json:"status,omitempty"`
}

func (s *Server) handleArtifact(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, route)
		if id == "" || strings.Contains(id, "/") {
			http.Error(w, "Invalid artifact ID", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			a, err := s.store.GetArtifact(r.Context(), id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					http.Error(w, "Artifact not found", http.StatusNotFound)
					return
				}
				s.logger.Error("Get artifact failed", "id", id, "error", err)
				http.Error(w, "Failed to get artifact", http.StatusInternalServerError)
				return
			}

			var content string
			if data, err := s.store.ReadContent(r.Context(), a); err == nil {
				content = string(data)
			}
			writeJSON(w, http.StatusOK, ArtifactResponse{Artifact: a, Content: content})

		case http.MethodPut:
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
			var req PutArtifactRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			a, err := s.store.GetArtifact(r.Context(), id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					http.Error(w, "Artifact not found", http.StatusNotFound)
					return
				}
				s.logger.Error("Get artifact failed", "id", id, "error", err)
				http.Error(w, "Failed to get artifact", http.StatusInternalServerError)
				return
			}

			if req.Status != "" {
				if err := s.store.UpdateArtifactStatus(r.Context(), id, req.Status); err != nil {
					http.Error(w, err.Error(), http.StatusConflict)
					return
				}
				a.Status = req.Status
			}
			if req.Content != "" {
				if err := s.store.WriteContent(r.Context(), a, []byte(req.Content)); err != nil {
					s.logger.Error("Write artifact content failed", "id", id, "error", err)
					http.Error(w, "Failed to write artifact content", http.StatusInternalServerError)
					return
				}
			}
			s.metrics.artifactWrites.Inc()

			s.publishGraphEntity(r, a)
			s.hub.Broadcast("artifact.updated", map[string]string{"id": id})

			writeJSON(w, http.StatusOK, map[string]*workflow.Artifact{"artifact": a})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// publishGraphEntity pushes the artifact into the knowledge graph when a
// NATS connection is configured. Failures are logged, never fatal.
func (s *Server) publishGraphEntity(r *http.Request, a *workflow.Artifact) {
	if err := graph.PublishArtifact(r.Context(), s.nc, a); err != nil {
		s.logger.Warn("Graph entity publish failed", "id", a.ID, "error", err)
	}
}

// ----------------------------------------------------------------------------
// GET /api/devtools/schemas/{type}
// ----------------------------------------------------------------------------

func (s *Server) handleSchema(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		artifactType := strings.TrimPrefix(r.URL.Path, route)
		raw, ok := schema.BuiltinJSON(artifactType)
		if !ok {
			http.Error(w, "Unknown artifact type: "+artifactType, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
	}
}

// ----------------------------------------------------------------------------
// GET /api/devtools/graph
// ----------------------------------------------------------------------------

// handleGraph returns the styled artifact relationship graph. Optional
// query parameters "selected" and "hovered" drive highlight styling.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	artifacts, err := s.store.ListArtifacts(r.Context())
	if err != nil {
		s.logger.Error("List artifacts failed", "error", err)
		http.Error(w, "Failed to build graph", http.StatusInternalServerError)
		return
	}

	projection := graph.Build(artifacts)
	vs := graph.NewViewState(projection, r.URL.Query().Get("selected"), r.URL.Query().Get("hovered"))
	writeJSON(w, http.StatusOK, projection.Style(vs))
}

// ----------------------------------------------------------------------------
// Workflow state transitions
// ----------------------------------------------------------------------------

func (s *Server) handleWorkflowState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state := s.sessions.State()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWorkflowStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.sessions.StartWorkflow(workflow.Type(req.Type)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state := s.sessions.State()
	s.hub.Broadcast("workflow.started", state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWorkflowAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req struct {
		ArtifactID string `json:"artifact_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.sessions.AdvanceStage(req.ArtifactID); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.metrics.stageAdvances.Inc()

	state := s.sessions.State()
	s.hub.Broadcast("workflow.advanced", state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWorkflowReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.sessions.ResetWorkflow(); err != nil {
		s.logger.Error("Workflow reset failed", "error", err)
		http.Error(w, "Failed to reset workflow", http.StatusInternalServerError)
		return
	}

	s.hub.Broadcast("workflow.reset", nil)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ----------------------------------------------------------------------------
// POST /api/devtools/project/clear
// ----------------------------------------------------------------------------

// ClearRequest is the request body for POST /project/clear.
type ClearRequest struct {
	Group workflow.StepGroup `json:"group"`
}

// handleProjectClear drops the server-side derived state for one step
// group. Rollback walks the affected groups and calls this once per
// group.
func (s *Server) handleProjectClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req ClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// The group names the state file to delete, so anything outside the
	// known set is rejected before it reaches the filesystem.
	if !req.Group.IsValid() {
		http.Error(w, "unknown step group: "+string(req.Group), http.StatusBadRequest)
		return
	}

	statePath := filepath.Join(s.cfg.DataPath(), "state", string(req.Group)+".json")
	if err := os.Remove(statePath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Clear project state failed", "group", req.Group, "error", err)
		http.Error(w, "Failed to clear project state", http.StatusInternalServerError)
		return
	}

	s.metrics.projectClears.Inc()

	if req.Group == workflow.GroupValidation {
		s.mu.Lock()
		s.validation = ""
		s.mu.Unlock()
	}

	s.logger.Info("Project state cleared", "group", req.Group)
	s.hub.Broadcast("project.cleared", map[string]string{"group": string(req.Group)})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ----------------------------------------------------------------------------
// POST /api/devtools/validate
// ----------------------------------------------------------------------------

// ValidateResponse is the response from POST /validate.
type ValidateResponse struct {
	Result   string   `json:"result"`
	Problems []string `json:"problems,omitempty"`
}

// handleValidate checks every JSON artifact against its schema by
// rendering it, caches the summary, and returns it.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.validationRuns.Inc()

	artifacts, err := s.store.ListArtifacts(r.Context())
	if err != nil {
		s.logger.Error("List artifacts failed", "error", err)
		http.Error(w, "Failed to run validation", http.StatusInternalServerError)
		return
	}

	var problems []string
	checked := 0
	for _, a := range artifacts {
		if a.FileFormat != "json" {
			continue
		}
		in, err := interpreterFor(a.Type)
		if err != nil {
			continue
		}
		data, err := s.store.ReadContent(r.Context(), a)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: content unreadable", a.ID))
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid JSON: %v", a.ID, err))
			continue
		}
		if _, err := in.Render(doc); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", a.ID, err))
			continue
		}
		checked++
	}

	result := fmt.Sprintf("validated %d artifacts, %d problems", checked, len(problems))
	s.mu.Lock()
	s.validation = result
	s.mu.Unlock()

	s.logger.Info("Validation complete", "checked", checked, "problems", len(problems))
	s.hub.Broadcast("validation.completed", map[string]string{"result": result})
	writeJSON(w, http.StatusOK, ValidateResponse{Result: result, Problems: problems})
}

// ----------------------------------------------------------------------------
// GET /api/devtools/render/{id}
// ----------------------------------------------------------------------------

// handleRender returns the schema-interpreted Markdown for a JSON
// artifact. Markdown artifacts are returned as-is.
func (s *Server) handleRender(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := strings.TrimPrefix(r.URL.Path, route)
		a, err := s.store.GetArtifact(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Artifact not found", http.StatusNotFound)
				return
			}
			s.logger.Error("Get artifact failed", "id", id, "error", err)
			http.Error(w, "Failed to get artifact", http.StatusInternalServerError)
			return
		}

		data, err := s.store.ReadContent(r.Context(), a)
		if err != nil {
			http.Error(w, "Artifact has no content", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")

		if a.FileFormat != "json" {
			w.Write(data)
			return
		}

		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			http.Error(w, "Artifact content is not valid JSON", http.StatusUnprocessableEntity)
			return
		}

		in, err := interpreterFor(a.Type)
		if err != nil {
			http.Error(w, "No schema for artifact type: "+string(a.Type), http.StatusNotFound)
			return
		}
		nodes, err := in.Render(doc)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Write([]byte(schema.WriteMarkdown(nodes)))
	}
}

// ----------------------------------------------------------------------------
// GET /api/devtools/health
// ----------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	validation := s.validation
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"nats_connected":  s.nc != nil && s.nc.IsConnected(),
		"last_validation": validation,
	})
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing to recover.
		_ = err
	}
}
