package workflow

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// StateKey is the persistence key for the serialized workflow state.
const StateKey = "workflow-manager-state"

// StateVersion is the storage schema version written with every state.
// Loaded states with a different version are discarded.
const StateVersion = 1

// State holds the progress of one active workflow session.
type State struct {
	// Version is the storage schema version.
	Version int `json:"version"`

	// WorkflowType is the active workflow recipe.
	WorkflowType Type `json:"workflow_type"`

	// CurrentStage is the stage the session is currently on.
	CurrentStage Stage `json:"current_stage"`

	// CompletedStages lists the stages completed so far, in order.
	CompletedStages []Stage `json:"completed_stages"`

	// ArtifactIDs maps each completed stage to the artifact it produced.
	ArtifactIDs map[Stage]string `json:"artifact_ids"`

	// StartedAt is when the workflow was started.
	StartedAt time.Time `json:"started_at"`
}

// NewState returns an empty state with no active workflow.
func NewState() *State {
	return &State{
		Version:         StateVersion,
		CompletedStages: []Stage{},
		ArtifactIDs:     map[Stage]string{},
	}
}

// Active reports whether a workflow has been started.
func (s State) Active() bool {
	return s.WorkflowType != ""
}

// SessionStore persists workflow state between sessions.
// Load returns (nil, nil) when no usable state is stored: absent and
// undecodable values are both treated as "no saved state".
type SessionStore interface {
	Load() (*State, error)
	Save(*State) error
	Clear() error
}

// Store holds the workflow state and persists every change.
// It is an explicit dependency: construct one and pass it to whatever
// needs workflow state, rather than sharing a package-level singleton.
// Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	state   *State
	session SessionStore
	logger  *slog.Logger
}

// NewStore creates a Store backed by the given session store, loading
// any previously saved state. A stored state that cannot be decoded or
// carries an unknown version is removed and replaced with the default.
func NewStore(session SessionStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		state:   NewState(),
		session: session,
		logger:  logger,
	}

	if session == nil {
		return s
	}

	loaded, err := session.Load()
	if err != nil || (loaded != nil && loaded.Version != StateVersion) {
		if err != nil {
			logger.Warn("Discarding unreadable workflow state", "error", err)
		} else {
			logger.Warn("Discarding workflow state with unknown version", "version", loaded.Version)
		}
		_ = session.Clear()
		return s
	}
	if loaded != nil {
		if loaded.ArtifactIDs == nil {
			loaded.ArtifactIDs = map[Stage]string{}
		}
		if loaded.CompletedStages == nil {
			loaded.CompletedStages = []Stage{}
		}
		s.state = loaded
	}

	return s
}

// State returns a copy of the current workflow state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *s.state
	out.CompletedStages = append([]Stage(nil), s.state.CompletedStages...)
	out.ArtifactIDs = make(map[Stage]string, len(s.state.ArtifactIDs))
	for k, v := range s.state.ArtifactIDs {
		out.ArtifactIDs[k] = v
	}
	return out
}

// StartWorkflow resets state and begins a new workflow of the given type.
func (s *Store) StartWorkflow(t Type) error {
	if !t.IsValid() {
		return fmt.Errorf("unknown workflow type: %s", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = NewState()
	s.state.WorkflowType = t
	s.state.CurrentStage = StartingStage(t)
	s.state.StartedAt = time.Now()

	return s.persist()
}

// AdvanceStage records the artifact produced by the current stage,
// marks the stage completed and moves to the next stage.
//
// Movement follows the universal stage order, not the per-type filtered
// order. For workflow types whose stage lists skip universal stages the
// next stage can fall outside the workflow's own list; this matches the
// behavior the stage table's consumers historically relied on and is
// logged when it happens.
func (s *Store) AdvanceStage(artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Active() {
		return fmt.Errorf("no active workflow")
	}

	current := s.state.CurrentStage
	s.state.ArtifactIDs[current] = artifactID
	s.state.CompletedStages = append(s.state.CompletedStages, current)

	next := NextUniversalStage(current)
	if next != "" && !StageInWorkflow(next, s.state.WorkflowType) {
		s.logger.Warn("Advanced to stage outside workflow's stage list",
			"workflow_type", s.state.WorkflowType,
			"from", current,
			"to", next)
	}
	s.state.CurrentStage = next

	return s.persist()
}

// ResetWorkflow clears the state and removes any persisted copy.
func (s *Store) ResetWorkflow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = NewState()
	if s.session != nil {
		if err := s.session.Clear(); err != nil {
			return fmt.Errorf("clear session store: %w", err)
		}
	}
	return nil
}

func (s *Store) persist() error {
	if s.session == nil {
		return nil
	}
	if err := s.session.Save(s.state); err != nil {
		return fmt.Errorf("save workflow state: %w", err)
	}
	return nil
}
