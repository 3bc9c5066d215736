package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// memSession is an in-memory SessionStore for tests. It round-trips
// state through JSON so persistence bugs in struct tags surface here.
type memSession struct {
	data    []byte
	loadErr error
	saves   int
	clears  int
}

func (m *memSession) Load() (*State, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, nil
	}
	var s State
	if err := json.Unmarshal(m.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memSession) Save(s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

func (m *memSession) Clear() error {
	m.data = nil
	m.clears++
	return nil
}

func TestStore_StartWorkflow(t *testing.T) {
	session := &memSession{}
	store := NewStore(session, nil)

	if err := store.StartWorkflow(TypeFeature); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	state := store.State()
	if state.WorkflowType != TypeFeature {
		t.Errorf("WorkflowType = %q, want feature", state.WorkflowType)
	}
	if state.CurrentStage != StageDiscussion {
		t.Errorf("CurrentStage = %q, want discussion", state.CurrentStage)
	}
	if len(state.CompletedStages) != 0 {
		t.Errorf("CompletedStages = %v, want empty", state.CompletedStages)
	}
	if state.StartedAt.IsZero() {
		t.Error("StartedAt not stamped")
	}
	if session.saves != 1 {
		t.Errorf("saves = %d, want 1", session.saves)
	}
}

func TestStore_StartWorkflow_UnknownType(t *testing.T) {
	store := NewStore(&memSession{}, nil)
	if err := store.StartWorkflow(Type("hotfix")); err == nil {
		t.Error("expected error for unknown workflow type")
	}
}

func TestStore_AdvanceStage(t *testing.T) {
	store := NewStore(&memSession{}, nil)
	if err := store.StartWorkflow(TypeFeature); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	if err := store.AdvanceStage("DISC-001"); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}

	state := store.State()
	if len(state.CompletedStages) != 1 || state.CompletedStages[0] != StageDiscussion {
		t.Errorf("CompletedStages = %v, want [discussion]", state.CompletedStages)
	}
	if state.ArtifactIDs[StageDiscussion] != "DISC-001" {
		t.Errorf("ArtifactIDs[discussion] = %q, want DISC-001", state.ArtifactIDs[StageDiscussion])
	}
	if state.CurrentStage != StageADR {
		t.Errorf("CurrentStage = %q, want adr", state.CurrentStage)
	}
}

// Advancing walks the universal stage order. For refactor the stage
// after adr is spec, which is not in refactor's stage list; that is the
// preserved behavior, not a typo.
func TestStore_AdvanceStage_UniversalOrder(t *testing.T) {
	store := NewStore(&memSession{}, nil)
	if err := store.StartWorkflow(TypeRefactor); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	if err := store.AdvanceStage("ADR-001"); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}

	state := store.State()
	if state.CurrentStage != StageSpec {
		t.Errorf("CurrentStage = %q, want spec (universal order)", state.CurrentStage)
	}
	if StageInWorkflow(state.CurrentStage, TypeRefactor) {
		t.Error("expected current stage to fall outside refactor's stage list")
	}
}

func TestStore_AdvanceStage_NoActiveWorkflow(t *testing.T) {
	store := NewStore(&memSession{}, nil)
	if err := store.AdvanceStage("X-001"); err == nil {
		t.Error("expected error when no workflow is active")
	}
}

func TestStore_BugfixEndToEnd(t *testing.T) {
	store := NewStore(&memSession{}, nil)
	if err := store.StartWorkflow(TypeBugfix); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	stages := Stages(TypeBugfix)
	if len(stages) != 2 || stages[0] != StagePlan || stages[1] != StageFragment {
		t.Fatalf("bugfix stages = %v, want [plan fragment]", stages)
	}

	if err := store.AdvanceStage("PLAN-001"); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}

	state := store.State()
	if len(state.CompletedStages) != 1 || state.CompletedStages[0] != StagePlan {
		t.Errorf("CompletedStages = %v, want [plan]", state.CompletedStages)
	}
	if state.ArtifactIDs[StagePlan] != "PLAN-001" {
		t.Errorf("ArtifactIDs[plan] = %q, want PLAN-001", state.ArtifactIDs[StagePlan])
	}
	if state.CurrentStage != StageFragment {
		t.Errorf("CurrentStage = %q, want fragment", state.CurrentStage)
	}
}

func TestStore_RehydratesFromSession(t *testing.T) {
	session := &memSession{}
	store := NewStore(session, nil)
	if err := store.StartWorkflow(TypeFeature); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	if err := store.AdvanceStage("DISC-001"); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	before := store.State()

	// Simulate a reload: a fresh store over the same session storage.
	reloaded := NewStore(session, nil)
	after := reloaded.State()

	if after.WorkflowType != before.WorkflowType {
		t.Errorf("WorkflowType = %q, want %q", after.WorkflowType, before.WorkflowType)
	}
	if after.CurrentStage != before.CurrentStage {
		t.Errorf("CurrentStage = %q, want %q", after.CurrentStage, before.CurrentStage)
	}
	if len(after.ArtifactIDs) != len(before.ArtifactIDs) {
		t.Fatalf("ArtifactIDs = %v, want %v", after.ArtifactIDs, before.ArtifactIDs)
	}
	for k, v := range before.ArtifactIDs {
		if after.ArtifactIDs[k] != v {
			t.Errorf("ArtifactIDs[%q] = %q, want %q", k, after.ArtifactIDs[k], v)
		}
	}
}

func TestStore_CorruptedSessionDiscarded(t *testing.T) {
	session := &memSession{data: []byte("{not json")}
	store := NewStore(session, nil)

	state := store.State()
	if state.Active() {
		t.Error("expected default state after corrupted session data")
	}
	if session.clears != 1 {
		t.Errorf("clears = %d, want 1 (corrupted key removed)", session.clears)
	}
}

func TestStore_UnknownVersionDiscarded(t *testing.T) {
	session := &memSession{}
	stale := NewState()
	stale.Version = 99
	stale.WorkflowType = TypeFeature
	if err := session.Save(stale); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	session.clears = 0

	store := NewStore(session, nil)
	if store.State().Active() {
		t.Error("expected default state after version mismatch")
	}
	if session.clears != 1 {
		t.Errorf("clears = %d, want 1", session.clears)
	}
}

func TestStore_LoadErrorFallsBack(t *testing.T) {
	session := &memSession{loadErr: errors.New("disk gone")}
	store := NewStore(session, nil)
	if store.State().Active() {
		t.Error("expected default state when load fails")
	}
}

// Concurrent readers and writers must not race on the state maps; run
// with -race to check.
func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore(&memSession{}, nil)
	if err := store.StartWorkflow(TypeFeature); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.AdvanceStage(fmt.Sprintf("ART-%03d", n))
		}(i)
		go func() {
			defer wg.Done()
			_ = store.State()
		}()
	}
	wg.Wait()

	state := store.State()
	if len(state.CompletedStages) == 0 {
		t.Error("expected at least one completed stage")
	}
}

func TestStore_ResetWorkflow(t *testing.T) {
	session := &memSession{}
	store := NewStore(session, nil)
	if err := store.StartWorkflow(TypeBugfix); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	if err := store.ResetWorkflow(); err != nil {
		t.Fatalf("ResetWorkflow: %v", err)
	}
	if store.State().Active() {
		t.Error("expected inactive state after reset")
	}
	if session.data != nil {
		t.Error("expected session storage cleared after reset")
	}
}
