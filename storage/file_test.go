package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/workbench/workflow"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestFileStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateArtifact(context.Background(), &workflow.Artifact{
		Type:  workflow.ArtifactADR,
		Title: "Use KV storage",
	})
	if err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated ID")
	}

	got, err := store.GetArtifact(context.Background(), id)
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if got.Title != "Use KV storage" {
		t.Errorf("Title = %q, want %q", got.Title, "Use KV storage")
	}
	if got.Status != workflow.ArtifactStatusDraft {
		t.Errorf("Status = %q, want draft", got.Status)
	}
	if got.UpdatedDate.IsZero() {
		t.Error("UpdatedDate not stamped")
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetArtifact(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileStore_CreateDuplicate(t *testing.T) {
	store := newTestStore(t)
	a := &workflow.Artifact{ID: "ADR-001", Type: workflow.ArtifactADR}
	if _, err := store.CreateArtifact(context.Background(), a); err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}
	if _, err := store.CreateArtifact(context.Background(), &workflow.Artifact{ID: "ADR-001", Type: workflow.ArtifactADR}); err == nil {
		t.Error("expected error for duplicate ID")
	}
}

func TestFileStore_StatusTransitions(t *testing.T) {
	store := newTestStore(t)
	id, err := store.CreateArtifact(context.Background(), &workflow.Artifact{Type: workflow.ArtifactSpec})
	if err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}

	if err := store.UpdateArtifactStatus(context.Background(), id, workflow.ArtifactStatusReview); err != nil {
		t.Fatalf("draft→review: %v", err)
	}
	if err := store.UpdateArtifactStatus(context.Background(), id, workflow.ArtifactStatusApproved); err != nil {
		t.Fatalf("review→approved: %v", err)
	}
	// Unlock: approved goes back to draft, never deleted.
	if err := store.UpdateArtifactStatus(context.Background(), id, workflow.ArtifactStatusDraft); err != nil {
		t.Fatalf("approved→draft: %v", err)
	}
	if _, err := store.GetArtifact(context.Background(), id); err != nil {
		t.Fatalf("artifact gone after unlock: %v", err)
	}

	// draft → approved skips review and is rejected.
	if err := store.UpdateArtifactStatus(context.Background(), id, workflow.ArtifactStatusApproved); err == nil {
		t.Error("expected invalid transition draft→approved")
	}
}

func TestFileStore_ListSkipsUndecodable(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateArtifact(context.Background(), &workflow.Artifact{ID: "ADR-001", Type: workflow.ArtifactADR}); err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}

	garbage := filepath.Join(store.Root(), ArtifactsDir, "broken.json")
	if err := os.WriteFile(garbage, []byte("{nope"), 0644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	list, err := store.ListArtifacts(context.Background())
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(list) != 1 || list[0].ID != "ADR-001" {
		t.Errorf("ListArtifacts = %v, want just ADR-001", list)
	}
}

func TestFileStore_ContentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	a := &workflow.Artifact{ID: "SPEC-001", Type: workflow.ArtifactSpec, FileFormat: "md"}
	if _, err := store.CreateArtifact(context.Background(), a); err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}

	if err := store.WriteContent(context.Background(), a, []byte("# Spec\n")); err != nil {
		t.Fatalf("WriteContent: %v", err)
	}
	if a.FilePath == "" {
		t.Fatal("expected FilePath assigned")
	}

	got, err := store.ReadContent(context.Background(), a)
	if err != nil {
		t.Fatalf("ReadContent: %v", err)
	}
	if string(got) != "# Spec\n" {
		t.Errorf("content = %q", got)
	}
}

// JSON artifact content must not share a file with the artifact's
// metadata: writing content and then updating metadata has to leave
// both intact, and the content file must not show up as a stray
// artifact in listings.
func TestFileStore_JSONContentSeparateFromMetadata(t *testing.T) {
	store := newTestStore(t)
	a := &workflow.Artifact{ID: "ADR-001", Type: workflow.ArtifactADR, Title: "Use KV storage", FileFormat: "json"}
	if _, err := store.CreateArtifact(context.Background(), a); err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}

	content := `{"title": "Use KV storage", "status": "accepted"}`
	if err := store.WriteContent(context.Background(), a, []byte(content)); err != nil {
		t.Fatalf("WriteContent: %v", err)
	}
	if a.FilePath == store.artifactPath(a.ID) {
		t.Fatalf("content path %q collides with metadata path", a.FilePath)
	}

	got, err := store.ReadContent(context.Background(), a)
	if err != nil {
		t.Fatalf("ReadContent: %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}

	meta, err := store.GetArtifact(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if meta.Title != "Use KV storage" {
		t.Errorf("Title = %q, metadata overwritten by content write", meta.Title)
	}

	list, err := store.ListArtifacts(context.Background())
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(list) != 1 || list[0].ID != "ADR-001" {
		t.Errorf("ListArtifacts = %v, want just ADR-001", list)
	}
}

func TestFileStore_ContentPathMustBeLocal(t *testing.T) {
	store := newTestStore(t)
	a := &workflow.Artifact{ID: "ADR-001", Type: workflow.ArtifactADR, FilePath: "../escape.md"}

	if err := store.WriteContent(context.Background(), a, []byte("x")); err == nil {
		t.Error("expected error writing content outside the store root")
	}
	if _, err := store.ReadContent(context.Background(), a); err == nil {
		t.Error("expected error reading content outside the store root")
	}
}

func TestFileSession_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	session := store.Session()

	state := workflow.NewState()
	state.WorkflowType = workflow.TypeFeature
	state.CurrentStage = workflow.StageADR
	state.ArtifactIDs[workflow.StageDiscussion] = "DISC-001"

	if err := session.Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := session.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.WorkflowType != workflow.TypeFeature || loaded.CurrentStage != workflow.StageADR {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.ArtifactIDs[workflow.StageDiscussion] != "DISC-001" {
		t.Errorf("ArtifactIDs = %v", loaded.ArtifactIDs)
	}
}

func TestFileSession_AbsentIsNil(t *testing.T) {
	session := newTestStore(t).Session()
	state, err := session.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil", state)
	}
}

func TestFileSession_ClearIdempotent(t *testing.T) {
	session := newTestStore(t).Session()
	if err := session.Clear(); err != nil {
		t.Errorf("Clear on absent state: %v", err)
	}
	if err := session.Save(workflow.NewState()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := session.Clear(); err != nil {
		t.Errorf("Clear: %v", err)
	}
	if state, _ := session.Load(); state != nil {
		t.Error("state survived Clear")
	}
}

// The workflow store over a file session discards corrupted files.
func TestFileSession_CorruptedDiscarded(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.Root(), SessionFile)
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	wf := workflow.NewStore(store.Session(), nil)
	if wf.State().Active() {
		t.Error("expected default state from corrupted session file")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected corrupted session file removed")
	}
}
