package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/workbench/workflow"
)

// Directory layout under the workbench root.
const (
	ArtifactsDir = "artifacts"
	ContentDir   = "content"
	SessionFile  = workflow.StateKey + ".json"
)

// FileStore is a file-backed store rooted at a .workbench directory,
// for local CLI use and tests. Artifact metadata lives in one JSON file
// per artifact under artifacts/; content lives under content/,
// addressed by the artifact's FilePath. Keeping the two apart matters
// for JSON artifacts, whose content file would otherwise share a path
// with the metadata file.
type FileStore struct {
	root string
}

// NewFileStore creates a file store rooted at the given directory,
// creating the layout if needed.
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{ArtifactsDir, ContentDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", dir, err)
		}
	}
	return &FileStore{root: root}, nil
}

// Root returns the store's root directory.
func (f *FileStore) Root() string {
	return f.root
}

func (f *FileStore) artifactPath(id string) string {
	return filepath.Join(f.root, ArtifactsDir, id+".json")
}

// CreateArtifact stores a new artifact, generating its ID when empty.
func (f *FileStore) CreateArtifact(_ context.Context, a *workflow.Artifact) (string, error) {
	if a.ID == "" {
		a.ID = NewArtifactID(a.Type)
	}
	if a.Status == "" {
		a.Status = workflow.ArtifactStatusDraft
	}
	a.UpdatedDate = time.Now()

	if _, err := os.Stat(f.artifactPath(a.ID)); err == nil {
		return "", fmt.Errorf("artifact already exists: %s", a.ID)
	}
	if err := f.writeArtifact(a); err != nil {
		return "", err
	}
	return a.ID, nil
}

// GetArtifact retrieves an artifact by ID.
func (f *FileStore) GetArtifact(_ context.Context, id string) (*workflow.Artifact, error) {
	data, err := os.ReadFile(f.artifactPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var a workflow.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return &a, nil
}

// UpdateArtifact updates an existing artifact.
func (f *FileStore) UpdateArtifact(_ context.Context, a *workflow.Artifact) error {
	a.UpdatedDate = time.Now()
	return f.writeArtifact(a)
}

// UpdateArtifactStatus transitions an artifact's status, enforcing the
// status lifecycle.
func (f *FileStore) UpdateArtifactStatus(ctx context.Context, id string, target workflow.ArtifactStatus) error {
	a, err := f.GetArtifact(ctx, id)
	if err != nil {
		return err
	}
	if !a.Status.CanTransitionTo(target) {
		return fmt.Errorf("invalid status transition: %s to %s", a.Status, target)
	}
	a.Status = target
	return f.UpdateArtifact(ctx, a)
}

// ListArtifacts returns all artifacts sorted by ID. Undecodable files
// are skipped.
func (f *FileStore) ListArtifacts(_ context.Context) ([]*workflow.Artifact, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, ArtifactsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	artifacts := make([]*workflow.Artifact, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.root, ArtifactsDir, e.Name()))
		if err != nil {
			continue
		}
		var a workflow.Artifact
		if err := json.Unmarshal(data, &a); err != nil {
			continue
		}
		artifacts = append(artifacts, &a)
	}

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].ID < artifacts[j].ID })
	return artifacts, nil
}

// ReadContent reads an artifact's content file.
func (f *FileStore) ReadContent(_ context.Context, a *workflow.Artifact) ([]byte, error) {
	if a.FilePath == "" {
		return nil, fmt.Errorf("artifact %s has no content file", a.ID)
	}
	if !filepath.IsLocal(a.FilePath) {
		return nil, fmt.Errorf("artifact %s has non-local content path: %s", a.ID, a.FilePath)
	}
	data, err := os.ReadFile(filepath.Join(f.root, a.FilePath))
	if err != nil {
		return nil, fmt.Errorf("read artifact content: %w", err)
	}
	return data, nil
}

// WriteContent writes an artifact's content file, assigning a default
// FilePath when the artifact has none.
func (f *FileStore) WriteContent(ctx context.Context, a *workflow.Artifact, content []byte) error {
	if a.FilePath == "" {
		ext := "md"
		if a.FileFormat != "" {
			ext = a.FileFormat
		}
		a.FilePath = filepath.Join(ContentDir, fmt.Sprintf("%s.%s", a.ID, ext))
	}
	if !filepath.IsLocal(a.FilePath) {
		return fmt.Errorf("artifact %s has non-local content path: %s", a.ID, a.FilePath)
	}
	path := filepath.Join(f.root, a.FilePath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create content directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write artifact content: %w", err)
	}
	return f.UpdateArtifact(ctx, a)
}

func (f *FileStore) writeArtifact(a *workflow.Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(f.artifactPath(a.ID), data, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// FileSession is a file-backed workflow.SessionStore.
type FileSession struct {
	path string
}

// Session returns a SessionStore persisting to the store's root.
func (f *FileStore) Session() *FileSession {
	return &FileSession{path: filepath.Join(f.root, SessionFile)}
}

// Load reads the persisted workflow state, returning (nil, nil) when
// none is stored.
func (s *FileSession) Load() (*workflow.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workflow state: %w", err)
	}

	var state workflow.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal workflow state: %w", err)
	}
	return &state, nil
}

// Save persists the workflow state.
func (s *FileSession) Save(state *workflow.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workflow state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write workflow state: %w", err)
	}
	return nil
}

// Clear removes the persisted workflow state.
func (s *FileSession) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove workflow state: %w", err)
	}
	return nil
}
