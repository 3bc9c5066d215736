// Package storage provides artifact and session storage for Workbench
// using NATS KV, with a file-backed store for local use.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/workbench/workflow"
)

// Bucket names.
const (
	BucketArtifacts = "WORKBENCH_ARTIFACTS"
	BucketContent   = "WORKBENCH_CONTENT"
	BucketSessions  = "WORKBENCH_SESSIONS"
)

// NewArtifactID generates a unique artifact ID prefixed with its type.
func NewArtifactID(t workflow.ArtifactType) string {
	return fmt.Sprintf("%s-%s", t, uuid.New().String())
}

// Store provides entity storage operations backed by NATS KV.
type Store struct {
	artifacts jetstream.KeyValue
	content   jetstream.KeyValue
	sessions  jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context,
// creating the KV buckets if they don't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	artifacts, err := getOrCreateBucket(ctx, js, BucketArtifacts)
	if err != nil {
		return nil, fmt.Errorf("create artifacts bucket: %w", err)
	}

	content, err := getOrCreateBucket(ctx, js, BucketContent)
	if err != nil {
		return nil, fmt.Errorf("create content bucket: %w", err)
	}

	sessions, err := getOrCreateBucket(ctx, js, BucketSessions)
	if err != nil {
		return nil, fmt.Errorf("create sessions bucket: %w", err)
	}

	return &Store{
		artifacts: artifacts,
		content:   content,
		sessions:  sessions,
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Workbench %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// CreateArtifact stores a new artifact, generating its ID when empty.
func (s *Store) CreateArtifact(ctx context.Context, a *workflow.Artifact) (string, error) {
	if a.ID == "" {
		a.ID = NewArtifactID(a.Type)
	}
	if a.Status == "" {
		a.Status = workflow.ArtifactStatusDraft
	}
	a.UpdatedDate = time.Now()

	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}

	if _, err := s.artifacts.Create(ctx, a.ID, data); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}

	return a.ID, nil
}

// GetArtifact retrieves an artifact by ID.
func (s *Store) GetArtifact(ctx context.Context, id string) (*workflow.Artifact, error) {
	entry, err := s.artifacts.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get artifact: %w", err)
	}

	var a workflow.Artifact
	if err := json.Unmarshal(entry.Value(), &a); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}

	return &a, nil
}

// UpdateArtifact updates an existing artifact.
func (s *Store) UpdateArtifact(ctx context.Context, a *workflow.Artifact) error {
	a.UpdatedDate = time.Now()

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	if _, err := s.artifacts.Put(ctx, a.ID, data); err != nil {
		return fmt.Errorf("update artifact: %w", err)
	}

	return nil
}

// UpdateArtifactStatus transitions an artifact's status, enforcing the
// status lifecycle. Artifacts are never deleted on unlock, only
// transitioned.
func (s *Store) UpdateArtifactStatus(ctx context.Context, id string, target workflow.ArtifactStatus) error {
	a, err := s.GetArtifact(ctx, id)
	if err != nil {
		return err
	}

	if !a.Status.CanTransitionTo(target) {
		return fmt.Errorf("invalid status transition: %s to %s", a.Status, target)
	}

	a.Status = target
	return s.UpdateArtifact(ctx, a)
}

// ListArtifacts returns all artifacts. Entries that fail to load or
// decode are skipped.
func (s *Store) ListArtifacts(ctx context.Context) ([]*workflow.Artifact, error) {
	keys, err := s.artifacts.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list artifact keys: %w", err)
	}

	artifacts := make([]*workflow.Artifact, 0, len(keys))
	for _, key := range keys {
		entry, err := s.artifacts.Get(ctx, key)
		if err != nil {
			continue
		}
		var a workflow.Artifact
		if err := json.Unmarshal(entry.Value(), &a); err != nil {
			continue
		}
		artifacts = append(artifacts, &a)
	}

	return artifacts, nil
}

// ListArtifactsByType returns all artifacts of one type.
func (s *Store) ListArtifactsByType(ctx context.Context, t workflow.ArtifactType) ([]*workflow.Artifact, error) {
	all, err := s.ListArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*workflow.Artifact, 0)
	for _, a := range all {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out, nil
}

// ReadContent reads an artifact's content from the content bucket.
func (s *Store) ReadContent(ctx context.Context, a *workflow.Artifact) ([]byte, error) {
	entry, err := s.content.Get(ctx, a.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get artifact content: %w", err)
	}
	return entry.Value(), nil
}

// WriteContent stores an artifact's content and bumps the artifact's
// updated timestamp.
func (s *Store) WriteContent(ctx context.Context, a *workflow.Artifact, content []byte) error {
	if _, err := s.content.Put(ctx, a.ID, content); err != nil {
		return fmt.Errorf("put artifact content: %w", err)
	}
	return s.UpdateArtifact(ctx, a)
}

// KVSession adapts the sessions bucket to workflow.SessionStore.
type KVSession struct {
	kv  jetstream.KeyValue
	ctx context.Context
}

// Session returns a SessionStore over the sessions bucket. The context
// bounds every storage call made through the returned store.
func (s *Store) Session(ctx context.Context) *KVSession {
	return &KVSession{kv: s.sessions, ctx: ctx}
}

// Load reads the persisted workflow state, returning (nil, nil) when
// none is stored.
func (k *KVSession) Load() (*workflow.State, error) {
	entry, err := k.kv.Get(k.ctx, workflow.StateKey)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get workflow state: %w", err)
	}

	var state workflow.State
	if err := json.Unmarshal(entry.Value(), &state); err != nil {
		return nil, fmt.Errorf("unmarshal workflow state: %w", err)
	}
	return &state, nil
}

// Save persists the workflow state.
func (k *KVSession) Save(state *workflow.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal workflow state: %w", err)
	}
	if _, err := k.kv.Put(k.ctx, workflow.StateKey, data); err != nil {
		return fmt.Errorf("put workflow state: %w", err)
	}
	return nil
}

// Clear removes the persisted workflow state.
func (k *KVSession) Clear() error {
	if err := k.kv.Delete(k.ctx, workflow.StateKey); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete workflow state: %w", err)
	}
	return nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
