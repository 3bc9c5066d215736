package storage

import (
	"context"

	"github.com/c360studio/workbench/workflow"
)

// ArtifactStore is the artifact storage surface shared by the NATS KV
// store and the file store. Callers hold this interface; construction
// picks the backend.
type ArtifactStore interface {
	CreateArtifact(ctx context.Context, a *workflow.Artifact) (string, error)
	GetArtifact(ctx context.Context, id string) (*workflow.Artifact, error)
	UpdateArtifact(ctx context.Context, a *workflow.Artifact) error
	UpdateArtifactStatus(ctx context.Context, id string, target workflow.ArtifactStatus) error
	ListArtifacts(ctx context.Context) ([]*workflow.Artifact, error)
	ReadContent(ctx context.Context, a *workflow.Artifact) ([]byte, error)
	WriteContent(ctx context.Context, a *workflow.Artifact, content []byte) error
}

var (
	_ ArtifactStore = (*Store)(nil)
	_ ArtifactStore = (*FileStore)(nil)
)
