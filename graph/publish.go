package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/workbench/workflow"
)

// IngestSubject is the NATS subject graph consumers listen on.
const IngestSubject = "graph.ingest.entity"

// Triple is one subject/predicate/object statement about an entity.
type Triple struct {
	Subject   string    `json:"subject"`
	Predicate string    `json:"predicate"`
	Object    string    `json:"object"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// EntityIngestMessage is the wire format for graph ingestion.
type EntityIngestMessage struct {
	ID        string    `json:"id"`
	Triples   []Triple  `json:"triples"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Predicates for artifact entities.
const (
	PredTitle    = "workbench.artifact.title"
	PredType     = "workbench.artifact.type"
	PredStatus   = "workbench.artifact.status"
	PredFilePath = "workbench.artifact.file_path"
	PredLink     = "workbench.artifact.link"
)

// ArtifactEntityID returns the graph entity ID for an artifact.
func ArtifactEntityID(id string) string {
	return "workbench:artifact:" + id
}

// PublishArtifact publishes an artifact entity to the knowledge graph.
// A nil connection skips publishing; the graph feed is optional.
func PublishArtifact(ctx context.Context, nc *nats.Conn, a *workflow.Artifact) error {
	if nc == nil {
		return nil
	}

	entityID := ArtifactEntityID(a.ID)
	now := time.Now()

	triple := func(pred, obj string) Triple {
		return Triple{
			Subject:   entityID,
			Predicate: pred,
			Object:    obj,
			Source:    "workbench",
			Timestamp: now,
		}
	}

	triples := []Triple{
		triple(PredTitle, a.Title),
		triple(PredType, string(a.Type)),
		triple(PredStatus, string(a.Status)),
		triple(PredFilePath, a.FilePath),
	}
	for _, link := range a.Links {
		triples = append(triples, Triple{
			Subject:   entityID,
			Predicate: PredLink + "." + string(link.Relationship),
			Object:    ArtifactEntityID(link.Target),
			Source:    "workbench",
			Timestamp: now,
		})
	}

	msg := EntityIngestMessage{
		ID:        entityID,
		Triples:   triples,
		UpdatedAt: now,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal entity message: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := nc.Publish(IngestSubject, data); err != nil {
		return fmt.Errorf("publish entity: %w", err)
	}
	return nil
}
