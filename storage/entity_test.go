package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/c360studio/workbench/workflow"
)

func TestNewArtifactID(t *testing.T) {
	id := NewArtifactID(workflow.ArtifactADR)

	if !strings.HasPrefix(id, "adr-") {
		t.Errorf("id = %q, want adr- prefix", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "adr-")); err != nil {
		t.Errorf("id suffix is not a UUID: %v", err)
	}
}

func TestNewArtifactID_Unique(t *testing.T) {
	a := NewArtifactID(workflow.ArtifactSpec)
	b := NewArtifactID(workflow.ArtifactSpec)
	if a == b {
		t.Error("expected distinct IDs")
	}
}
