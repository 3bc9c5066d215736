package graph

import (
	"testing"

	"github.com/c360studio/workbench/workflow"
)

func testArtifacts() []*workflow.Artifact {
	return []*workflow.Artifact{
		{
			ID:     "ADR-001",
			Type:   workflow.ArtifactADR,
			Title:  "Use KV storage",
			Status: workflow.ArtifactStatusApproved,
			Links: []workflow.ArtifactLink{
				{Target: "SPEC-001", Relationship: workflow.RelTrackedBy},
			},
		},
		{
			ID:     "SPEC-001",
			Type:   workflow.ArtifactSpec,
			Title:  "Storage spec",
			Status: workflow.ArtifactStatusDraft,
			Links: []workflow.ArtifactLink{
				{Target: "PLAN-001", Relationship: workflow.RelCreates},
				{Target: "MISSING", Relationship: workflow.RelReferences},
			},
		},
		{
			ID:     "PLAN-001",
			Type:   workflow.ArtifactPlan,
			Title:  "Storage plan",
			Status: workflow.ArtifactStatusDraft,
		},
	}
}

func TestBuild(t *testing.T) {
	p := Build(testArtifacts())

	if len(p.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(p.Nodes))
	}
	// Edge to MISSING is dropped.
	if len(p.Edges) != 2 {
		t.Fatalf("edges = %v, want 2", p.Edges)
	}
	// Nodes are sorted by ID.
	if p.Nodes[0].ID != "ADR-001" || p.Nodes[2].ID != "SPEC-001" {
		t.Errorf("node order = %v, want sorted by ID", p.Nodes)
	}
}

func TestAdjacency(t *testing.T) {
	p := Build(testArtifacts())
	adj := p.Adjacency()

	if !adj["ADR-001"]["SPEC-001"] {
		t.Error("ADR-001 should neighbor SPEC-001")
	}
	if !adj["SPEC-001"]["ADR-001"] {
		t.Error("adjacency should be bidirectional")
	}
	if !adj["SPEC-001"]["PLAN-001"] {
		t.Error("SPEC-001 should neighbor PLAN-001")
	}
	if adj["ADR-001"]["PLAN-001"] {
		t.Error("ADR-001 should not neighbor PLAN-001")
	}
}

func TestNeighbors_Sorted(t *testing.T) {
	p := Build(testArtifacts())
	got := p.Neighbors("SPEC-001")
	want := []string{"ADR-001", "PLAN-001"}

	if len(got) != len(want) {
		t.Fatalf("Neighbors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Neighbors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNeighbors_Isolated(t *testing.T) {
	p := Build([]*workflow.Artifact{{ID: "LONER-001", Type: workflow.ArtifactADR}})
	if got := p.Neighbors("LONER-001"); got != nil {
		t.Errorf("Neighbors(isolated) = %v, want nil", got)
	}
}

func TestStyle_Selection(t *testing.T) {
	p := Build(testArtifacts())
	vs := NewViewState(p, "SPEC-001", "")
	styled := p.Style(vs)

	colors := map[string]string{}
	for _, n := range styled.Nodes {
		colors[n.ID] = n.Color
	}
	if colors["SPEC-001"] != colorSelected {
		t.Errorf("selected color = %q, want %q", colors["SPEC-001"], colorSelected)
	}
	if colors["ADR-001"] != colorNeighbor {
		t.Errorf("neighbor color = %q, want %q", colors["ADR-001"], colorNeighbor)
	}

	for _, e := range styled.Edges {
		if e.Width != 2.5 {
			t.Errorf("edge %v width = %v, want 2.5 (touches selection)", e.Edge, e.Width)
		}
	}
}

func TestStyle_NoSelectionUsesTypeColors(t *testing.T) {
	p := Build(testArtifacts())
	styled := p.Style(NewViewState(p, "", ""))

	for _, n := range styled.Nodes {
		if want := typeColors[n.Type]; n.Color != want {
			t.Errorf("node %s color = %q, want type color %q", n.ID, n.Color, want)
		}
	}
	for _, e := range styled.Edges {
		if e.Width != 1.0 {
			t.Errorf("edge width = %v, want 1.0", e.Width)
		}
	}
}

func TestStyle_Hover(t *testing.T) {
	p := Build(testArtifacts())
	styled := p.Style(NewViewState(p, "", "PLAN-001"))

	for _, n := range styled.Nodes {
		if n.ID == "PLAN-001" && n.Color != colorHovered {
			t.Errorf("hovered color = %q, want %q", n.Color, colorHovered)
		}
	}
}
