// Package graph projects artifacts and their declared relationships
// into a read-only node/edge view for visualization and publishes
// entity updates for downstream graph consumers.
package graph

import (
	"sort"

	"github.com/c360studio/workbench/workflow"
)

// Node is one artifact in the projection.
type Node struct {
	ID       string                  `json:"id"`
	Type     workflow.ArtifactType   `json:"type"`
	Label    string                  `json:"label"`
	Status   workflow.ArtifactStatus `json:"status"`
	FilePath string                  `json:"file_path"`
}

// Edge is one directed relationship between two artifacts.
type Edge struct {
	Source       string                `json:"source"`
	Target       string                `json:"target"`
	Relationship workflow.Relationship `json:"relationship"`
}

// Projection is the derived graph view. It is rebuilt from the artifact
// list on each fetch, never updated incrementally.
type Projection struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build projects artifacts into nodes and edges. Edges pointing at
// artifacts absent from the input are dropped so the view never shows
// dangling links.
func Build(artifacts []*workflow.Artifact) *Projection {
	p := &Projection{
		Nodes: make([]Node, 0, len(artifacts)),
		Edges: []Edge{},
	}

	present := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		present[a.ID] = true
	}

	for _, a := range artifacts {
		p.Nodes = append(p.Nodes, Node{
			ID:       a.ID,
			Type:     a.Type,
			Label:    a.Title,
			Status:   a.Status,
			FilePath: a.FilePath,
		})
		for _, link := range a.Links {
			if !present[link.Target] || !link.Relationship.IsValid() {
				continue
			}
			p.Edges = append(p.Edges, Edge{
				Source:       a.ID,
				Target:       link.Target,
				Relationship: link.Relationship,
			})
		}
	}

	sort.Slice(p.Nodes, func(i, j int) bool { return p.Nodes[i].ID < p.Nodes[j].ID })
	return p
}

// Adjacency maps each node ID to the set of its neighbors, in either
// edge direction. Recomputed from the full edge list; an O(E) scan.
func (p *Projection) Adjacency() map[string]map[string]bool {
	adj := make(map[string]map[string]bool, len(p.Nodes))
	add := func(from, to string) {
		if adj[from] == nil {
			adj[from] = make(map[string]bool)
		}
		adj[from][to] = true
	}
	for _, e := range p.Edges {
		add(e.Source, e.Target)
		add(e.Target, e.Source)
	}
	return adj
}

// Neighbors returns the sorted neighbor IDs of a node.
func (p *Projection) Neighbors(id string) []string {
	set := p.Adjacency()[id]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
