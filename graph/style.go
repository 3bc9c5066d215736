package graph

import (
	"github.com/c360studio/workbench/workflow"
)

// ViewState carries the selection and hover context styling depends on.
// Styling is a pure function of this state plus the relationship type;
// it is recomputed per render, which is acceptable for the graph sizes
// the tool handles (tens to low hundreds of nodes).
type ViewState struct {
	SelectedID string
	HoveredID  string

	// adjacency of the selected node, for neighbor highlighting
	neighbors map[string]bool
}

// NewViewState builds a view state, precomputing the selected node's
// neighborhood from the projection.
func NewViewState(p *Projection, selectedID, hoveredID string) *ViewState {
	vs := &ViewState{
		SelectedID: selectedID,
		HoveredID:  hoveredID,
		neighbors:  map[string]bool{},
	}
	if selectedID != "" && p != nil {
		for _, n := range p.Neighbors(selectedID) {
			vs.neighbors[n] = true
		}
	}
	return vs
}

// Node colors by artifact type, with overrides for selection state.
const (
	colorSelected = "#f59e0b"
	colorNeighbor = "#fbbf24"
	colorDimmed   = "#4b5563"
	colorHovered  = "#60a5fa"
)

var typeColors = map[workflow.ArtifactType]string{
	workflow.ArtifactDiscussion: "#a78bfa",
	workflow.ArtifactADR:        "#34d399",
	workflow.ArtifactSpec:       "#38bdf8",
	workflow.ArtifactPlan:       "#fb7185",
	workflow.ArtifactContract:   "#facc15",
}

// Relationship colors and widths for edges.
var relationshipColors = map[workflow.Relationship]string{
	workflow.RelImplements: "#34d399",
	workflow.RelCreates:    "#38bdf8",
	workflow.RelReferences: "#9ca3af",
	workflow.RelTrackedBy:  "#f472b6",
}

// NodeColor returns the display color for a node.
func (vs *ViewState) NodeColor(n Node) string {
	switch {
	case n.ID == vs.SelectedID:
		return colorSelected
	case n.ID == vs.HoveredID:
		return colorHovered
	case vs.SelectedID != "" && vs.neighbors[n.ID]:
		return colorNeighbor
	case vs.SelectedID != "":
		return colorDimmed
	default:
		if c, ok := typeColors[n.Type]; ok {
			return c
		}
		return colorDimmed
	}
}

// EdgeColor returns the display color for an edge.
func (vs *ViewState) EdgeColor(e Edge) string {
	if vs.SelectedID != "" && e.Source != vs.SelectedID && e.Target != vs.SelectedID {
		return colorDimmed
	}
	if c, ok := relationshipColors[e.Relationship]; ok {
		return c
	}
	return colorDimmed
}

// EdgeWidth returns the display width for an edge. Edges touching the
// selected node render wider.
func (vs *ViewState) EdgeWidth(e Edge) float64 {
	if vs.SelectedID != "" && (e.Source == vs.SelectedID || e.Target == vs.SelectedID) {
		return 2.5
	}
	return 1.0
}

// StyledNode is a node with its computed display attributes.
type StyledNode struct {
	Node
	Color string `json:"color"`
}

// StyledEdge is an edge with its computed display attributes.
type StyledEdge struct {
	Edge
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// StyledProjection is the projection with per-element styling applied
// for a given view state, as served to graph clients.
type StyledProjection struct {
	Nodes []StyledNode `json:"nodes"`
	Edges []StyledEdge `json:"edges"`
}

// Style applies the view state to every node and edge.
func (p *Projection) Style(vs *ViewState) *StyledProjection {
	out := &StyledProjection{
		Nodes: make([]StyledNode, 0, len(p.Nodes)),
		Edges: make([]StyledEdge, 0, len(p.Edges)),
	}
	for _, n := range p.Nodes {
		out.Nodes = append(out.Nodes, StyledNode{Node: n, Color: vs.NodeColor(n)})
	}
	for _, e := range p.Edges {
		out.Edges = append(out.Edges, StyledEdge{Edge: e, Color: vs.EdgeColor(e), Width: vs.EdgeWidth(e)})
	}
	return out
}
