// Package workflow provides the Workbench workflow system for tracking
// design artifacts through a staged lifecycle.
package workflow

// Stage is a named phase in a workflow's lifecycle.
type Stage string

const (
	StageDiscussion Stage = "discussion"
	StageADR        Stage = "adr"
	StageSpec       Stage = "spec"
	StageContract   Stage = "contract"
	StagePlan       Stage = "plan"
	StageFragment   Stage = "fragment"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the stage is a member of the stage universe.
func (s Stage) IsValid() bool {
	switch s {
	case StageDiscussion, StageADR, StageSpec, StageContract, StagePlan, StageFragment:
		return true
	default:
		return false
	}
}

// Label returns the human-readable label for the stage.
func (s Stage) Label() string {
	switch s {
	case StageDiscussion:
		return "Discussion"
	case StageADR:
		return "ADR"
	case StageSpec:
		return "Spec"
	case StageContract:
		return "Contract"
	case StagePlan:
		return "Plan"
	case StageFragment:
		return "Fragment"
	default:
		return string(s)
	}
}

// StageOrder is the universal stage order. Per-type workflows select
// ordered subsets of it.
var StageOrder = []Stage{
	StageDiscussion,
	StageADR,
	StageSpec,
	StageContract,
	StagePlan,
	StageFragment,
}

// Type is a named recipe selecting which stages apply and their order.
type Type string

const (
	TypeFeature     Type = "feature"
	TypeBugfix      Type = "bugfix"
	TypeRefactor    Type = "refactor"
	TypeEnhancement Type = "enhancement"
)

// String returns the string representation of the workflow type.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the type is a known workflow type.
func (t Type) IsValid() bool {
	switch t {
	case TypeFeature, TypeBugfix, TypeRefactor, TypeEnhancement:
		return true
	default:
		return false
	}
}

// stageTable maps each workflow type to its ordered stage list.
var stageTable = map[Type][]Stage{
	TypeFeature:     {StageDiscussion, StageADR, StageSpec, StageContract, StagePlan, StageFragment},
	TypeBugfix:      {StagePlan, StageFragment},
	TypeRefactor:    {StageADR, StagePlan, StageFragment},
	TypeEnhancement: {StageSpec, StagePlan, StageFragment},
}

// Stages returns the ordered stage list for a workflow type.
// Unknown types return nil.
func Stages(t Type) []Stage {
	stages, ok := stageTable[t]
	if !ok {
		return nil
	}
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// StartingStage returns the first stage of a workflow type.
// Unknown types return the empty stage.
func StartingStage(t Type) Stage {
	stages := stageTable[t]
	if len(stages) == 0 {
		return ""
	}
	return stages[0]
}

// StageInWorkflow reports whether a stage is a member of the given
// workflow type's stage list.
func StageInWorkflow(s Stage, t Type) bool {
	for _, stage := range stageTable[t] {
		if stage == s {
			return true
		}
	}
	return false
}

// NextUniversalStage returns the stage that follows s in the universal
// order, or the empty stage when s is the last stage or unknown.
func NextUniversalStage(s Stage) Stage {
	for i, stage := range StageOrder {
		if stage == s {
			if i+1 < len(StageOrder) {
				return StageOrder[i+1]
			}
			return ""
		}
	}
	return ""
}
