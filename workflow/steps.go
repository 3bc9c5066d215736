package workflow

// Step is a named step in the aggregation pipeline stepper.
type Step string

const (
	StepTemplate    Step = "template"
	StepParseDRM    Step = "parse_drm"
	StepEnvironment Step = "environment"
	StepData        Step = "data"
	StepSuggest     Step = "suggest"
	StepContextMap  Step = "context_map"
	StepMetricsMap  Step = "metrics_map"
	StepValidate    Step = "validate"
	StepPlan        Step = "plan"
	StepGenerate    Step = "generate"
)

// StepOrder is the fixed pipeline step sequence.
var StepOrder = []Step{
	StepTemplate,
	StepParseDRM,
	StepEnvironment,
	StepData,
	StepSuggest,
	StepContextMap,
	StepMetricsMap,
	StepValidate,
	StepPlan,
	StepGenerate,
}

// Label returns the human-readable label for a step.
func (s Step) Label() string {
	switch s {
	case StepTemplate:
		return "Template"
	case StepParseDRM:
		return "Parse Requirements Manifest"
	case StepEnvironment:
		return "Environment"
	case StepData:
		return "Data"
	case StepSuggest:
		return "Suggestions"
	case StepContextMap:
		return "Context Mapping"
	case StepMetricsMap:
		return "Metrics Mapping"
	case StepValidate:
		return "Validation"
	case StepPlan:
		return "Plan"
	case StepGenerate:
		return "Generate"
	default:
		return string(s)
	}
}

// StepIndex returns the position of a step in StepOrder, or -1 when the
// step is unknown.
func StepIndex(s Step) int {
	for i, step := range StepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// StepGroup is the coarse backend state grouping for pipeline steps.
// The step-to-group mapping is many-to-one: clearing a group discards
// backend state for every step in it.
type StepGroup string

const (
	GroupTemplate    StepGroup = "template"
	GroupEnvironment StepGroup = "environment"
	GroupData        StepGroup = "data"
	GroupMappings    StepGroup = "mappings"
	GroupValidation  StepGroup = "validation"
)

// IsValid reports whether g is one of the defined step groups.
func (g StepGroup) IsValid() bool {
	switch g {
	case GroupTemplate, GroupEnvironment, GroupData, GroupMappings, GroupValidation:
		return true
	}
	return false
}

// stepGroups maps each step to its coarse backend group.
var stepGroups = map[Step]StepGroup{
	StepTemplate:    GroupTemplate,
	StepParseDRM:    GroupTemplate,
	StepEnvironment: GroupEnvironment,
	StepData:        GroupData,
	StepSuggest:     GroupMappings,
	StepContextMap:  GroupMappings,
	StepMetricsMap:  GroupMappings,
	StepValidate:    GroupValidation,
	StepPlan:        GroupValidation,
	StepGenerate:    GroupValidation,
}

// GroupForStep returns the coarse backend group a step belongs to.
func GroupForStep(s Step) StepGroup {
	return stepGroups[s]
}

// InvalidatedSteps returns the ordered steps that lose their work when
// navigating from current back to target: every step strictly after
// target through current inclusive. Navigating forward or to the
// current step invalidates nothing.
func InvalidatedSteps(target, current Step) []Step {
	targetIdx := StepIndex(target)
	currentIdx := StepIndex(current)
	if targetIdx < 0 || currentIdx < 0 || targetIdx >= currentIdx {
		return nil
	}
	out := make([]Step, 0, currentIdx-targetIdx)
	out = append(out, StepOrder[targetIdx+1:currentIdx+1]...)
	return out
}

// GroupsForSteps returns the deduplicated coarse groups covering the
// given steps, in first-appearance order.
func GroupsForSteps(steps []Step) []StepGroup {
	seen := make(map[StepGroup]bool, len(steps))
	var out []StepGroup
	for _, s := range steps {
		g := GroupForStep(s)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
