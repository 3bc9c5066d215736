package workflow

import (
	"testing"
)

func TestInvalidatedSteps_FromGenerate(t *testing.T) {
	got := InvalidatedSteps(StepData, StepGenerate)
	want := []Step{StepSuggest, StepContextMap, StepMetricsMap, StepValidate, StepPlan, StepGenerate}

	if len(got) != len(want) {
		t.Fatalf("InvalidatedSteps(data, generate) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("InvalidatedSteps(data, generate)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInvalidatedSteps_SameOrLater(t *testing.T) {
	tests := []struct {
		name    string
		target  Step
		current Step
	}{
		{"same_step", StepGenerate, StepGenerate},
		{"forward", StepGenerate, StepData},
		{"forward_adjacent", StepParseDRM, StepTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InvalidatedSteps(tt.target, tt.current); len(got) != 0 {
				t.Errorf("InvalidatedSteps(%q, %q) = %v, want empty", tt.target, tt.current, got)
			}
		})
	}
}

func TestInvalidatedSteps_AdjacentBackward(t *testing.T) {
	got := InvalidatedSteps(StepPlan, StepGenerate)
	if len(got) != 1 || got[0] != StepGenerate {
		t.Errorf("InvalidatedSteps(plan, generate) = %v, want [generate]", got)
	}
}

func TestInvalidatedSteps_UnknownStep(t *testing.T) {
	if got := InvalidatedSteps(Step("bogus"), StepGenerate); got != nil {
		t.Errorf("InvalidatedSteps(bogus, generate) = %v, want nil", got)
	}
}

func TestGroupForStep(t *testing.T) {
	tests := []struct {
		step Step
		want StepGroup
	}{
		{StepTemplate, GroupTemplate},
		{StepParseDRM, GroupTemplate},
		{StepEnvironment, GroupEnvironment},
		{StepData, GroupData},
		{StepSuggest, GroupMappings},
		{StepContextMap, GroupMappings},
		{StepMetricsMap, GroupMappings},
		{StepValidate, GroupValidation},
		{StepPlan, GroupValidation},
		{StepGenerate, GroupValidation},
	}

	for _, tt := range tests {
		if got := GroupForStep(tt.step); got != tt.want {
			t.Errorf("GroupForStep(%q) = %q, want %q", tt.step, got, tt.want)
		}
	}
}

func TestGroupsForSteps_Dedupes(t *testing.T) {
	steps := []Step{StepSuggest, StepContextMap, StepMetricsMap, StepValidate, StepPlan, StepGenerate}
	got := GroupsForSteps(steps)
	want := []StepGroup{GroupMappings, GroupValidation}

	if len(got) != len(want) {
		t.Fatalf("GroupsForSteps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GroupsForSteps[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStepGroupIsValid(t *testing.T) {
	for _, g := range []StepGroup{GroupTemplate, GroupEnvironment, GroupData, GroupMappings, GroupValidation} {
		if !g.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", g)
		}
	}
	for _, g := range []StepGroup{"", "bogus", "../secrets", "state/../other"} {
		if g.IsValid() {
			t.Errorf("IsValid(%q) = true, want false", g)
		}
	}
}

func TestStepIndex(t *testing.T) {
	if got := StepIndex(StepTemplate); got != 0 {
		t.Errorf("StepIndex(template) = %d, want 0", got)
	}
	if got := StepIndex(StepGenerate); got != 9 {
		t.Errorf("StepIndex(generate) = %d, want 9", got)
	}
	if got := StepIndex(Step("bogus")); got != -1 {
		t.Errorf("StepIndex(bogus) = %d, want -1", got)
	}
}
