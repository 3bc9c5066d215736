package workflow

import (
	"testing"
)

func TestStartingStage_IsFirstStage(t *testing.T) {
	for _, wt := range []Type{TypeFeature, TypeBugfix, TypeRefactor, TypeEnhancement} {
		t.Run(string(wt), func(t *testing.T) {
			stages := Stages(wt)
			if len(stages) == 0 {
				t.Fatalf("Stages(%q) returned no stages", wt)
			}
			if got := StartingStage(wt); got != stages[0] {
				t.Errorf("StartingStage(%q) = %q, want %q", wt, got, stages[0])
			}
		})
	}
}

func TestStageInWorkflow_MatchesStageList(t *testing.T) {
	for _, wt := range []Type{TypeFeature, TypeBugfix, TypeRefactor, TypeEnhancement} {
		members := make(map[Stage]bool)
		for _, s := range Stages(wt) {
			members[s] = true
		}
		for _, s := range StageOrder {
			if got := StageInWorkflow(s, wt); got != members[s] {
				t.Errorf("StageInWorkflow(%q, %q) = %v, want %v", s, wt, got, members[s])
			}
		}
	}
}

func TestStages_KnownTables(t *testing.T) {
	tests := []struct {
		wt   Type
		want []Stage
	}{
		{TypeFeature, []Stage{StageDiscussion, StageADR, StageSpec, StageContract, StagePlan, StageFragment}},
		{TypeBugfix, []Stage{StagePlan, StageFragment}},
		{TypeRefactor, []Stage{StageADR, StagePlan, StageFragment}},
		{TypeEnhancement, []Stage{StageSpec, StagePlan, StageFragment}},
	}

	for _, tt := range tests {
		t.Run(string(tt.wt), func(t *testing.T) {
			got := Stages(tt.wt)
			if len(got) != len(tt.want) {
				t.Fatalf("Stages(%q) = %v, want %v", tt.wt, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Stages(%q)[%d] = %q, want %q", tt.wt, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStages_UnknownType(t *testing.T) {
	if got := Stages(Type("hotfix")); got != nil {
		t.Errorf("Stages(unknown) = %v, want nil", got)
	}
	if got := StartingStage(Type("hotfix")); got != "" {
		t.Errorf("StartingStage(unknown) = %q, want empty", got)
	}
}

func TestNextUniversalStage(t *testing.T) {
	tests := []struct {
		from Stage
		want Stage
	}{
		{StageDiscussion, StageADR},
		{StageADR, StageSpec},
		{StageSpec, StageContract},
		{StageContract, StagePlan},
		{StagePlan, StageFragment},
		{StageFragment, ""},
		{Stage("unknown"), ""},
	}

	for _, tt := range tests {
		if got := NextUniversalStage(tt.from); got != tt.want {
			t.Errorf("NextUniversalStage(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestStages_ReturnsCopy(t *testing.T) {
	got := Stages(TypeBugfix)
	got[0] = StageDiscussion
	if again := Stages(TypeBugfix); again[0] != StagePlan {
		t.Error("Stages returned a slice aliasing the internal table")
	}
}
