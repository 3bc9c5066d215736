package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/workbench/workflow"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workflow progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			state, err := c.WorkflowState(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(formatWorkflowStatus(state))
			return nil
		},
	}
}

// formatWorkflowStatus renders workflow progress as Markdown.
func formatWorkflowStatus(state *workflow.State) string {
	var sb strings.Builder

	if !state.Active() {
		sb.WriteString("No active workflow.\n\n")
		sb.WriteString("Start one with `workbench start <type>`. Types: ")
		for i, t := range []workflow.Type{workflow.TypeFeature, workflow.TypeBugfix, workflow.TypeRefactor, workflow.TypeEnhancement} {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(string(t))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("## %s workflow\n\n", state.WorkflowType))
	sb.WriteString(fmt.Sprintf("**Started**: %s\n\n", state.StartedAt.Format("2006-01-02 15:04")))

	completed := make(map[workflow.Stage]bool, len(state.CompletedStages))
	for _, s := range state.CompletedStages {
		completed[s] = true
	}

	sb.WriteString("| Stage | Status | Artifact |\n")
	sb.WriteString("|-------|--------|----------|\n")
	for _, stage := range workflow.Stages(state.WorkflowType) {
		marker := " "
		switch {
		case completed[stage]:
			marker = "done"
		case stage == state.CurrentStage:
			marker = "current"
		default:
			marker = "pending"
		}
		artifact := state.ArtifactIDs[stage]
		if artifact == "" {
			artifact = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", stage.Label(), marker, artifact))
	}

	if !state.CurrentStage.IsValid() {
		sb.WriteString("\nWorkflow complete.\n")
	} else if !workflow.StageInWorkflow(state.CurrentStage, state.WorkflowType) {
		sb.WriteString(fmt.Sprintf("\nCurrent stage %s is outside this workflow's stage list.\n", state.CurrentStage.Label()))
	}

	return sb.String()
}
