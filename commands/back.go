package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/c360studio/workbench/workflow"
)

func newBackCmd(opts *rootOptions) *cobra.Command {
	var (
		from string
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "back <step>",
		Short: "Roll the pipeline back to an earlier step",
		Long: `Back moves the generation pipeline to an earlier step. Every step
after the target is invalidated: local caches are dropped and the
server clears the derived state for each affected step group. When the
target is the validate step, validation re-runs immediately.

Steps, in order: ` + stepList() + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := workflow.Step(args[0])
			current := workflow.Step(from)
			if workflow.StepIndex(target) < 0 {
				return fmt.Errorf("unknown step: %s", args[0])
			}
			if workflow.StepIndex(current) < 0 {
				return fmt.Errorf("unknown current step: %s", from)
			}

			invalidated := workflow.InvalidatedSteps(target, current)
			if len(invalidated) == 0 {
				fmt.Println("Nothing to roll back.")
				return nil
			}

			if !yes {
				fmt.Println("Rolling back will discard the results of:")
				for _, s := range invalidated {
					fmt.Printf("  - %s\n", s.Label())
				}
				if !confirm(cmd, "Continue?") {
					fmt.Println("Aborted.")
					return nil
				}
			}

			c, err := apiClient(opts)
			if err != nil {
				return err
			}

			controller := workflow.NewController(c, slog.Default())
			if err := controller.SetCurrent(current); err != nil {
				return err
			}
			if err := controller.Rollback(cmd.Context(), target); err != nil {
				return fmt.Errorf("rollback: %w", err)
			}

			fmt.Printf("Rolled back to %s.\n", target.Label())
			if result := controller.ValidationResult(); result != "" {
				fmt.Printf("Validation: %s\n", result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", string(workflow.StepGenerate), "Step the pipeline is currently on")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func stepList() string {
	out := ""
	for i, s := range workflow.StepOrder {
		if i > 0 {
			out += ", "
		}
		out += string(s)
	}
	return out
}
