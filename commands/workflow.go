package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/workbench/workflow"
)

func newStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <type>",
		Short: "Start a workflow (feature, bugfix, refactor, enhancement)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			state, err := c.StartWorkflow(cmd.Context(), workflow.Type(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("Started %s workflow at stage %s.\n", state.WorkflowType, state.CurrentStage.Label())
			return nil
		},
	}
}

func newAdvanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <artifact-id>",
		Short: "Complete the current stage with an artifact and advance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			state, err := c.AdvanceStage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if state.CurrentStage.IsValid() {
				fmt.Printf("Advanced to stage %s.\n", state.CurrentStage.Label())
			} else {
				fmt.Println("Workflow complete.")
			}
			return nil
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Abandon the active workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd, "Abandon the active workflow and clear its state?") {
				fmt.Println("Aborted.")
				return nil
			}
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			if err := c.ResetWorkflow(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Workflow state cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

// confirm asks a yes/no question on the command's input stream.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	var answer string
	fmt.Fscanln(cmd.InOrStdin(), &answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}
