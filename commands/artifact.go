package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/workbench/workflow"
)

func newArtifactCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Inspect and edit artifacts",
	}
	cmd.AddCommand(
		newArtifactListCmd(opts),
		newArtifactGetCmd(opts),
		newArtifactPutCmd(opts),
		newArtifactNewCmd(opts),
	)
	return cmd
}

func newArtifactListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			artifacts, err := c.ListArtifacts(cmd.Context())
			if err != nil {
				return err
			}
			if len(artifacts) == 0 {
				fmt.Println("No artifacts.")
				return nil
			}

			var sb strings.Builder
			sb.WriteString("| ID | Type | Status | Title |\n")
			sb.WriteString("|----|------|--------|-------|\n")
			for _, a := range artifacts {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", a.ID, a.Type, a.Status, a.Title))
			}
			fmt.Print(sb.String())
			return nil
		},
	}
}

func newArtifactGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print an artifact's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			detail, err := c.GetArtifact(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("# %s (%s, %s)\n\n", detail.Artifact.Title, detail.Artifact.Type, detail.Artifact.Status)
			fmt.Println(detail.Content)
			return nil
		},
	}
}

func newArtifactPutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "put <id> <file>",
		Short: "Replace an artifact's content from a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			if err := c.PutArtifact(cmd.Context(), args[0], string(data)); err != nil {
				return err
			}
			fmt.Printf("Updated %s.\n", args[0])
			return nil
		},
	}
}

func newArtifactNewCmd(opts *rootOptions) *cobra.Command {
	var (
		title  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "new <type>",
		Short: "Create an artifact (discussion, adr, spec, plan, contract)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := workflow.ArtifactType(args[0])
			if !t.IsValid() {
				return fmt.Errorf("unknown artifact type: %s", args[0])
			}
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			created, err := c.CreateArtifact(cmd.Context(), &workflow.Artifact{
				Type:       t,
				Title:      title,
				FileFormat: format,
			}, "")
			if err != nil {
				return err
			}
			fmt.Printf("Created %s.\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Artifact title")
	cmd.Flags().StringVar(&format, "format", "json", "Content format (json or md)")
	return cmd
}
