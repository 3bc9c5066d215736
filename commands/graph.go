package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var selected string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the artifact relationship graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			proj, err := c.GetGraph(cmd.Context(), selected, "")
			if err != nil {
				return err
			}

			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("%d artifacts, %d relationships\n\n", len(proj.Nodes), len(proj.Edges)))
			for _, n := range proj.Nodes {
				marker := " "
				if n.ID == selected {
					marker = "*"
				}
				sb.WriteString(fmt.Sprintf("%s %s [%s] %s\n", marker, n.ID, n.Type, n.Label))
			}
			if len(proj.Edges) > 0 {
				sb.WriteString("\n")
				for _, e := range proj.Edges {
					sb.WriteString(fmt.Sprintf("  %s -%s-> %s\n", e.Source, e.Relationship, e.Target))
				}
			}
			fmt.Print(sb.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&selected, "selected", "", "Highlight this artifact and its neighbors")
	return cmd
}
