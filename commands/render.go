package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render <id>",
		Short: "Render an artifact through its schema as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(opts)
			if err != nil {
				return err
			}
			md, err := c.Render(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(md)
			return nil
		},
	}
}
