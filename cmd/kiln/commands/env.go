package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the environment an install would run under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := c.app.Environment(c.options())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, kv := range plan.Environ() {
				_, _ = fmt.Fprintln(out, kv)
			}
			return nil
		},
	}
}
