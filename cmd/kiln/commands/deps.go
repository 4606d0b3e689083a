package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/deps"
)

func (c *CLI) newDepsCmd() *cobra.Command {
	var platformName string

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "List the resolved dependencies by phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var platform domain.Platform
			if platformName != "" {
				p, err := domain.ParsePlatform(platformName)
				if err != nil {
					return err
				}
				platform = p
			}

			specs := c.app.Dependencies(platform)
			out := cmd.OutOrStdout()
			for _, phase := range domain.Phases() {
				names := deps.Names(deps.ByPhase(specs, phase))
				if len(names) == 0 {
					continue
				}
				_, _ = fmt.Fprintf(out, "%s:\n", phase)
				for _, name := range names {
					_, _ = fmt.Fprintf(out, "  %s\n", name)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&platformName, "platform", "p", "", "Resolve for another platform: linux, macos or other")
	return cmd
}
