package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/tend/internal/build"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tend",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("tend version %s (commit: %s, date: %s)\n", build.Version, build.Commit, build.Date)
		},
	}
}
