package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/tend/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [tasks...]",
		Short: "Run tasks and everything they depend on",
		Long: "Run the named tasks. Without arguments the default task runs, which builds the site,\n" +
			"starts the live reload server and watches the source tree. Use \"all\" to run every task.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			parallel, _ := cmd.Flags().GetInt("parallel")

			return c.app.Run(cmd.Context(), args, app.RunOptions{
				ConfigFile:  configFlag(cmd),
				Port:        port,
				Parallelism: parallel,
			})
		},
	}
	cmd.Flags().IntP("port", "p", 0, "Override the dev server port")
	cmd.Flags().IntP("parallel", "j", 0, "Maximum number of tasks run at once (default: number of CPUs)")
	return cmd
}
