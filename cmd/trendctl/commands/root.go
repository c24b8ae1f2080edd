package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/trendscout/config"
	"github.com/use-agent/trendscout/logging"
)

var asJSON *bool

var rootCmd = &cobra.Command{
	Use:   "trendctl",
	Short: "trendctl captures trending topics from the command line.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(config.Load().Log)
	},
}

func init() {
	asJSON = rootCmd.PersistentFlags().Bool("json", false, "Print the snapshot as JSON instead of a table.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
