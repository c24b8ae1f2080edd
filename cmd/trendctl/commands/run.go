package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/config"
	"github.com/use-agent/trendscout/flow"
	"github.com/use-agent/trendscout/store"
)

var (
	runTimeout *time.Duration
	runDSN     *string
	runDriver  *string
)

func init() {
	runTimeout = runCmd.Flags().Duration("timeout", 3*time.Minute, "Upper bound for the whole capture.")
	runDriver = runCmd.Flags().String("driver", "", "Store driver, overrides TRENDSCOUT_STORE_DRIVER.")
	runDSN = runCmd.Flags().String("dsn", "", "Store DSN, overrides TRENDSCOUT_STORE_DSN.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--timeout 3m] [--driver sqlite --dsn trends.db]",
	Short: "Launches a browser, captures the top trends once and saves them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if *runDriver != "" {
			cfg.Store.Driver = *runDriver
		}
		if *runDSN != "" {
			cfg.Store.DSN = *runDSN
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		profile, err := cfg.Profile()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), *runTimeout)
		defer cancel()

		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		runner := flow.NewRunner(browser.NewRodLauncher(), st, profile, cfg.Credentials())

		t1 := time.Now()
		rec, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		slog.Debug("capture time", "seconds", time.Since(t1).Seconds())

		if *asJSON {
			return writeJSON(os.Stdout, rec)
		}
		writeTable(os.Stdout, rec)
		return nil
	},
}
