package commands

import (
	"github.com/spf13/cobra"

	"stnbot/internal/app"
)

var runOnStart bool

func init() {
	daemonCmd.Flags().BoolVar(&runOnStart, "now", false, "run once immediately after startup")
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run on the configured schedule until interrupted.",
	Long: `Run on the configured schedule until interrupted.

The config file is watched; changes apply from the next run on.
Under systemd (Type=notify) readiness and watchdog pings are sent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(false)
		if err != nil {
			return err
		}
		defer s.close()
		return app.RunDaemon(cmd.Context(), s.cfgm, s.log, app.DaemonOptions{RunOnStart: runOnStart})
	},
}
