package commands

import (
	"github.com/spf13/cobra"

	"stnbot/internal/app"
	logx "stnbot/pkg/logx"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the scorecard once, post what changed, save the snapshot.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(false)
		if err != nil {
			return err
		}
		defer s.close()

		r, err := app.Build(s.cfg, s.log)
		if err != nil {
			return err
		}
		defer func() {
			if err := r.Close(); err != nil {
				s.log.Warn("closing store failed", logx.Err(err))
			}
		}()

		_, err = r.Run(cmd.Context())
		return err
	},
}
