package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stnbot/internal/app"
	"stnbot/internal/config"
	logx "stnbot/pkg/logx"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "stnbot",
	Short:         "stnbot posts Secure The News scorecard improvements.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	return 0
}

// session is what every subcommand needs: the loaded config and a logger
// built from it.
type session struct {
	cfgm  *config.Manager
	cfg   *config.Config
	log   logx.Logger
	close func() error
}

// openSession loads the config. Read-only commands pass readOnly so a
// config without transport credentials still works for them.
func openSession(readOnly bool) (*session, error) {
	cfgm := config.NewManager(cfgPath)
	load := cfgm.Load
	if readOnly {
		load = cfgm.LoadLocal
	}
	cfg, err := load()
	if err != nil {
		logx.NewConsole("INFO").With(logx.String("comp", "config")).
			Error("loading config failed", logx.String("path", cfgPath), logx.Err(err))
		return nil, err
	}
	log, closeLog := app.NewLogger(cfg)
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	return &session{cfgm: cfgm, cfg: cfg, log: log, close: closeLog}, nil
}
