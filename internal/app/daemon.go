package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stnbot/internal/config"
	"stnbot/internal/runtime/supervisor"
	"stnbot/internal/scheduler"
	logx "stnbot/pkg/logx"
	"stnbot/pkg/systemd"
)

// DaemonOptions tweaks daemon mode.
type DaemonOptions struct {
	// RunOnStart triggers one run right after startup instead of waiting
	// for the first scheduled tick.
	RunOnStart bool
}

// RunDaemon runs poll passes on cfg.Schedule until ctx is canceled.
// Each pass rebuilds its components from the current config, so edits to
// the config file apply from the next pass on.
func RunDaemon(ctx context.Context, cfgm *config.Manager, log logx.Logger, opts DaemonOptions) error {
	cfg := cfgm.Get()
	if cfg == nil {
		return fmt.Errorf("daemon: config not loaded")
	}
	if strings.TrimSpace(cfg.Schedule) == "" {
		return &config.ConfigError{Field: "schedule", Err: fmt.Errorf("required in daemon mode")}
	}
	spec, err := scheduler.ParseSchedule(cfg.Schedule)
	if err != nil {
		return &config.ConfigError{Field: "schedule", Err: err}
	}
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return &config.ConfigError{Field: "timezone", Err: err}
		}
	}

	log = log.With(logx.String("comp", "daemon"))
	sched := scheduler.New(loc, log.With(logx.String("comp", "scheduler")))

	job := func(ctx context.Context) error {
		r, err := Build(cfgm.Get(), log)
		if err != nil {
			return err
		}
		defer func() {
			if err := r.Close(); err != nil {
				log.Warn("closing store failed", logx.Err(err))
			}
		}()
		res, err := r.Run(ctx)
		if err != nil {
			_, _ = systemd.Status("last run failed: " + err.Error())
			return err
		}
		_, _ = systemd.Status(runStatus(res))
		return nil
	}
	if err := sched.Start(ctx, spec, job); err != nil {
		return err
	}

	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.OnChange(func(c *config.Config) {
		_, _ = systemd.Reloading()
		defer func() { _, _ = systemd.Ready() }()
		next, err := scheduler.ParseSchedule(c.Schedule)
		if err != nil {
			log.Warn("new schedule rejected; keeping previous", logx.Err(err))
			return
		}
		if err := sched.Reschedule(next); err != nil {
			log.Warn("reschedule failed", logx.Err(err))
		}
	})

	sup := supervisor.New(ctx, supervisor.WithLogger(log.With(logx.String("comp", "supervisor"))))
	sup.GoRestart("config.watch", cfgm.Watch, time.Second, 30*time.Second)
	if wd, err := systemd.WatchdogInterval(); err == nil && wd > 0 {
		sup.Go("systemd.watchdog", func(ctx context.Context) error {
			watchdogLoop(ctx, wd/2)
			return nil
		})
	}

	if sent, err := systemd.Ready(); err != nil {
		log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		log.Debug("notified systemd: ready")
	}
	log.Info("daemon started", logx.String("schedule", spec.Source))

	if opts.RunOnStart {
		sched.RunNow()
	}

	<-ctx.Done()
	_, _ = systemd.Stopping()
	log.Info("stopping")
	sched.Stop()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sup.Stop(stopCtx); err != nil {
		log.Warn("background loops did not stop cleanly", logx.Err(err))
	}
	log.Info("stopped")
	return nil
}

func watchdogLoop(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = systemd.Watchdog()
		}
	}
}

func runStatus(res Result) string {
	if res.Baseline {
		return "baseline created (" + strconv.Itoa(res.Sites) + " sites)"
	}
	return fmt.Sprintf("last run: %d sites, %d posted, %d failed", res.Sites, res.Report.Posted, res.Report.Failed)
}
