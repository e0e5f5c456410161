package app

import (
	"fmt"
	"time"

	"stnbot/internal/config"
	"stnbot/internal/notifier"
	"stnbot/internal/source"
	"stnbot/internal/storage"
	kit "stnbot/internal/transport"
	"stnbot/internal/transport/dryrun"
	telegram "stnbot/internal/transport/telegram/adapter"
	"stnbot/internal/transport/twitter"
	logx "stnbot/pkg/logx"
)

// Build wires a full Runner from a normalized, validated config.
// The caller must Close it.
func Build(cfg *config.Config, log logx.Logger) (*Runner, error) {
	poster, err := NewPoster(cfg, log)
	if err != nil {
		return nil, err
	}
	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	src, store, err := openReadSide(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewRunner(src, store, notifier.New(ncfg, poster, log), log), nil
}

// BuildPreview wires a Runner without an outbound channel, usable for
// Preview only. cfg may come from config.Manager.LoadLocal, so transport
// credentials are neither required nor read.
func BuildPreview(cfg *config.Config, log logx.Logger) (*Runner, error) {
	src, store, err := openReadSide(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewRunner(src, store, nil, log), nil
}

// OpenStore opens the configured snapshot store.
func OpenStore(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	return storage.Open(sc, log)
}

func openReadSide(cfg *config.Config, log logx.Logger) (source.Source, storage.Store, error) {
	scfg, err := mapSourceConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	src, err := source.New(scfg, log)
	if err != nil {
		return nil, nil, err
	}
	store, err := OpenStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return src, store, nil
}

// NewPoster builds the outbound adapter selected by cfg.Transport.
func NewPoster(cfg *config.Config, log logx.Logger) (kit.Poster, error) {
	switch cfg.Transport {
	case config.TransportTwitter, "":
		tw := cfg.Twitter
		c, err := twitter.New(twitter.Config{
			AppKey:           tw.AppKey,
			AppSecret:        tw.AppSecret,
			OAuthToken:       tw.OAuthToken,
			OAuthTokenSecret: tw.OAuthTokenSecret,
			Operator:         cfg.Operator,
			BaseURL:          tw.BaseURL,
			RatePerMin:       tw.RatePerMin,
		}, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.TransportTelegram:
		tg := cfg.Telegram
		a, err := telegram.New(telegram.Config{
			Token:          tg.Token,
			ChannelID:      tg.ChannelID,
			OperatorChatID: tg.OperatorChatID,
		}, log)
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.TransportDryRun:
		return dryrun.New(log), nil
	default:
		return nil, &config.ConfigError{Field: "transport", Err: fmt.Errorf("unknown transport %q", cfg.Transport)}
	}
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	group, reply, err := cfg.Pacing.Delays()
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{GroupDelay: group, ReplyDelay: reply}, nil
}

func mapSourceConfig(cfg *config.Config) (source.Config, error) {
	sc := cfg.Source
	timeout, err := config.ParseDurationField("source.timeout", sc.Timeout)
	if err != nil {
		return source.Config{}, err
	}
	return source.Config{
		Kind:           sc.Kind,
		BaseURL:        sc.BaseURL,
		Limit:          sc.Limit,
		PagePath:       sc.PagePath,
		ScriptSelector: sc.ScriptSelector,
		UserAgent:      sc.UserAgent,
		Timeout:        timeout,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	sc := cfg.Storage
	switch sc.Driver {
	case "file", "":
		return storage.Config{Driver: "file", Path: sc.Path}, nil
	case "sqlite", "sqlite3":
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, err
		}
		return storage.Config{Driver: "sqlite", Path: sc.Path, BusyTimeout: busy}, nil
	default:
		return storage.Config{}, &config.ConfigError{Field: "storage.driver", Err: fmt.Errorf("unknown storage driver %q", sc.Driver)}
	}
}

// NewLogger builds the root logger from the logging block.
func NewLogger(cfg *config.Config) (logx.Logger, func() error) {
	lg := cfg.Logging
	log, closer := logx.New(logx.Config{
		Level:   lg.Level,
		Console: lg.Console,
		File: logx.FileConfig{
			Enabled: lg.File.Enabled,
			Path:    lg.File.Path,
		},
	})
	return log, closer.Close
}
