package config

import (
	"fmt"
	"strings"
	"time"

	"stnbot/internal/scheduler"
)

const (
	TransportTwitter  = "twitter"
	TransportTelegram = "telegram"
	TransportDryRun   = "dryrun"

	DefaultSourceBaseURL = "https://securethe.news"
	DefaultStoragePath   = "./old_results.json"
	DefaultGroupDelay    = 30 * time.Minute
	DefaultReplyDelay    = 30 * time.Second
)

// ConfigError reports a missing or invalid setting. It is fatal at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Err.Error()
	}
	return "config: " + e.Field + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func missing(field string) error {
	return &ConfigError{Field: field, Err: fmt.Errorf("required")}
}

// Normalize folds legacy keys into the nested form and fills defaults.
// It mutates cfg in place.
func Normalize(cfg *Config) {
	tw := &cfg.Twitter
	if tw.AppKey == "" {
		tw.AppKey = cfg.LegacyAppKey
	}
	if tw.AppSecret == "" {
		tw.AppSecret = cfg.LegacyAppSecret
	}
	if tw.OAuthToken == "" {
		tw.OAuthToken = cfg.LegacyOAuthToken
	}
	if tw.OAuthTokenSecret == "" {
		tw.OAuthTokenSecret = cfg.LegacyOAuthTokenSecret
	}
	if cfg.Operator == "" {
		cfg.Operator = cfg.LegacyBotmaster
	}
	cfg.Operator = strings.TrimPrefix(strings.TrimSpace(cfg.Operator), "@")

	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if cfg.Transport == "" {
		cfg.Transport = TransportTwitter
	}

	cfg.Source.Kind = strings.ToLower(strings.TrimSpace(cfg.Source.Kind))
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "api"
	}
	if strings.TrimSpace(cfg.Source.BaseURL) == "" {
		cfg.Source.BaseURL = DefaultSourceBaseURL
	}
	cfg.Source.BaseURL = strings.TrimRight(cfg.Source.BaseURL, "/")

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
}

// Validate checks a normalized config. Errors are *ConfigError.
func Validate(cfg *Config) error {
	if err := validateTransport(cfg); err != nil {
		return err
	}
	return ValidateLocal(cfg)
}

func validateTransport(cfg *Config) error {
	switch cfg.Transport {
	case TransportTwitter:
		tw := cfg.Twitter
		for _, f := range []struct{ name, v string }{
			{"twitter.app_key", tw.AppKey},
			{"twitter.app_secret", tw.AppSecret},
			{"twitter.oauth_token", tw.OAuthToken},
			{"twitter.oauth_token_secret", tw.OAuthTokenSecret},
			{"operator", cfg.Operator},
		} {
			if strings.TrimSpace(f.v) == "" {
				return missing(f.name)
			}
		}
		if tw.RatePerMin < 0 {
			return &ConfigError{Field: "twitter.rate_per_min", Err: fmt.Errorf("must be >= 0")}
		}
	case TransportTelegram:
		tg := cfg.Telegram
		if strings.TrimSpace(tg.Token) == "" {
			return missing("telegram.token")
		}
		if tg.ChannelID == 0 {
			return missing("telegram.channel_id")
		}
		if tg.OperatorChatID == 0 {
			return missing("telegram.operator_chat_id")
		}
	case TransportDryRun:
	default:
		return &ConfigError{Field: "transport", Err: fmt.Errorf("unknown transport %q", cfg.Transport)}
	}
	return nil
}

// ValidateLocal checks everything except the outbound transport and its
// credentials, for commands that only read the scorecard and the store.
func ValidateLocal(cfg *Config) error {
	switch cfg.Source.Kind {
	case "api", "scrape":
	default:
		return &ConfigError{Field: "source.kind", Err: fmt.Errorf("unknown source kind %q", cfg.Source.Kind)}
	}
	if cfg.Source.Limit < 0 {
		return &ConfigError{Field: "source.limit", Err: fmt.Errorf("must be >= 0")}
	}
	if _, err := ParseDurationField("source.timeout", cfg.Source.Timeout); err != nil {
		return err
	}

	switch cfg.Storage.Driver {
	case "file", "sqlite", "sqlite3":
	default:
		return &ConfigError{Field: "storage.driver", Err: fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)}
	}
	if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
		return err
	}

	if _, _, err := cfg.Pacing.Delays(); err != nil {
		return err
	}

	if s := strings.TrimSpace(cfg.Schedule); s != "" {
		if _, err := scheduler.ParseSchedule(s); err != nil {
			return &ConfigError{Field: "schedule", Err: err}
		}
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return &ConfigError{Field: "timezone", Err: err}
		}
	}
	return nil
}

// Delays resolves the pacing durations. Omitted values use the defaults;
// an explicit "0s" disables that delay.
func (p PacingConfig) Delays() (group, reply time.Duration, err error) {
	group, reply = DefaultGroupDelay, DefaultReplyDelay
	if strings.TrimSpace(p.GroupDelay) != "" {
		if group, err = ParseDurationField("pacing.group_delay", p.GroupDelay); err != nil {
			return 0, 0, err
		}
	}
	if strings.TrimSpace(p.ReplyDelay) != "" {
		if reply, err = ParseDurationField("pacing.reply_delay", p.ReplyDelay); err != nil {
			return 0, 0, err
		}
	}
	return group, reply, nil
}
