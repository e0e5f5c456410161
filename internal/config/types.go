package config

// Config is the full bot configuration, decoded from JSON or YAML.
//
// Legacy note:
//   - The first deployments used a flat config.yaml with twitter_* keys and
//     botmaster at the top level.
//   - Those keys are still accepted and folded into the twitter block by
//     Normalize, but new configs should use the nested form.
type Config struct {
	// Transport selects the outbound channel: "twitter", "telegram" or "dryrun".
	Transport string `json:"transport"`
	// Operator is the screen name that receives error and status reports
	// when Transport is "twitter".
	Operator string `json:"operator,omitempty"`

	Twitter  TwitterConfig  `json:"twitter"`
	Telegram TelegramConfig `json:"telegram"`
	Source   SourceConfig   `json:"source"`
	Storage  StorageConfig  `json:"storage"`
	Pacing   PacingConfig   `json:"pacing"`
	Logging  LoggingConfig  `json:"logging"`

	// Schedule drives daemon mode (cron, "@every 6h", "6h", or "HH:MM").
	Schedule string `json:"schedule,omitempty"`
	// Timezone for cron schedules; empty means local.
	Timezone string `json:"timezone,omitempty"`

	// Deprecated flat keys; use twitter.* and operator instead.
	LegacyAppKey           string `json:"twitter_app_key,omitempty"`
	LegacyAppSecret        string `json:"twitter_app_secret,omitempty"`
	LegacyOAuthToken       string `json:"twitter_oauth_token,omitempty"`
	LegacyOAuthTokenSecret string `json:"twitter_oauth_token_secret,omitempty"`
	LegacyBotmaster        string `json:"botmaster,omitempty"`
}

type TwitterConfig struct {
	AppKey           string `json:"app_key"`
	AppSecret        string `json:"app_secret"`
	OAuthToken       string `json:"oauth_token"`
	OAuthTokenSecret string `json:"oauth_token_secret"`
	// BaseURL overrides the API host (tests, proxies). Default https://api.twitter.com.
	BaseURL string `json:"base_url,omitempty"`
	// RatePerMin caps outbound API calls; 0 means the default.
	RatePerMin int `json:"rate_per_min,omitempty"`
}

type TelegramConfig struct {
	Token          string `json:"token"`
	ChannelID      int64  `json:"channel_id"`
	OperatorChatID int64  `json:"operator_chat_id"`
}

// SourceConfig selects and configures the upstream scorecard adapter.
//
// Example:
//
//	"source": { "kind": "api", "base_url": "https://securethe.news", "limit": 1000 }
type SourceConfig struct {
	Kind           string `json:"kind"`
	BaseURL        string `json:"base_url"`
	Limit          int    `json:"limit,omitempty"`
	PagePath       string `json:"page_path,omitempty"`       // scrape only
	ScriptSelector string `json:"script_selector,omitempty"` // scrape only
	UserAgent      string `json:"user_agent,omitempty"`
	// Timeout is a Go duration string (e.g. "30s").
	Timeout string `json:"timeout,omitempty"`
}

// StorageConfig controls where the previous snapshot lives.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./old_results.json" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PacingConfig holds the delays between outbound posts.
// All durations are Go duration strings (e.g. "30s", "30m").
type PacingConfig struct {
	GroupDelay string `json:"group_delay,omitempty"`
	ReplyDelay string `json:"reply_delay,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}
