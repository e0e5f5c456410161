package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadLegacyYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
twitter_app_key: k
twitter_app_secret: s
twitter_oauth_token: t
twitter_oauth_token_secret: ts
botmaster: "@operator"
`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != TransportTwitter {
		t.Fatalf("Transport = %q", cfg.Transport)
	}
	if cfg.Twitter.AppKey != "k" || cfg.Twitter.AppSecret != "s" || cfg.Twitter.OAuthToken != "t" || cfg.Twitter.OAuthTokenSecret != "ts" {
		t.Fatalf("legacy keys not folded: %+v", cfg.Twitter)
	}
	if cfg.Operator != "operator" {
		t.Fatalf("Operator = %q, want operator", cfg.Operator)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.Path != DefaultStoragePath {
		t.Fatalf("storage defaults not applied: %+v", cfg.Storage)
	}
	if cfg.Source.Kind != "api" || cfg.Source.BaseURL != DefaultSourceBaseURL {
		t.Fatalf("source defaults not applied: %+v", cfg.Source)
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{
		"transport": "telegram",
		"telegram": {"token": "x", "channel_id": -100, "operator_chat_id": 7},
		"source": {"kind": "scrape", "base_url": "https://example.test/"},
		"storage": {"driver": "sqlite", "path": "snap.db"},
		"pacing": {"group_delay": "0s", "reply_delay": "5s"},
		"schedule": "@every 6h"
	}`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.BaseURL != "https://example.test" {
		t.Fatalf("BaseURL = %q", cfg.Source.BaseURL)
	}
	group, reply, err := cfg.Pacing.Delays()
	if err != nil {
		t.Fatalf("Delays: %v", err)
	}
	if group != 0 || reply != 5*time.Second {
		t.Fatalf("Delays = %v, %v", group, reply)
	}
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing credentials", body: `{"twitter": {"app_key": "k"}, "operator": "op"}`, field: "twitter.app_secret"},
		{name: "missing operator", body: `{"twitter": {"app_key": "k", "app_secret": "s", "oauth_token": "t", "oauth_token_secret": "ts"}}`, field: "operator"},
		{name: "unknown transport", body: `{"transport": "pigeon"}`, field: "transport"},
		{name: "telegram without channel", body: `{"transport": "telegram", "telegram": {"token": "x", "operator_chat_id": 1}}`, field: "telegram.channel_id"},
		{name: "bad delay", body: `{"transport": "dryrun", "pacing": {"reply_delay": "soon"}}`, field: "pacing.reply_delay"},
		{name: "bad schedule", body: `{"transport": "dryrun", "schedule": "whenever"}`, field: "schedule"},
		{name: "bad cron fields", body: `{"transport": "dryrun", "schedule": "foo bar"}`, field: "schedule"},
		{name: "unknown field", body: `{"transport": "dryrun", "retries": 3}`, field: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, "config.json", tt.body)
			_, err := NewManager(path).Load()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Fatalf("Field = %q, want %q (%v)", ce.Field, tt.field, err)
			}
		})
	}
}

func TestLoadLocalSkipsTransportCredentials(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"storage": {"driver": "file", "path": "old_results.json"}}`)

	var ce *ConfigError
	if _, err := NewManager(path).Load(); !errors.As(err, &ce) || ce.Field != "twitter.app_key" {
		t.Fatalf("Load err = %v, want twitter.app_key ConfigError", err)
	}

	cfg, err := NewManager(path).LoadLocal()
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Storage.Path != "old_results.json" {
		t.Fatalf("storage path = %q", cfg.Storage.Path)
	}

	bad := writeFile(t, "config.json", `{"schedule": "foo bar"}`)
	if _, err := NewManager(bad).LoadLocal(); !errors.As(err, &ce) || ce.Field != "schedule" {
		t.Fatalf("LoadLocal err = %v, want schedule ConfigError", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := NewManager(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	var ce *ConfigError
	if !errors.As(err, &ce) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ConfigError wrapping ErrNotExist", err)
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeFile(t, "config.json", `{"transport": "dryrun", "schedule": "1h"}`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Watch(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"transport": "dryrun", "schedule": "2h"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.Get().Schedule == "2h" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("config not reloaded, schedule = %q", m.Get().Schedule)
}

func TestReloadKeepsPreviousOnInvalid(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"transport": "dryrun"}`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"transport": "pigeon"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if m.reload() {
		t.Fatal("invalid config committed")
	}
	if m.Get().Transport != TransportDryRun {
		t.Fatalf("Transport = %q", m.Get().Transport)
	}
}
