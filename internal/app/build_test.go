package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stnbot/internal/config"
	"stnbot/internal/transport/dryrun"
	"stnbot/internal/transport/twitter"
	logx "stnbot/pkg/logx"
)

func normalized(t *testing.T, cfg config.Config) *config.Config {
	t.Helper()
	config.Normalize(&cfg)
	if err := config.Validate(&cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return &cfg
}

func TestNewPosterByTransport(t *testing.T) {
	t.Parallel()

	dry := normalized(t, config.Config{Transport: "dryrun"})
	p, err := NewPoster(dry, logx.Nop())
	if err != nil {
		t.Fatalf("NewPoster(dryrun): %v", err)
	}
	if _, ok := p.(*dryrun.Poster); !ok {
		t.Fatalf("poster = %T, want *dryrun.Poster", p)
	}

	tw := normalized(t, config.Config{
		LegacyAppKey:           "k",
		LegacyAppSecret:        "s",
		LegacyOAuthToken:       "t",
		LegacyOAuthTokenSecret: "ts",
		LegacyBotmaster:        "@someone",
	})
	p, err = NewPoster(tw, logx.Nop())
	if err != nil {
		t.Fatalf("NewPoster(twitter): %v", err)
	}
	if _, ok := p.(*twitter.Client); !ok {
		t.Fatalf("poster = %T, want *twitter.Client", p)
	}

	_, err = NewPoster(&config.Config{Transport: "carrier-pigeon"}, logx.Nop())
	var ce *config.ConfigError
	if !errors.As(err, &ce) || ce.Field != "transport" {
		t.Fatalf("err = %v, want transport ConfigError", err)
	}
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      config.StorageConfig
		driver  string
		busy    time.Duration
		wantErr bool
	}{
		{name: "file", in: config.StorageConfig{Driver: "file", Path: "a.json"}, driver: "file"},
		{name: "sqlite default busy", in: config.StorageConfig{Driver: "sqlite", Path: "a.db"}, driver: "sqlite", busy: time.Second},
		{name: "sqlite3 alias", in: config.StorageConfig{Driver: "sqlite3", Path: "a.db", BusyTimeout: "5s"}, driver: "sqlite", busy: 5 * time.Second},
		{name: "bad busy", in: config.StorageConfig{Driver: "sqlite", Path: "a.db", BusyTimeout: "soon"}, wantErr: true},
		{name: "unknown", in: config.StorageConfig{Driver: "redis"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sc, err := mapStorageConfig(&config.Config{Storage: tt.in})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", sc)
				}
				return
			}
			if err != nil {
				t.Fatalf("mapStorageConfig: %v", err)
			}
			if sc.Driver != tt.driver || sc.BusyTimeout != tt.busy || sc.Path != tt.in.Path {
				t.Fatalf("got %+v", sc)
			}
		})
	}
}

func TestMapNotifierConfigDefaults(t *testing.T) {
	t.Parallel()
	nc, err := mapNotifierConfig(&config.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if nc.GroupDelay != config.DefaultGroupDelay || nc.ReplyDelay != config.DefaultReplyDelay {
		t.Fatalf("got %+v", nc)
	}
	nc, err = mapNotifierConfig(&config.Config{Pacing: config.PacingConfig{GroupDelay: "0s", ReplyDelay: "2s"}})
	if err != nil {
		t.Fatal(err)
	}
	if nc.GroupDelay != 0 || nc.ReplyDelay != 2*time.Second {
		t.Fatalf("got %+v", nc)
	}
}

func TestBuildDryRun(t *testing.T) {
	t.Parallel()
	cfg := normalized(t, config.Config{
		Transport: "dryrun",
		Storage:   config.StorageConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "snap.db")},
	})
	r, err := Build(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	pr, err := BuildPreview(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("BuildPreview: %v", err)
	}
	_ = pr.Close()
}
