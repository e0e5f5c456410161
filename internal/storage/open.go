// Package storage persists the previous run's snapshot, the only state the
// bot carries between runs.
package storage

import (
	"context"
	"errors"
	"strings"

	"stnbot/internal/site"
	logx "stnbot/pkg/logx"
)

// Store holds exactly one snapshot.
type Store interface {
	// Load returns the stored snapshot; ok is false when none was saved yet.
	Load(ctx context.Context) (snap site.Snapshot, ok bool, err error)
	// Save replaces the stored snapshot in full.
	Save(ctx context.Context, snap site.Snapshot) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "storage"), logx.String("driver", driver))

	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
