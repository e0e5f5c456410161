package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stnbot/internal/site"
	logx "stnbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// sqliteStore keeps the snapshot in a single table, replaced in one
// transaction per Save. snapshot_meta distinguishes "never saved" from
// "saved an empty snapshot".
type sqliteStore struct {
	db   *sql.DB
	log  logx.Logger
	path string
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &PersistError{Op: "open", Path: path, Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &PersistError{Op: "open", Path: path, Err: err}
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log, path: path}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, &PersistError{Op: "open", Path: path, Err: err}
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *sqliteStore) Load(ctx context.Context) (site.Snapshot, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT sites FROM snapshot_meta WHERE id = 1`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &PersistError{Op: "load", Path: s.path, Err: err}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, grade, score, valid_https, downgrades_https, defaults_to_https, hsts, hsts_preloaded, url, twitter_handle
		 FROM sites ORDER BY position`)
	if err != nil {
		return nil, false, &PersistError{Op: "load", Path: s.path, Err: err}
	}
	defer rows.Close()

	snap := make(site.Snapshot, 0, n)
	for rows.Next() {
		var (
			r      site.Record
			handle sql.NullString
		)
		if err := rows.Scan(&r.Name, &r.Grade, &r.Score, &r.ValidHTTPS, &r.DowngradesHTTPS,
			&r.DefaultsToHTTPS, &r.HSTS, &r.HSTSPreloaded, &r.URL, &handle); err != nil {
			return nil, false, &PersistError{Op: "load", Path: s.path, Err: err}
		}
		r.TwitterHandle = handle.String
		snap = append(snap, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, &PersistError{Op: "load", Path: s.path, Err: err}
	}
	if err := snap.Validate(); err != nil {
		return nil, false, &PersistError{Op: "load", Path: s.path, Err: err}
	}
	s.log.Debug("snapshot loaded", logx.String("path", s.path), logx.Int("sites", len(snap)))
	return snap, true, nil
}

func (s *sqliteStore) Save(ctx context.Context, snap site.Snapshot) error {
	if s.db == nil {
		return ErrClosed
	}
	if err := s.save(ctx, snap); err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	s.log.Debug("snapshot saved", logx.String("path", s.path), logx.Int("sites", len(snap)))
	return nil
}

func (s *sqliteStore) save(ctx context.Context, snap site.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sites`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sites(position, name, grade, score, valid_https, downgrades_https, defaults_to_https, hsts, hsts_preloaded, url, twitter_handle)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range snap {
		if _, err := stmt.ExecContext(ctx, i, r.Name, r.Grade, r.Score, r.ValidHTTPS, r.DowngradesHTTPS,
			r.DefaultsToHTTPS, r.HSTS, r.HSTSPreloaded, r.URL, nullStr(r.TwitterHandle)); err != nil {
			return fmt.Errorf("insert %q: %w", r.Name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta(id, saved_at, sites) VALUES(1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at, sites = excluded.sites`,
		time.Now().UTC().Format(time.RFC3339Nano), len(snap)); err != nil {
		return err
	}
	return tx.Commit()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
