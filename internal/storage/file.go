package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"stnbot/internal/site"
	logx "stnbot/pkg/logx"
)

// fileStore keeps the snapshot as an indented JSON array of records.
// Writes go to <path>.tmp first and are renamed into place, so a crash
// mid-write leaves the previous snapshot intact.
type fileStore struct {
	log  logx.Logger
	path string
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &PersistError{Op: "open", Path: path, Err: err}
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Load(ctx context.Context) (site.Snapshot, bool, error) {
	_ = ctx
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &PersistError{Op: "load", Path: s.path, Err: err}
	}
	var snap site.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, false, &PersistError{Op: "load", Path: s.path, Err: err}
	}
	if snap == nil {
		snap = site.Snapshot{}
	}
	if err := snap.Validate(); err != nil {
		return nil, false, &PersistError{Op: "load", Path: s.path, Err: err}
	}
	s.log.Debug("snapshot loaded", logx.String("path", s.path), logx.Int("sites", len(snap)))
	return snap, true, nil
}

func (s *fileStore) Save(ctx context.Context, snap site.Snapshot) error {
	_ = ctx
	if snap == nil {
		snap = site.Snapshot{}
	}
	b, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	s.log.Debug("snapshot saved", logx.String("path", s.path), logx.Int("sites", len(snap)))
	return nil
}

func (s *fileStore) Close() error { return nil }
