// Package site holds the normalized per-site scorecard record and the
// differencer that turns two snapshots into notification groups.
package site

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName     = errors.New("site name is empty")
	ErrDuplicateName = errors.New("duplicate site name")
)

// Record is one monitored site as of one run.
// The JSON names are the persisted snapshot format.
type Record struct {
	Name            string  `json:"name"`
	Grade           string  `json:"grade"`
	Score           float64 `json:"score"`
	ValidHTTPS      bool    `json:"valid_https"`
	DowngradesHTTPS bool    `json:"downgrades_https"`
	DefaultsToHTTPS bool    `json:"defaults_to_https"`
	HSTS            bool    `json:"hsts"`
	HSTSPreloaded   bool    `json:"hsts_preloaded"`
	URL             string  `json:"url"`
	TwitterHandle   string  `json:"twitter_handle,omitempty"`
}

// AvailableOverHTTPS reports whether the site serves valid HTTPS without
// downgrading users back to HTTP.
func (r Record) AvailableOverHTTPS() bool {
	return r.ValidHTTPS && !r.DowngradesHTTPS
}

// DisplayName is the name used in notification text.
func (r Record) DisplayName() string {
	return DisplayName(r.Name, r.TwitterHandle)
}

// DisplayName formats a site name with its optional Twitter handle:
// "Deutsche Welle" or "Deutsche Welle (@dwnews)".
func DisplayName(name, handle string) string {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return name
	}
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}
	return name + " (" + handle + ")"
}

// Snapshot is the full ordered set of records from one run.
// Records are matched across snapshots by Name, never by position.
type Snapshot []Record

// Index maps site name to record. If a name repeats, the first record wins.
func (s Snapshot) Index() map[string]Record {
	m := make(map[string]Record, len(s))
	for _, r := range s {
		if _, ok := m[r.Name]; !ok {
			m[r.Name] = r
		}
	}
	return m
}

// Validate enforces non-empty, unique names.
func (s Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i, r := range s {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("record %d: %w", i, ErrEmptyName)
		}
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("record %d: %w: %q", i, ErrDuplicateName, r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}
