// Package source fetches the current scorecard from the upstream site and
// normalizes it into a site.Snapshot.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"stnbot/internal/site"
	logx "stnbot/pkg/logx"
)

const (
	defaultLimit          = 1000
	defaultPagePath       = "/sites/"
	defaultScriptSelector = "script#sites-data"
	defaultTimeout        = 30 * time.Second
	defaultUserAgent      = "stnbot/1.0 (+https://securethe.news)"
)

// Scorecard is the result of one fetch.
type Scorecard struct {
	Sites site.Snapshot
	// Unscanned names sites the upstream still lists but currently
	// reports without a grade or score.
	Unscanned []string
}

// Source produces the current scorecard. Any error is a *FetchError.
type Source interface {
	Fetch(ctx context.Context) (Scorecard, error)
}

// Config configures either adapter.
type Config struct {
	Kind           string // "api" or "scrape"
	BaseURL        string
	Limit          int
	PagePath       string
	ScriptSelector string
	UserAgent      string
	Timeout        time.Duration
}

// FetchError means the upstream was unreachable or returned data that could
// not be turned into a valid snapshot. It is fatal for the run.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// New builds the adapter selected by cfg.Kind.
func New(cfg Config, log logx.Logger) (Source, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("source base url is required")
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.PagePath == "" {
		cfg.PagePath = defaultPagePath
	}
	if cfg.ScriptSelector == "" {
		cfg.ScriptSelector = defaultScriptSelector
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)

	log = log.With(logx.String("comp", "source"), logx.String("kind", cfg.Kind))
	switch strings.ToLower(cfg.Kind) {
	case "", "api":
		return &apiSource{cfg: cfg, client: client, log: log}, nil
	case "scrape":
		return &scrapeSource{cfg: cfg, client: client, log: log}, nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s", cfg.Kind)
	}
}

// get performs one GET and returns the body of a 2xx response.
func get(ctx context.Context, client *resty.Client, url string, query map[string]string) ([]byte, error) {
	res, err := client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if res.IsError() {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", res.Status())}
	}
	return res.Body(), nil
}
