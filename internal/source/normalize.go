package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"stnbot/internal/site"
	logx "stnbot/pkg/logx"
)

// upstreamSite is the per-site shape shared by the JSON API and the data
// embedded in the leaderboard page.
type upstreamSite struct {
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	TwitterHandle *string       `json:"twitter_handle"`
	LatestScan    *upstreamScan `json:"latest_scan"`
}

type upstreamScan struct {
	Grade           *string  `json:"grade"`
	Score           *float64 `json:"score"`
	ValidHTTPS      bool     `json:"valid_https"`
	DowngradesHTTPS bool     `json:"downgrades_https"`
	DefaultsToHTTPS bool     `json:"defaults_to_https"`
	HSTS            bool     `json:"hsts"`
	HSTSPreloaded   bool     `json:"hsts_preloaded"`
}

// decodeSites accepts either a bare array or an object with a results array.
func decodeSites(b []byte) ([]upstreamSite, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if b[0] == '[' {
		var sites []upstreamSite
		if err := json.Unmarshal(b, &sites); err != nil {
			return nil, fmt.Errorf("decode sites: %w", err)
		}
		return sites, nil
	}
	var page struct {
		Results *[]upstreamSite `json:"results"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return nil, fmt.Errorf("decode sites: %w", err)
	}
	if page.Results == nil {
		return nil, fmt.Errorf("decode sites: no results field")
	}
	return *page.Results, nil
}

// normalize maps upstream sites onto site.Record and validates the result.
// Sites without a grade or score are left out of Sites and listed by name
// in Unscanned.
func normalize(baseURL string, in []upstreamSite, log logx.Logger) (Scorecard, error) {
	out := make(site.Snapshot, 0, len(in))
	var unscanned []string
	for _, s := range in {
		scan := s.LatestScan
		if scan == nil || scan.Grade == nil || scan.Score == nil {
			if name := strings.TrimSpace(s.Name); name != "" {
				unscanned = append(unscanned, name)
			}
			log.Debug("site has no scan; skipping", logx.String("site", s.Name))
			continue
		}
		r := site.Record{
			Name:            strings.TrimSpace(s.Name),
			Grade:           *scan.Grade,
			Score:           *scan.Score,
			ValidHTTPS:      scan.ValidHTTPS,
			DowngradesHTTPS: scan.DowngradesHTTPS,
			DefaultsToHTTPS: scan.DefaultsToHTTPS,
			HSTS:            scan.HSTS,
			HSTSPreloaded:   scan.HSTSPreloaded,
			URL:             baseURL + "/sites/" + s.Slug,
		}
		if s.TwitterHandle != nil {
			r.TwitterHandle = strings.TrimSpace(*s.TwitterHandle)
		}
		out = append(out, r)
	}
	if len(unscanned) > 0 {
		log.Warn("skipped unscanned sites", logx.Int("count", len(unscanned)))
	}
	if err := out.Validate(); err != nil {
		return Scorecard{}, err
	}
	return Scorecard{Sites: out, Unscanned: unscanned}, nil
}
