package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	logx "stnbot/pkg/logx"
)

// scrapeSource reads the leaderboard page and decodes the JSON the page
// embeds in a script tag for its own front-end.
type scrapeSource struct {
	cfg    Config
	client *resty.Client
	log    logx.Logger
}

func (s *scrapeSource) Fetch(ctx context.Context) (Scorecard, error) {
	url := s.cfg.BaseURL + s.cfg.PagePath
	body, err := get(ctx, s.client, url, nil)
	if err != nil {
		return Scorecard{}, err
	}
	raw, err := extractScript(body, s.cfg.ScriptSelector)
	if err != nil {
		return Scorecard{}, &FetchError{URL: url, Err: err}
	}
	sites, err := decodeSites([]byte(raw))
	if err != nil {
		return Scorecard{}, &FetchError{URL: url, Err: err}
	}
	card, err := normalize(s.cfg.BaseURL, sites, s.log)
	if err != nil {
		return Scorecard{}, &FetchError{URL: url, Err: err}
	}
	s.log.Info("scraped scorecard", logx.Int("sites", len(card.Sites)), logx.Int("unscanned", len(card.Unscanned)))
	return card, nil
}

func extractScript(page []byte, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	raw := strings.TrimSpace(sel.Text())
	if raw == "" {
		return "", fmt.Errorf("element %q is empty", selector)
	}
	return raw, nil
}
