package source

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"

	logx "stnbot/pkg/logx"
)

// apiSource reads the paginated JSON API in one request (limit covers the
// whole leaderboard).
type apiSource struct {
	cfg    Config
	client *resty.Client
	log    logx.Logger
}

func (s *apiSource) Fetch(ctx context.Context) (Scorecard, error) {
	url := s.cfg.BaseURL + "/api/v1/sites/"
	body, err := get(ctx, s.client, url, map[string]string{"limit": strconv.Itoa(s.cfg.Limit)})
	if err != nil {
		return Scorecard{}, err
	}
	sites, err := decodeSites(body)
	if err != nil {
		return Scorecard{}, &FetchError{URL: url, Err: err}
	}
	card, err := normalize(s.cfg.BaseURL, sites, s.log)
	if err != nil {
		return Scorecard{}, &FetchError{URL: url, Err: err}
	}
	s.log.Info("fetched scorecard", logx.Int("sites", len(card.Sites)), logx.Int("unscanned", len(card.Unscanned)))
	return card, nil
}
