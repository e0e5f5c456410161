// Package twitter posts notifications through the X (Twitter) API v2,
// signing requests with OAuth 1.0a user context.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	kit "stnbot/internal/transport"
	logx "stnbot/pkg/logx"
)

const (
	defaultBaseURL    = "https://api.twitter.com"
	defaultRatePerMin = 5
	requestTimeout    = 20 * time.Second
)

type Config struct {
	AppKey           string
	AppSecret        string
	OAuthToken       string
	OAuthTokenSecret string
	// Operator is the screen name that receives direct messages.
	Operator   string
	BaseURL    string
	RatePerMin int
}

// Client implements transport.Poster.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter *rate.Limiter
	log     logx.Logger

	mu         sync.Mutex
	operatorID string
}

var _ kit.Poster = (*Client)(nil)

func New(cfg Config, log logx.Logger) (*Client, error) {
	if cfg.AppKey == "" || cfg.AppSecret == "" || cfg.OAuthToken == "" || cfg.OAuthTokenSecret == "" {
		return nil, errors.New("twitter credentials are incomplete")
	}
	cfg.Operator = strings.TrimPrefix(strings.TrimSpace(cfg.Operator), "@")
	if cfg.Operator == "" {
		return nil, errors.New("twitter operator screen name is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = defaultRatePerMin
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	oc := oauth1.NewConfig(cfg.AppKey, cfg.AppSecret)
	hc := oc.Client(context.Background(), oauth1.NewToken(cfg.OAuthToken, cfg.OAuthTokenSecret))

	rc := resty.NewWithClient(hc)
	rc.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	rc.SetTimeout(requestTimeout)
	rc.SetHeader("Content-Type", "application/json")

	return &Client{
		cfg:  cfg,
		http: rc,
		// One call at a time, spaced to the configured per-minute budget.
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMin)), 1),
		log:     log.With(logx.String("comp", "twitter")),
	}, nil
}

type tweetRequest struct {
	Text  string     `json:"text"`
	Reply *tweetRepl `json:"reply,omitempty"`
}

type tweetRepl struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type idResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Errors []apiErrorItem `json:"errors,omitempty"`
}

type dmRequest struct {
	Text string `json:"text"`
}

type dmResponse struct {
	Data struct {
		DMEventID string `json:"dm_event_id"`
	} `json:"data"`
	Errors []apiErrorItem `json:"errors,omitempty"`
}

type apiErrorItem struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// apiError is the v2 problem document plus the legacy errors array.
type apiError struct {
	Title  string         `json:"title"`
	Detail string         `json:"detail"`
	Status int            `json:"status"`
	Errors []apiErrorItem `json:"errors"`
}

func (e *apiError) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Title != "" {
		return e.Title
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].text()
	}
	return ""
}

func (i apiErrorItem) text() string {
	if i.Message != "" {
		return i.Message
	}
	return i.Detail
}

// Post publishes a tweet, optionally as a reply.
func (c *Client) Post(ctx context.Context, text string, replyTo *kit.PostRef) (kit.PostRef, error) {
	body := tweetRequest{Text: text}
	if replyTo != nil && replyTo.ID != "" {
		body.Reply = &tweetRepl{InReplyToTweetID: replyTo.ID}
	}
	var out idResponse
	if err := c.do(ctx, "/2/tweets", body, &out); err != nil {
		return kit.PostRef{}, err
	}
	if out.Data.ID == "" {
		return kit.PostRef{}, fmt.Errorf("twitter: tweet not created: %s", firstError(out.Errors))
	}
	c.log.Debug("tweet posted", logx.String("id", out.Data.ID), logx.Bool("reply", body.Reply != nil))
	return kit.PostRef{ID: out.Data.ID}, nil
}

// DirectMessage sends text to the operator account.
func (c *Client) DirectMessage(ctx context.Context, text string) error {
	id, err := c.resolveOperator(ctx)
	if err != nil {
		return err
	}
	var out dmResponse
	if err := c.do(ctx, "/2/dm_conversations/with/"+id+"/messages", dmRequest{Text: text}, &out); err != nil {
		return err
	}
	if out.Data.DMEventID == "" && len(out.Errors) > 0 {
		return fmt.Errorf("twitter: direct message not sent: %s", firstError(out.Errors))
	}
	return nil
}

// resolveOperator maps the operator screen name to a user id once.
func (c *Client) resolveOperator(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.operatorID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	var out idResponse
	var apiErr apiError
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/2/users/by/username/" + c.cfg.Operator)
	if err != nil {
		return "", fmt.Errorf("twitter: lookup operator: %w", err)
	}
	if res.IsError() {
		return "", statusError(res, &apiErr)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("twitter: operator %q not found: %s", c.cfg.Operator, firstError(out.Errors))
	}

	c.mu.Lock()
	c.operatorID = out.Data.ID
	c.mu.Unlock()
	return out.Data.ID, nil
}

func (c *Client) do(ctx context.Context, path string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var apiErr apiError
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("twitter: %s: %w", path, err)
	}
	if res.IsError() {
		return statusError(res, &apiErr)
	}
	return nil
}

func statusError(res *resty.Response, e *apiError) error {
	if msg := e.message(); msg != "" {
		return fmt.Errorf("twitter: http %d: %s", res.StatusCode(), msg)
	}
	return fmt.Errorf("twitter: http %d", res.StatusCode())
}

func firstError(items []apiErrorItem) string {
	if len(items) == 0 {
		return "empty response"
	}
	return items[0].text()
}
