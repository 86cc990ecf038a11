// Package riot is a rate-limited client for the Riot match and account APIs.
//
// Match and timeline payloads are returned as raw JSON so callers can archive
// them before decoding with DecodeMatch.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrNotFound     = errors.New("riot: not found")
	ErrUnauthorized = errors.New("riot: unauthorized")
	ErrRateLimited  = errors.New("riot: rate limited")
)

// Development key limits.
const (
	DefaultRequestsPerSecond     = 20
	DefaultRequestsPerTwoMinutes = 100
	DefaultMaxRetries            = 3
	DefaultTimeout               = 30 * time.Second

	maxRetryAfter = 2 * time.Minute
)

// platformRegions maps a platform id to the regional host that serves
// account and match-v5 requests.
var platformRegions = map[string]string{
	"na1":  "americas",
	"br1":  "americas",
	"la1":  "americas",
	"la2":  "americas",
	"euw1": "europe",
	"eun1": "europe",
	"tr1":  "europe",
	"ru":   "europe",
	"me1":  "europe",
	"kr":   "asia",
	"jp1":  "asia",
	"oc1":  "sea",
	"ph2":  "sea",
	"sg2":  "sea",
	"th2":  "sea",
	"tw2":  "sea",
	"vn2":  "sea",
}

// RegionFor returns the regional routing value for a platform id.
func RegionFor(platform string) (string, error) {
	r, ok := platformRegions[strings.ToLower(platform)]
	if !ok {
		return "", fmt.Errorf("unknown platform %q", platform)
	}
	return r, nil
}

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	APIKey                string
	Platform              string
	RequestsPerSecond     int
	RequestsPerTwoMinutes int
	MaxRetries            int
	Timeout               time.Duration

	// BaseURL replaces https://<region>.api.riotgames.com.
	BaseURL string
	// InitialBackoff is the first retry delay (default 1s).
	InitialBackoff time.Duration
}

// Client is a Riot API client shared by concurrent callers.
type Client struct {
	apiKey     string
	baseURL    string
	http       *http.Client
	perSecond  *rate.Limiter
	perTwoMin  *rate.Limiter
	maxRetries int
	initial    time.Duration
	logger     *zap.Logger
}

// NewClient returns a client for the platform in opts.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("riot api key not set (RIOT_API_KEY)")
	}
	if opts.Platform == "" {
		opts.Platform = "na1"
	}
	region, err := RegionFor(opts.Platform)
	if err != nil {
		return nil, err
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.RequestsPerTwoMinutes <= 0 {
		opts.RequestsPerTwoMinutes = DefaultRequestsPerTwoMinutes
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := opts.BaseURL
	if base == "" {
		base = "https://" + region + ".api.riotgames.com"
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(base, "/"),
		http:       &http.Client{Timeout: opts.Timeout},
		perSecond:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond),
		perTwoMin:  rate.NewLimiter(rate.Every(2*time.Minute/time.Duration(opts.RequestsPerTwoMinutes)), opts.RequestsPerTwoMinutes),
		maxRetries: opts.MaxRetries,
		initial:    opts.InitialBackoff,
		logger:     logger,
	}, nil
}

// statusError carries a non-200 response.
type statusError struct {
	path       string
	code       int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.path, e.code)
}

func (e *statusError) Unwrap() error {
	switch e.code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// get performs a rate-limited, retried GET and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.MaxInterval = 30 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		body, err := c.do(ctx, path)
		if err == nil {
			return body, nil
		}
		var se *statusError
		if !errors.As(err, &se) {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		if !retryable(se.code) {
			return nil, backoff.Permanent(err)
		}
		c.logger.Warn("riot request failed, retrying",
			zap.String("path", path),
			zap.Int("status", se.code),
			zap.Int("attempt", attempt),
			zap.Duration("retry_after", se.retryAfter),
		)
		if se.retryAfter > 0 {
			select {
			case <-time.After(se.retryAfter):
			case <-ctx.Done():
				return nil, backoff.Permanent(ctx.Err())
			}
		}
		return nil, err
	}
	return backoff.RetryWithData(op, policy)
}

func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	if err := c.perSecond.Wait(ctx); err != nil {
		return nil, err
	}
	if err := c.perTwoMin.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &statusError{
			path:       path,
			code:       resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

// parseRetryAfter reads a delay in seconds, capped at maxRetryAfter.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}

// Account is the subset of account-v1 we use.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// RiotID returns GameName#TagLine.
func (a *Account) RiotID() string {
	return a.GameName + "#" + a.TagLine
}

// ParseRiotID splits "GameName#TAG".
func ParseRiotID(s string) (gameName, tagLine string, err error) {
	name, tag, ok := strings.Cut(s, "#")
	name, tag = strings.TrimSpace(name), strings.TrimSpace(tag)
	if !ok || name == "" || tag == "" {
		return "", "", fmt.Errorf("invalid riot id %q: want GameName#TAG", s)
	}
	return name, tag, nil
}

// GetAccountByRiotID resolves a Riot ID to an account.
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error) {
	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(gameName), url.PathEscape(tagLine))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var a Account
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &a, nil
}

// GetMatchIDs returns up to count recent match ids for a player, newest
// first. queue 0 means all queues.
func (c *Client) GetMatchIDs(ctx context.Context, puuid string, count, queue int) ([]string, error) {
	q := url.Values{}
	q.Set("start", "0")
	q.Set("count", strconv.Itoa(count))
	if queue > 0 {
		q.Set("queue", strconv.Itoa(queue))
	}
	path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids?%s", url.PathEscape(puuid), q.Encode())
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode match ids: %w", err)
	}
	return ids, nil
}

// GetMatch returns the raw match-v5 payload.
func (c *Client) GetMatch(ctx context.Context, matchID string) ([]byte, error) {
	return c.get(ctx, "/lol/match/v5/matches/"+url.PathEscape(matchID))
}

// GetTimeline returns the raw match-v5 timeline payload.
func (c *Client) GetTimeline(ctx context.Context, matchID string) ([]byte, error) {
	return c.get(ctx, "/lol/match/v5/matches/"+url.PathEscape(matchID)+"/timeline")
}
