// Package wcl is a client for the Warcraft Logs v2 GraphQL API.
package wcl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	defaultEndpoint   = "https://www.warcraftlogs.com/api/v2/client"
	defaultPageLimit  = 10000
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	initialBackoff    = 1 * time.Second
	maxBackoff        = 16 * time.Second
	maxErrorBody      = 512
)

var (
	ErrNoCredentials = errors.New("no API token or client credentials configured")
	ErrNoData        = errors.New("response has no data")
	ErrRateLimited   = errors.New("rate limited (HTTP 429)")
)

// GraphQLError carries the "errors" array of a failed query.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// StatusError is returned for non-retryable HTTP statuses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ResponseStore persists raw response bodies keyed by the request body.
// Implementations must be safe for concurrent use.
type ResponseStore interface {
	Get(ctx context.Context, request []byte) ([]byte, bool, error)
	Put(ctx context.Context, request, response []byte) error
}

// Options configures a Client. Zero values fall back to defaults;
// MaxRetries 0 disables retries and a negative value selects the default.
type Options struct {
	Endpoint     string
	TokenURL     string
	Token        string
	ClientID     string
	ClientSecret string

	RequestsPerSecond float64
	Timeout           time.Duration
	PageLimit         int
	MaxRetries        int

	// Base backoff between retries; doubled per attempt up to 16s.
	RetryBackoff time.Duration

	// Base transport for the authenticated client.
	HTTPClient *http.Client

	// Optional; nil disables response persistence.
	Store ResponseStore
}

// Client issues rate-limited, authenticated GraphQL queries.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	pageLimit   int
	maxRetries  int
	backoff     time.Duration
	store       ResponseStore
}

// NewClient creates a client authenticated either with a static bearer
// token or with the OAuth2 client-credentials flow.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	var hc *http.Client
	switch {
	case opts.Token != "":
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
	case opts.ClientID != "" && opts.ClientSecret != "":
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		hc = cc.Client(ctx)
	default:
		return nil, ErrNoCredentials
	}

	hc.Timeout = opts.Timeout
	if hc.Timeout <= 0 {
		hc.Timeout = defaultTimeout
	}

	c := &Client{
		endpoint:   opts.Endpoint,
		httpClient: hc,
		pageLimit:  opts.PageLimit,
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
		store:      opts.Store,
	}
	if c.endpoint == "" {
		c.endpoint = defaultEndpoint
	}
	if c.pageLimit <= 0 {
		c.pageLimit = defaultPageLimit
	}
	if c.maxRetries < 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.backoff <= 0 {
		c.backoff = initialBackoff
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	c.rateLimiter = rate.NewLimiter(limit, 1)

	return c, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// query runs a GraphQL query and returns its "data" member.
// Nil variables are dropped from the request.
func (c *Client) query(ctx context.Context, q string, vars map[string]any) (gjson.Result, error) {
	for k, v := range vars {
		if v == nil {
			delete(vars, k)
		}
	}

	// encoding/json sorts map keys, so equal queries produce equal bodies.
	reqBody, err := json.Marshal(graphqlRequest{Query: q, Variables: vars})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encoding request: %w", err)
	}

	if body, ok := c.cached(ctx, reqBody); ok {
		return parseResponse(body)
	}

	body, err := c.doRequest(ctx, reqBody)
	if err != nil {
		return gjson.Result{}, err
	}

	data, err := parseResponse(body)
	if err != nil {
		return gjson.Result{}, err
	}

	if c.store != nil {
		if err := c.store.Put(ctx, reqBody, body); err != nil {
			slog.Warn("storing response", "err", err)
		}
	}
	return data, nil
}

func (c *Client) cached(ctx context.Context, reqBody []byte) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	body, ok, err := c.store.Get(ctx, reqBody)
	if err != nil {
		slog.Warn("reading stored response", "err", err)
		return nil, false
	}
	return body, ok
}

func parseResponse(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid JSON response: %s", truncate(body))
	}
	res := gjson.ParseBytes(body)

	if errs := res.Get("errors"); errs.Exists() && len(errs.Array()) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range errs.Array() {
			gqlErr.Messages = append(gqlErr.Messages, e.Get("message").String())
		}
		return gjson.Result{}, gqlErr
	}

	data := res.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return gjson.Result{}, ErrNoData
	}
	return data, nil
}

// doRequest performs the POST with rate limiting and retry logic.
// Network errors, 429 and 5xx responses are retried with exponential backoff.
func (c *Client) doRequest(ctx context.Context, reqBody []byte) ([]byte, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = min(backoff*2, maxBackoff)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, retryAfter, err := c.post(ctx, reqBody)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if permanent(err) || ctx.Err() != nil {
			return nil, err
		}
		if retryAfter > 0 {
			backoff = retryAfter
		}
		slog.Debug("retrying request", "attempt", attempt+1, "err", err)
	}
	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// post sends one request. A positive retryAfter is the server's hint.
func (c *Client) post(ctx context.Context, reqBody []byte) (body []byte, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if d, err := time.ParseDuration(ra + "s"); err == nil {
				retryAfter = d
			}
		}
		return nil, retryAfter, ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, 0, fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(body))
	default:
		return nil, 0, &StatusError{StatusCode: resp.StatusCode, Body: truncate(body)}
	}
}

// permanent reports errors that a retry cannot fix: non-retryable
// statuses and token endpoint rejections such as invalid_client.
func permanent(err error) bool {
	var se *StatusError
	var re *oauth2.RetrieveError
	return errors.As(err, &se) || errors.As(err, &re)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
