// Package api calls authenticated Artisan Hosting endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.artisanhosting.net/v1/"

	defaultTimeout = 30 * time.Second
)

// Option configures a Client.
type Option func(*config)

type config struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
}

// WithBaseURL sets the API root.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithTransport sets the base transport below the bearer token layer.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *config) {
		c.transport = transport
	}
}

// Client issues authenticated API requests. The bearer token comes from
// the token source on every request.
type Client struct {
	base       *url.URL
	httpClient *http.Client
}

// New creates a Client authenticating with ts.
func New(ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	if ts == nil {
		return nil, fmt.Errorf("missing token source")
	}

	cfg := &config{
		baseURL:   DefaultBaseURL,
		timeout:   defaultTimeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	base, err := url.Parse(cfg.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &Client{
		base: base,
		httpClient: &http.Client{
			Timeout:   cfg.timeout,
			Transport: &oauth2.Transport{Source: ts, Base: cfg.transport},
		},
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method string, path ...string) (*http.Request, error) {
	target := c.base.JoinPath(path...)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
