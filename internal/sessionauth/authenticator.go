package sessionauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artisanhosting/artisan-cli/internal/credstore"
	"github.com/artisanhosting/artisan-cli/internal/session"
)

const (
	// DefaultTimeout bounds each exchange when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "artisan-cli"

	// maxErrorBody limits how much of a rejection body is kept for the error message.
	maxErrorBody = 4 << 10
)

// Option configures an Authenticator.
type Option func(*config)

type config struct {
	baseTransport http.RoundTripper
	httpClient    *http.Client
	timeout       time.Duration
	userAgent     string
}

// WithTransport sets a custom base transport for exchanges.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *config) {
		c.baseTransport = transport
	}
}

// WithHTTPClient uses the given client as is. Takes precedence over WithTransport and WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTimeout bounds each exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *config) {
		c.userAgent = userAgent
	}
}

// Authenticator performs login and refresh exchanges against the API.
type Authenticator struct {
	loginURL   string
	refreshURL string
	client     *http.Client
	userAgent  string
}

// Compile-time check to ensure Authenticator implements session.Authenticator
var _ session.Authenticator = (*Authenticator)(nil)

// New creates an Authenticator for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Authenticator, error) {
	cfg := &config{
		baseTransport: http.DefaultTransport,
		timeout:       DefaultTimeout,
		userAgent:     defaultUserAgent,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}

	client := cfg.httpClient
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.timeout,
			Transport: cfg.baseTransport,
		}
	}

	return &Authenticator{
		loginURL:   base.JoinPath("auth", "login").String(),
		refreshURL: base.JoinPath("auth", "refresh").String(),
		client:     client,
		userAgent:  cfg.userAgent,
	}, nil
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type refreshRequest struct {
	ExpiredToken string `json:"expired_token"`
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse is the success body of both exchanges. Refresh is only
// present on login responses.
type tokenResponse struct {
	Auth    string `json:"auth"`
	Refresh string `json:"refresh,omitempty"`
}

// Login exchanges credentials for a new token pair.
func (a *Authenticator) Login(ctx context.Context, creds credstore.Credentials) (session.TokenPair, error) {
	var resp tokenResponse
	err := a.post(ctx, "login", a.loginURL, loginRequest{
		Identifier: creds.Identifier,
		Secret:     creds.Secret,
	}, &resp)
	if err != nil {
		return session.TokenPair{}, err
	}

	if resp.Auth == "" || resp.Refresh == "" {
		return session.TokenPair{}, fmt.Errorf("%w: login response lacks auth or refresh token", ErrMalformedResponse)
	}

	return session.TokenPair{Access: resp.Auth, Refresh: resp.Refresh}, nil
}

// Refresh exchanges an expired access token and its refresh token for a new access token.
func (a *Authenticator) Refresh(ctx context.Context, accessToken, refreshToken string) (string, error) {
	var resp tokenResponse
	err := a.post(ctx, "refresh", a.refreshURL, refreshRequest{
		ExpiredToken: accessToken,
		RefreshToken: refreshToken,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Auth == "" {
		return "", fmt.Errorf("%w: refresh response lacks auth token", ErrMalformedResponse)
	}

	return resp.Auth, nil
}

// post sends body as JSON and decodes a 2xx response into out.
func (a *Authenticator) post(ctx context.Context, endpoint, target string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request: %w", ErrNetwork, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.DebugContext(ctx, "auth exchange completed",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RejectedError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(text)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrMalformedResponse, endpoint, err)
	}
	return nil
}
