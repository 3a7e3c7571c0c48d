package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artisanhosting/artisan-cli/internal/api"
	"github.com/artisanhosting/artisan-cli/internal/credstore"
	"github.com/artisanhosting/artisan-cli/internal/envfile"
	"github.com/artisanhosting/artisan-cli/internal/session"
	"github.com/artisanhosting/artisan-cli/internal/sessionauth"
)

// App wires the session components for one CLI invocation.
type App struct {
	cfg       *Config
	session   *session.Session
	lifecycle *session.Lifecycle
	client    *api.Client
}

// Status describes the stored session without contacting the API.
type Status struct {
	State           session.State
	EnvFile         string
	HasRefreshToken bool
	// ExpiresAt is zero when the access token carries no readable expiry.
	ExpiresAt time.Time
}

// New creates a new App instance for one CLI invocation. The session env
// file is read here; the credentials file and the master key are only
// touched when needed. ctx bounds the lifecycle run behind API calls.
func New(ctx context.Context, cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	envFile, err := envfile.New(cfg.State.EnvPath())
	if err != nil {
		return nil, fmt.Errorf("failed to create env file: %w", err)
	}

	sess, err := session.Open(ctx, envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	keys, err := cfg.Credentials.NewKeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create key store: %w", err)
	}

	creds, err := credstore.New(cfg.State.CredentialsPath(), keys)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	auth, err := sessionauth.New(cfg.API.BaseURL, sessionauth.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	lifecycle, err := session.NewLifecycle(sess, auth, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create token lifecycle: %w", err)
	}

	// Every API call of this App shares one token source, so the lifecycle
	// runs at most once per invocation.
	ts, err := NewLifecycleTokenSource(ctx, lifecycle)
	if err != nil {
		return nil, fmt.Errorf("failed to create token source: %w", err)
	}

	client, err := api.New(ts,
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return &App{
		cfg:       cfg,
		session:   sess,
		lifecycle: lifecycle,
		client:    client,
	}, nil
}

// Login authenticates with the given credentials and persists the session.
func (a *App) Login(ctx context.Context, identifier, secret string) error {
	if _, err := a.lifecycle.Login(ctx, identifier, secret); err != nil {
		return err
	}
	slog.InfoContext(ctx, "session stored", "env_file", a.cfg.State.EnvPath())
	return nil
}

// Token returns a usable access token, refreshing or logging in again as needed.
func (a *App) Token(ctx context.Context) (string, error) {
	return a.lifecycle.Token(ctx)
}

// Status reports the stored session state.
func (a *App) Status() Status {
	pair := a.session.Pair()
	status := Status{
		State:           a.lifecycle.Inspect(),
		EnvFile:         a.cfg.State.EnvPath(),
		HasRefreshToken: pair.Refresh != "",
	}
	if exp, ok, _ := session.Expiry(pair.Access); ok {
		status.ExpiresAt = exp
	}
	return status
}

// Identity is what the API reports about the session.
type Identity struct {
	// UserID is empty when the account lookup failed.
	UserID    string
	Role      string
	ExpiresIn time.Duration
}

// Identify looks up the account and role behind the session. A failed
// account lookup leaves UserID empty instead of failing the call.
func (a *App) Identify(ctx context.Context) (*Identity, error) {
	whoami, err := a.client.WhoAmI(ctx)
	if err != nil {
		return nil, err
	}
	identity := &Identity{Role: whoami.Role, ExpiresIn: whoami.ExpiresIn()}

	account, err := a.client.Me(ctx)
	if err != nil {
		slog.WarnContext(ctx, "account lookup failed", "error", err)
		return identity, nil
	}
	identity.UserID = account.UserID
	return identity, nil
}

// WhoAmI returns the identity the API associates with the session.
func (a *App) WhoAmI(ctx context.Context) (*api.Identity, error) {
	return a.client.WhoAmI(ctx)
}

// Me returns the account behind the session.
func (a *App) Me(ctx context.Context) (*api.Account, error) {
	return a.client.Me(ctx)
}

// Discover calls the discovery endpoint with the session token.
func (a *App) Discover(ctx context.Context) error {
	return a.client.Discover(ctx)
}
