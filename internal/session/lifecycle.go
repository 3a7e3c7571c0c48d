package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/artisanhosting/artisan-cli/internal/credstore"
	"github.com/artisanhosting/artisan-cli/internal/envfile"
)

const tracerName = "github.com/artisanhosting/artisan-cli/internal/session"

// Authenticator performs the network exchanges of the lifecycle.
type Authenticator interface {
	// Login exchanges credentials for a new token pair.
	Login(ctx context.Context, creds credstore.Credentials) (TokenPair, error)

	// Refresh exchanges an expired access token and its refresh token for a new access token.
	Refresh(ctx context.Context, accessToken, refreshToken string) (string, error)
}

// CredentialStore persists the login credentials used for relogin.
type CredentialStore interface {
	Save(ctx context.Context, creds credstore.Credentials) error
	Load(ctx context.Context) (credstore.Credentials, error)
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithClock overrides the wall clock used for expiry checks.
func WithClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		l.now = now
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// WithTracer sets the tracer. Defaults to the global tracer provider.
func WithTracer(tracer trace.Tracer) LifecycleOption {
	return func(l *Lifecycle) {
		l.tracer = tracer
	}
}

// Lifecycle hands out usable access tokens, refreshing or logging in again
// when the stored one has expired.
type Lifecycle struct {
	session *Session
	auth    Authenticator
	creds   CredentialStore

	now    func() time.Time
	logger *slog.Logger
	tracer trace.Tracer

	// group collapses concurrent Token calls into one state machine run.
	group singleflight.Group
}

// NewLifecycle creates a Lifecycle. No I/O is performed until the first call.
func NewLifecycle(session *Session, auth Authenticator, creds CredentialStore, opts ...LifecycleOption) (*Lifecycle, error) {
	if session == nil {
		return nil, fmt.Errorf("missing session")
	}
	if auth == nil {
		return nil, fmt.Errorf("missing authenticator")
	}
	if creds == nil {
		return nil, fmt.Errorf("missing credential store")
	}

	l := &Lifecycle{
		session: session,
		auth:    auth,
		creds:   creds,
		now:     time.Now,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Inspect reports the state of the stored access token without network access.
func (l *Lifecycle) Inspect() State {
	return Inspect(l.session.Get(KeyAccessToken), l.now())
}

// Token returns a usable access token.
func (l *Lifecycle) Token(ctx context.Context) (string, error) {
	v, err, _ := l.group.Do("token", func() (any, error) {
		return l.token(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (l *Lifecycle) token(ctx context.Context) (string, error) {
	pair := l.session.Pair()

	state := Inspect(pair.Access, l.now())
	switch state {
	case StateAbsent:
		l.logger.WarnContext(ctx, "token not found, please log in")
		return "", ErrMissingToken
	case StateValid:
		if _, _, err := Expiry(pair.Access); err != nil {
			l.logger.DebugContext(ctx, "accepting token with unreadable claims", "error", err)
		}
		return pair.Access, nil
	}

	l.logger.InfoContext(ctx, "token expired, refreshing")
	token, err := l.refresh(ctx, pair)
	if err == nil {
		return token, nil
	}
	if errors.Is(err, envfile.ErrIO) {
		return "", err
	}

	l.logger.WarnContext(ctx, "failed to refresh session, logging back in", "error", err)
	return l.relogin(ctx)
}

// refresh runs the RefreshPending state.
func (l *Lifecycle) refresh(ctx context.Context, pair TokenPair) (_ string, err error) {
	ctx, span := l.tracer.Start(ctx, "session.refresh", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() { endSpan(span, err) }()

	if pair.Refresh == "" {
		return "", errors.New("no refresh token stored")
	}

	access, err := l.auth.Refresh(ctx, pair.Access, pair.Refresh)
	if err != nil {
		return "", err
	}

	// Refresh token is rewritten unchanged so the pair lands in one write.
	if err := l.session.SetPair(ctx, TokenPair{Access: access, Refresh: pair.Refresh}); err != nil {
		return "", fmt.Errorf("persisting refreshed token: %w", err)
	}

	l.logger.InfoContext(ctx, "session refreshed")
	return access, nil
}

// relogin runs the ReloginPending state. Every failure is fatal.
func (l *Lifecycle) relogin(ctx context.Context) (_ string, err error) {
	ctx, span := l.tracer.Start(ctx, "session.relogin", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() { endSpan(span, err) }()

	creds, err := l.creds.Load(ctx)
	if err != nil {
		return "", &FatalError{Stage: StateReloginPending, Err: fmt.Errorf("loading stored credentials: %w", err)}
	}

	pair, err := l.login(ctx, creds)
	if err != nil {
		return "", &FatalError{Stage: StateReloginPending, Err: err}
	}

	return pair.Access, nil
}

// Login exchanges credentials for a token pair and persists the pair and
// the credentials. Credentials are re-saved even when unchanged.
func (l *Lifecycle) Login(ctx context.Context, identifier, secret string) (TokenPair, error) {
	ctx, span := l.tracer.Start(ctx, "session.login", trace.WithSpanKind(trace.SpanKindInternal))
	pair, err := l.login(ctx, credstore.Credentials{Identifier: identifier, Secret: secret})
	endSpan(span, err)
	return pair, err
}

func (l *Lifecycle) login(ctx context.Context, creds credstore.Credentials) (TokenPair, error) {
	pair, err := l.auth.Login(ctx, creds)
	if err != nil {
		return TokenPair{}, fmt.Errorf("login: %w", err)
	}

	if err := l.session.SetPair(ctx, pair); err != nil {
		return TokenPair{}, fmt.Errorf("persisting token pair: %w", err)
	}

	if err := l.creds.Save(ctx, creds); err != nil {
		return TokenPair{}, fmt.Errorf("saving credentials: %w", err)
	}

	l.logger.InfoContext(ctx, "login successful, token acquired")
	return pair, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("session.fatal", errors.Is(err, ErrFatal)))
	}
	span.End()
}
