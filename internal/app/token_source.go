package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// TokenProvider hands out a usable access token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// LifecycleTokenSource adapts a TokenProvider to oauth2.TokenSource.
// The provider is consulted once; every later call reuses the outcome, so a
// single command never runs the lifecycle twice.
type LifecycleTokenSource struct {
	token func() (*oauth2.Token, error)
}

// Compile-time check to ensure LifecycleTokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*LifecycleTokenSource)(nil)

// NewLifecycleTokenSource creates a LifecycleTokenSource.
// No I/O is performed until the first Token call.
func NewLifecycleTokenSource(ctx context.Context, provider TokenProvider) (*LifecycleTokenSource, error) {
	if provider == nil {
		return nil, fmt.Errorf("missing token provider")
	}

	return &LifecycleTokenSource{
		// oauth2.TokenSource.Token() has no context parameter (legacy interface limitation),
		// so the command's context is captured here.
		token: sync.OnceValues(func() (*oauth2.Token, error) {
			access, err := provider.Token(ctx)
			if err != nil {
				return nil, err
			}
			return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
		}),
	}, nil
}

// Token returns the access token obtained by the first call.
func (s *LifecycleTokenSource) Token() (*oauth2.Token, error) {
	return s.token()
}
