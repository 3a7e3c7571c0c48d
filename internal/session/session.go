package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/artisanhosting/artisan-cli/internal/envfile"
)

// Env file keys holding the token pair.
const (
	KeyAccessToken  = "API_TOKEN"
	KeyRefreshToken = "REFRESH_TOKEN"
)

// TokenPair is an access token and the refresh token issued with it.
type TokenPair struct {
	Access  string
	Refresh string
}

// Session is the process-local view of the env file. Reads come from the
// cache; writes go to the file first and update the cache only on success.
type Session struct {
	file *envfile.File

	mu     sync.RWMutex
	values map[string]string
}

// Open seeds a Session from the env file.
func Open(ctx context.Context, file *envfile.File) (*Session, error) {
	if file == nil {
		return nil, fmt.Errorf("missing env file")
	}

	doc, err := file.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	return &Session{
		file:   file,
		values: doc.Values(),
	}, nil
}

// Get returns the cached value for key, or "" if unset.
func (s *Session) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set writes key through to the env file.
func (s *Session) Set(ctx context.Context, key, value string) error {
	return s.setAll(ctx, envfile.Entry{Key: key, Value: value})
}

// Pair returns the cached token pair.
func (s *Session) Pair() TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TokenPair{
		Access:  s.values[KeyAccessToken],
		Refresh: s.values[KeyRefreshToken],
	}
}

// SetPair writes both tokens in a single file update.
func (s *Session) SetPair(ctx context.Context, pair TokenPair) error {
	return s.setAll(ctx,
		envfile.Entry{Key: KeyAccessToken, Value: pair.Access},
		envfile.Entry{Key: KeyRefreshToken, Value: pair.Refresh},
	)
}

func (s *Session) setAll(ctx context.Context, entries ...envfile.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.UpdateAll(ctx, entries...); err != nil {
		return err
	}
	for _, e := range entries {
		s.values[e.Key] = e.Value
	}
	return nil
}
