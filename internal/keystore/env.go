package keystore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore provides read-only access to a key stored in an environment variable.
// Suitable for CI and containers where secrets are injected externally.
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements KeyStore
var _ KeyStore = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Read returns the key from the environment variable. An unset or empty
// variable reports ErrKeyNotFound.
func (e *EnvStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded := os.Getenv(e.envKey)
	if encoded == "" {
		return nil, fmt.Errorf("%w: environment variable %s is empty", ErrKeyNotFound, e.envKey)
	}
	return decodeKey(encoded)
}

// Write is not supported for environment variables (they are read-only).
func (e *EnvStore) Write(ctx context.Context, _ []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable storage is read-only, set %s manually", e.envKey)
}
