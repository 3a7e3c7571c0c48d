package keystore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// FailoverStore keeps the key in a primary store and switches to a fallback
// store when the primary is unusable, e.g. a keyring backend on a host
// without a Secret Service.
type FailoverStore struct {
	primary  KeyStore
	fallback KeyStore
}

// Compile-time check to ensure FailoverStore implements KeyStore
var _ KeyStore = (*FailoverStore)(nil)

// NewFailoverStore creates a FailoverStore. Both stores are required.
func NewFailoverStore(primary, fallback KeyStore) (*FailoverStore, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary key store is required")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback key store is required")
	}
	return &FailoverStore{primary: primary, fallback: fallback}, nil
}

// Read returns the primary's key, or the fallback's when the primary has none
// or fails. ErrKeyNotFound is returned only when neither store holds a key.
func (f *FailoverStore) Read(ctx context.Context) ([]byte, error) {
	key, primaryErr := f.primary.Read(ctx)
	if primaryErr == nil {
		return key, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := f.fallback.Read(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, errors.Join(primaryErr, err)
	}
	if !errors.Is(primaryErr, ErrKeyNotFound) {
		slog.WarnContext(ctx, "primary key store unavailable", "error", primaryErr)
	}
	return nil, err
}

// Write stores the key in the primary, falling back when the primary rejects it.
func (f *FailoverStore) Write(ctx context.Context, key []byte) error {
	primaryErr := f.primary.Write(ctx, key)
	if primaryErr == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := f.fallback.Write(ctx, key); err != nil {
		return errors.Join(primaryErr, err)
	}
	slog.WarnContext(ctx, "stored master key in fallback store", "error", primaryErr)
	return nil
}
