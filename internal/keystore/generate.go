package keystore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
)

// LoadOrCreate returns the stored key, generating and persisting a new random
// key on first use.
func LoadOrCreate(ctx context.Context, store KeyStore) ([]byte, error) {
	key, err := store.Read(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating master key: %w", err)
	}

	if err := store.Write(ctx, key); err != nil {
		return nil, fmt.Errorf("storing new master key: %w", err)
	}

	slog.InfoContext(ctx, "generated new credentials master key")
	return key, nil
}
