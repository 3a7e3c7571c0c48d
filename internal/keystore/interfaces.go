package keystore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// KeySize is the length of a master key in bytes.
const KeySize = 32

// ErrKeyNotFound is returned when no key has been stored yet.
var ErrKeyNotFound = errors.New("master key not found")

// KeyStore reads and writes the master key.
type KeyStore interface {
	// Read returns the stored key. Returns ErrKeyNotFound if none is stored.
	Read(ctx context.Context) ([]byte, error)

	// Write persists the key, overwriting any existing value. Returns error if
	// the backend is read-only (e.g., environment variables).
	Write(ctx context.Context, key []byte) error
}

func encodeKey(key []byte) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("invalid key size %d (expected %d)", len(key), KeySize)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func decodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding master key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size %d (expected %d)", len(key), KeySize)
	}
	return key, nil
}
