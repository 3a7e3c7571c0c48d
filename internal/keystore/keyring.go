package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps the key in OS-native secure credential storage.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements KeyStore
var _ KeyStore = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Read returns the key from the system keyring.
func (k *KeyringStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: keyring service %s, user %s", ErrKeyNotFound, k.service, k.user)
	}
	if err != nil {
		return nil, fmt.Errorf("reading keyring: %w", err)
	}

	return decodeKey(encoded)
}

// Write persists the key to the system keyring, overwriting any existing value.
func (k *KeyringStore) Write(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := encodeKey(key)
	if err != nil {
		return err
	}
	return keyring.Set(k.service, k.user, encoded)
}
