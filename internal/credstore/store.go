package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artisanhosting/artisan-cli/internal/keystore"
)

var (
	// ErrNotFound is returned by Load when no credentials have been saved.
	ErrNotFound = errors.New("credentials not found")
	// ErrDecrypt is returned by Load when the file cannot be decrypted or decoded.
	ErrDecrypt = errors.New("credentials decrypt failed")
	// ErrEncrypt is returned by Save when the payload cannot be encrypted.
	ErrEncrypt = errors.New("credentials encrypt failed")
	// ErrIO wraps filesystem failures.
	ErrIO = errors.New("credentials i/o")
)

// Credentials is the identifier/secret pair used to log in.
type Credentials struct {
	Identifier string
	Secret     string
}

// payload is the plaintext JSON schema. Pointers distinguish a missing
// field from an empty one.
type payload struct {
	Identifier *string `json:"identifier"`
	Secret     *string `json:"secret"`
}

// Store reads and writes the encrypted credentials file.
type Store struct {
	path string
	keys keystore.KeyStore
}

// New creates a Store for the given path, creating parent directories with
// 0700 permissions if they don't exist.
func New(path string, keys keystore.KeyStore) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("credentials path cannot be empty")
	}
	if keys == nil {
		return nil, fmt.Errorf("missing key store")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return &Store{path: path, keys: keys}, nil
}

// Path returns the credentials file location.
func (s *Store) Path() string {
	return s.path
}

// Save encrypts and writes the credentials, replacing any previous file.
func (s *Store) Save(ctx context.Context, creds Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	master, err := keystore.LoadOrCreate(ctx, s.keys)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncrypt, err)
	}

	plaintext, err := json.Marshal(payload{Identifier: &creds.Identifier, Secret: &creds.Secret})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncrypt, err)
	}

	sealed, err := seal(master, plaintext)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncrypt, err)
	}

	if err := writeFile(ctx, s.path, sealed); err != nil {
		return err
	}

	slog.InfoContext(ctx, "credentials saved", "path", s.path)
	return nil
}

// Load reads and decrypts the credentials.
func (s *Store) Load(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	master, err := s.keys.Read(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	plaintext, err := open(master, data)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	if p.Identifier == nil || p.Secret == nil {
		return Credentials{}, fmt.Errorf("%w: payload lacks identifier or secret", ErrDecrypt)
	}

	return Credentials{Identifier: *p.Identifier, Secret: *p.Secret}, nil
}

// writeFile replaces path using temp file + rename with 0600 permissions.
func writeFile(ctx context.Context, path string, data []byte) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := os.Chmod(tempName, 0600); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
