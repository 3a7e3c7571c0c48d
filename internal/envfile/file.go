package envfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrIO wraps filesystem failures while reading or writing the env file.
var ErrIO = errors.New("env file i/o")

// File is an env file on disk.
type File struct {
	path string
}

// New creates a File for the given path, creating parent directories
// with 0700 permissions if they don't exist.
func New(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("env file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return &File{path: path}, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Read returns the current document. A missing file yields an empty document.
func (f *File) Read(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return Parse(string(data)), nil
}

// Update sets a single key. See UpdateAll.
func (f *File) Update(ctx context.Context, key, value string) error {
	return f.UpdateAll(ctx, Entry{Key: key, Value: value})
}

// UpdateAll applies every entry to the current content and writes the
// result in one step, so related keys never land in separate writes.
func (f *File) UpdateAll(ctx context.Context, entries ...Entry) error {
	doc, err := f.Read(ctx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := doc.Set(e.Key, e.Value); err != nil {
			return err
		}
	}

	if err := f.write(ctx, doc.Bytes()); err != nil {
		return err
	}

	for _, e := range entries {
		slog.DebugContext(ctx, "env file updated", "key", e.Key, "path", f.path)
	}
	return nil
}

// write replaces the file using temp file + rename. Permissions are 0600.
func (f *File) write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	tempFile, err := os.CreateTemp(dir, ".env-*.tmp")
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
	if err := os.Rename(tempName, f.path); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	return nil
}
