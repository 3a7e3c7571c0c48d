package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisanhosting/artisan-cli/internal/envfile"
)

func newEnvFile(t *testing.T, content string) *envfile.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	f, err := envfile.New(path)
	require.NoError(t, err)
	return f
}

func TestOpenSeedsFromFile(t *testing.T) {
	f := newEnvFile(t, "API_TOKEN=tok1\nREFRESH_TOKEN=ref1\nOTHER=x\n")

	s, err := Open(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, TokenPair{Access: "tok1", Refresh: "ref1"}, s.Pair())
	assert.Equal(t, "x", s.Get("OTHER"))
	assert.Equal(t, "", s.Get("MISSING"))
}

func TestOpenMissingFile(t *testing.T) {
	s, err := Open(context.Background(), newEnvFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, TokenPair{}, s.Pair())
}

func TestSetWritesThrough(t *testing.T) {
	f := newEnvFile(t, "A=1\n")
	ctx := context.Background()

	s, err := Open(ctx, f)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "A", "2"))
	require.NoError(t, s.SetPair(ctx, TokenPair{Access: "tok", Refresh: "ref"}))

	assert.Equal(t, "2", s.Get("A"))

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, "A=2\nAPI_TOKEN=tok\nREFRESH_TOKEN=ref\n", string(data))
}

func TestSetFailureLeavesCacheUntouched(t *testing.T) {
	f := newEnvFile(t, "API_TOKEN=tok1\n")
	ctx := context.Background()

	s, err := Open(ctx, f)
	require.NoError(t, err)

	err = s.Set(ctx, "API_TOKEN", "bad\nvalue")
	require.ErrorIs(t, err, envfile.ErrInvalidEntry)
	assert.Equal(t, "tok1", s.Get(KeyAccessToken))
}
