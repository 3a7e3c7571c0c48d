package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.Handler, ts oauth2.TokenSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if ts == nil {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok1"})
	}
	client, err := New(ts, WithBaseURL(server.URL+"/v1/"))
	require.NoError(t, err)
	return client
}

func TestNewRequiresTokenSource(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestWhoAmI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/whoami", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"you":{"roles":"admin","expires":600}}`))
	})
	mux.HandleFunc("GET /v1/account/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"user_id":"alice"}`))
	})

	client := newTestClient(t, mux, nil)

	identity, err := client.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", identity.Role)
	assert.Equal(t, uint64(600), identity.Expires)
	assert.Equal(t, "10m0s", identity.ExpiresIn().String())

	account, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", account.UserID)
}

func TestWhoAmIWithoutIdentity(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}), nil)

	identity, err := client.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Identity{}, *identity)
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "ok", status: http.StatusOK, body: `{"ok":true}`},
		{name: "rejected", status: http.StatusForbidden, body: "  not allowed \n", wantErr: "failed to discover: not allowed"},
		{name: "empty body", status: http.StatusInternalServerError, wantErr: "failed to discover: status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/discover", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}), nil)

			err := client.Discover(context.Background())
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

type failingSource struct{ err error }

func (f failingSource) Token() (*oauth2.Token, error) { return nil, f.err }

func TestTokenSourceErrorAbortsRequest(t *testing.T) {
	errNoToken := errors.New("no token")
	called := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), failingSource{err: errNoToken})

	err := client.Discover(context.Background())
	assert.ErrorIs(t, err, errNoToken)
	assert.False(t, called, "request must not reach the server")
}
