package sessionauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisanhosting/artisan-cli/internal/credstore"
	"github.com/artisanhosting/artisan-cli/internal/session"
)

func newTestServer(t *testing.T, path string, status int, body string, inspect func(*http.Request, map[string]string)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, path, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err, "request id must be a uuid")

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(r, req)
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative", "://bad"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}

	a, err := New("https://api.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1/auth/login", a.loginURL)
	assert.Equal(t, "https://api.example.com/v1/auth/refresh", a.refreshURL)
}

func TestLogin(t *testing.T) {
	server := newTestServer(t, "/v1/auth/login", http.StatusOK, `{"auth":"tok1","refresh":"ref1"}`,
		func(r *http.Request, req map[string]string) {
			assert.Equal(t, map[string]string{"identifier": "a@example.com", "secret": "pw"}, req)
			assert.Equal(t, "artisan-test", r.Header.Get("User-Agent"))
		})

	a, err := New(server.URL+"/v1/", WithUserAgent("artisan-test"))
	require.NoError(t, err)

	pair, err := a.Login(context.Background(), credstore.Credentials{Identifier: "a@example.com", Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, session.TokenPair{Access: "tok1", Refresh: "ref1"}, pair)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: "invalid credentials", wantErr: ErrAuthRejected},
		{name: "server error", status: http.StatusBadGateway, body: "", wantErr: ErrAuthRejected},
		{name: "missing refresh", status: http.StatusOK, body: `{"auth":"tok1"}`, wantErr: ErrMalformedResponse},
		{name: "missing auth", status: http.StatusOK, body: `{"refresh":"ref1"}`, wantErr: ErrMalformedResponse},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, "/auth/login", tt.status, tt.body, nil)
			a, err := New(server.URL)
			require.NoError(t, err)

			_, err = a.Login(context.Background(), credstore.Credentials{Identifier: "a", Secret: "b"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRejectedErrorCarriesBody(t *testing.T) {
	server := newTestServer(t, "/auth/login", http.StatusUnauthorized, "invalid credentials\n", nil)
	a, err := New(server.URL)
	require.NoError(t, err)

	_, err = a.Login(context.Background(), credstore.Credentials{Identifier: "a", Secret: "b"})

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
	assert.Equal(t, "invalid credentials", rejected.Message)
	assert.EqualError(t, err, "login rejected with status 401: invalid credentials")
}

func TestRefresh(t *testing.T) {
	server := newTestServer(t, "/v1/auth/refresh", http.StatusOK, `{"auth":"tok2"}`,
		func(_ *http.Request, req map[string]string) {
			assert.Equal(t, map[string]string{"expired_token": "tok1", "refresh_token": "ref1"}, req)
		})

	a, err := New(server.URL + "/v1")
	require.NoError(t, err)

	token, err := a.Refresh(context.Background(), "tok1", "ref1")
	require.NoError(t, err)
	assert.Equal(t, "tok2", token)
}

func TestRefreshFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "expired refresh token", status: http.StatusUnauthorized, body: "refresh token expired", wantErr: ErrAuthRejected},
		{name: "missing auth", status: http.StatusOK, body: `{}`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, "/auth/refresh", tt.status, tt.body, nil)
			a, err := New(server.URL)
			require.NoError(t, err)

			_, err = a.Refresh(context.Background(), "tok1", "ref1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	a, err := New(url)
	require.NoError(t, err)

	_, err = a.Refresh(context.Background(), "tok1", "ref1")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	a, err := New(server.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = a.Login(context.Background(), credstore.Credentials{Identifier: "a", Secret: "b"})
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestWithHTTPClient(t *testing.T) {
	server := newTestServer(t, "/auth/refresh", http.StatusOK, `{"auth":"tok2"}`, nil)
	a, err := New(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	token, err := a.Refresh(context.Background(), "tok1", "ref1")
	require.NoError(t, err)
	assert.Equal(t, "tok2", token)
}
