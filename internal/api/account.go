package api

import (
	"context"
	"net/http"
	"time"
)

// Account is the caller's user record.
type Account struct {
	UserID string `json:"user_id"`
}

// Identity describes the authenticated session.
type Identity struct {
	Role    string `json:"roles"`
	Expires uint64 `json:"expires"`
}

// ExpiresIn returns the remaining session lifetime.
func (i Identity) ExpiresIn() time.Duration {
	return time.Duration(i.Expires) * time.Second
}

type whoamiResponse struct {
	You *Identity `json:"you,omitempty"`
}

// Me returns the account of the current user.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "account", "me")
	if err != nil {
		return nil, err
	}

	var account Account
	if err := c.do(req, "get user id", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// WhoAmI returns the role and remaining lifetime of the current session.
// A response without identity data yields an empty Identity.
func (c *Client) WhoAmI(ctx context.Context) (*Identity, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "whoami")
	if err != nil {
		return nil, err
	}

	var resp whoamiResponse
	if err := c.do(req, "identify user", &resp); err != nil {
		return nil, err
	}
	if resp.You == nil {
		return &Identity{}, nil
	}
	return resp.You, nil
}

// Discover checks that the API accepts the current session.
func (c *Client) Discover(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "discover")
	if err != nil {
		return err
	}
	return c.do(req, "discover", nil)
}
