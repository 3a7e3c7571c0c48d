package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx responses. Message is the free-form
// response body.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("failed to %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("failed to %s: %s", e.Operation, e.Message)
}

// do sends req and decodes a 2xx JSON body into out. out may be nil.
func (c *Client) do(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(text)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", operation, err)
	}
	return nil
}
