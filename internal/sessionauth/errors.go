package sessionauth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRejected is returned when the server declines a login or refresh.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrNetwork is returned when the exchange could not be completed.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse is returned when a success response lacks the expected tokens.
	ErrMalformedResponse = errors.New("malformed response")
)

// RejectedError carries the status and free-form body of a rejected exchange.
type RejectedError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s rejected with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s rejected with status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrAuthRejected) match.
func (e *RejectedError) Is(target error) bool {
	return target == ErrAuthRejected
}
