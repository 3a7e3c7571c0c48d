package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned when no access token is stored.
	ErrMissingToken = errors.New("no access token, please log in")
	// ErrMalformedClaims reports claims that could not be read. Lifecycle
	// treats such tokens as valid.
	ErrMalformedClaims = errors.New("malformed token claims")
	// ErrFatal matches every error that ends the lifecycle after both fallbacks failed.
	ErrFatal = errors.New("session could not be restored")
)

// FatalError is the terminal outcome of the lifecycle. It unwraps to the
// error that ended it.
type FatalError struct {
	Stage State
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFatal, e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFatal) match.
func (e *FatalError) Is(target error) bool {
	return target == ErrFatal
}
