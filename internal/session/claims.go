package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// segmentParser only decodes segments; signatures are never verified here.
// Padded and unpadded base64url are both accepted.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// expiryClaim is the only claim the lifecycle reads.
type expiryClaim struct {
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

// Expiry returns the exp claim of a three-segment token.
//
// ok is false for opaque tokens. A three-segment token whose claims cannot
// be decoded, or that lacks exp, returns ErrMalformedClaims.
func Expiry(token string) (exp time.Time, ok bool, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, false, nil
	}

	raw, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, true, fmt.Errorf("%w: %w", ErrMalformedClaims, err)
	}

	var claims expiryClaim
	if err := json.Unmarshal(raw, &claims); err != nil {
		return time.Time{}, true, fmt.Errorf("%w: %w", ErrMalformedClaims, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, true, fmt.Errorf("%w: exp missing", ErrMalformedClaims)
	}

	return claims.ExpiresAt.Time, true, nil
}

// Inspect classifies token at now without any I/O: Absent, Valid or Expired.
func Inspect(token string, now time.Time) State {
	if token == "" {
		return StateAbsent
	}

	exp, ok, err := Expiry(token)
	if !ok || err != nil {
		return StateValid
	}

	if now.Unix() < exp.Unix() {
		return StateValid
	}
	return StateExpired
}
