package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the expiry time encoded in a JWT access token.
// The signature is not verified; the server remains the authority on
// token validity, this is only used to anticipate expiry client-side.
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// expiresWithin reports whether the token expires within d from now.
// Tokens that do not parse are treated as not expiring; the server
// will reject them and the 401 path takes over.
func expiresWithin(token string, d time.Duration) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return time.Until(exp) < d
}
