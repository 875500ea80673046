package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)

	got, ok := TokenExpiry(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp), "got %v, want %v", got, exp)
}

func TestTokenExpiryMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"opaque", "not-a-jwt"},
		{"wrong segment count", "aaaa.bbbb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := TokenExpiry(tt.token)
			assert.False(t, ok)
		})
	}
}

func TestExpiresWithin(t *testing.T) {
	soon := signedToken(t, time.Now().Add(10*time.Second))
	later := signedToken(t, time.Now().Add(10*time.Minute))

	assert.True(t, expiresWithin(soon, 30*time.Second))
	assert.False(t, expiresWithin(later, 30*time.Second))

	// Unparseable tokens are left for the server to reject.
	assert.False(t, expiresWithin("opaque-token", 30*time.Second))
}
