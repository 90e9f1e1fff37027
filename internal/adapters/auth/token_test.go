package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketwizard/internal/domain"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwtClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() jwtClaims {
	now := time.Now()
	return jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "u@example.com",
		Name:  "Ada",
	}
}

func TestJWTVerifier_Verify(t *testing.T) {
	secret := "test-secret"
	verifier := NewJWTVerifier(secret)

	token := sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims())
	p, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", p.UserID)
	assert.Equal(t, "u@example.com", p.Email)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, token, p.Token)
}

func TestJWTVerifier_Verify_rejects(t *testing.T) {
	secret := "test-secret"
	verifier := NewJWTVerifier(secret)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims())},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(secret), expired)},
		{"no expiry", sign(t, jwt.SigningMethodHS256, []byte(secret), noExpiry)},
		{"no subject", sign(t, jwt.SigningMethodHS256, []byte(secret), noSubject)},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(secret), validClaims())},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := verifier.Verify(tt.token)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, domain.ErrUnauthorized))
		})
	}
}
