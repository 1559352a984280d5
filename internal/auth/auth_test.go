package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, _, err := NewAccessToken("admin", RoleAdmin, "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "admin", claims.Subject)

	_, err = ParseAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestExpiredAccessToken(t *testing.T) {
	token, _, err := NewAccessToken("admin", RoleAdmin, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestPasswordVerifier(t *testing.T) {
	v, err := NewPasswordVerifier("", "")
	require.NoError(t, err)
	assert.Nil(t, v)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	v, err = NewPasswordVerifier("ignored", string(hash))
	require.NoError(t, err)

	ok, err := v.Verify("hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify("ignored")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewPasswordVerifier("", "not-a-bcrypt-hash")
	assert.Error(t, err)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &CustomClaims{Role: RoleAdmin})
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, claims.Role)
}
