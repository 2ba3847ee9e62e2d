package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation-backend/pkg/middleware"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	signed, err := GenerateSessionToken(testSecret, "65f000000000000000000001", "Admin", true)
	require.NoError(t, err)

	token, err := jwt.ParseWithClaims(signed, &middleware.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(*middleware.UserClaims)
	require.True(t, ok)
	assert.Equal(t, "65f000000000000000000001", claims.UserID)
	assert.Equal(t, "Admin", claims.Role)
	assert.True(t, claims.IsVerify)
	assert.WithinDuration(t, claims.IssuedAt.Add(SessionTokenTTL), claims.ExpiresAt.Time, 0)
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	signed, err := GenerateVerifyToken(testSecret, "65f000000000000000000002")
	require.NoError(t, err)

	userID, err := ParseVerifyToken(testSecret, signed)
	require.NoError(t, err)
	assert.Equal(t, "65f000000000000000000002", userID)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	signed, err := GenerateVerifyToken(testSecret, "65f000000000000000000002")
	require.NoError(t, err)

	_, err = ParseVerifyToken("other-secret", signed)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	_, err := ParseVerifyToken(testSecret, "not-a-token")
	assert.Error(t, err)
}
