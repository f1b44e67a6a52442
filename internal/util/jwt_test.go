package util

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidateJWT(t *testing.T) {
	claims := &Claims{
		Email: "jane@example.com",
		StandardClaims: jwt.StandardClaims{
			Subject:   "user_1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	token, err := SignJWT(claims, "test-secret")
	require.NoError(t, err)

	got, err := ValidateJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user_1", got.Subject)
	assert.Equal(t, "jane@example.com", got.Email)
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := SignJWT(&Claims{StandardClaims: jwt.StandardClaims{Subject: "user_1"}}, "secret-a")
	require.NoError(t, err)

	_, err = ValidateJWT(token, "secret-b")
	require.Error(t, err)
}

func TestValidateJWTExpired(t *testing.T) {
	token, err := SignJWT(&Claims{StandardClaims: jwt.StandardClaims{
		Subject:   "user_1",
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}}, "test-secret")
	require.NoError(t, err)

	_, err = ValidateJWT(token, "test-secret")
	require.Error(t, err)
}

func TestValidateJWTGarbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", "test-secret")
	require.Error(t, err)
}
