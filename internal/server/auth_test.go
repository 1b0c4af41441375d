package server

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signHS256(t *testing.T, claims jwt.Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthenticateJWT(t *testing.T) {
	p, err := authenticateJWT(signHS256(t, jwt.RegisteredClaims{Subject: "amy"}, "s3cret"), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, Principal{ActorID: "amy", Source: "jwt"}, p)

	p, err = authenticateJWT(signHS256(t, jwt.MapClaims{"sub": "bo", "roles": []string{"admin"}}, "s3cret"), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, Principal{ActorID: "bo", Source: "jwt"}, p)

	_, err = authenticateJWT(signHS256(t, jwt.RegisteredClaims{}, "s3cret"), "s3cret")
	assert.ErrorContains(t, err, "subject claim required")

	_, err = authenticateJWT(signHS256(t, jwt.RegisteredClaims{Subject: "amy"}, "other"), "s3cret")
	assert.Error(t, err)

	_, err = authenticateJWT("anything", "")
	assert.ErrorContains(t, err, "jwt secret not configured")
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
}
