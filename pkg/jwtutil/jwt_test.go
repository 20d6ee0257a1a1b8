package jwtutil

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})

	token, err := j.GenerateToken("tenant_acme", 3, "admin", "admin@acme.test", true)
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", claims.Partition)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "admin", claims.Subject)
	assert.True(t, claims.Superuser)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	issuer := NewJWTUtil(&JWTConfig{SigningKey: "one", ExpirationHours: 1})
	verifier := NewJWTUtil(&JWTConfig{SigningKey: "two", ExpirationHours: 1})

	token, err := issuer.GenerateToken("tenant_acme", 1, "admin", "", false)
	require.NoError(t, err)
	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestValidateRejectsExpired(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: -1})
	token, err := j.GenerateToken("tenant_acme", 1, "admin", "", false)
	require.NoError(t, err)
	_, err = j.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestGenerateRequiresPartition(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})
	_, err := j.GenerateToken("", 1, "admin", "", false)
	assert.Error(t, err)
}
