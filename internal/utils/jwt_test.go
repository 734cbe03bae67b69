// internal/utils/jwt_test.go
package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateAdminJWT(t *testing.T) {
	SetJWTSecret("test-secret")
	defer SetJWTSecret("pricebot-dev-secret-change-in-production")

	token, err := GenerateAdminJWT("alice", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateAdminJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "pricebot", claims.Issuer)
}

func TestValidateAdminJWTRejectsExpiredToken(t *testing.T) {
	SetJWTSecret("test-secret")
	defer SetJWTSecret("pricebot-dev-secret-change-in-production")

	token, err := GenerateAdminJWT("bob", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateAdminJWT(token)
	assert.Error(t, err)
}

func TestValidateAdminJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("secret-one")
	token, err := GenerateAdminJWT("carol", time.Hour)
	require.NoError(t, err)

	SetJWTSecret("secret-two")
	defer SetJWTSecret("pricebot-dev-secret-change-in-production")

	_, err = ValidateAdminJWT(token)
	assert.Error(t, err)
}

func TestValidateAdminJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateAdminJWT("not-a-jwt")
	assert.Error(t, err)
}
