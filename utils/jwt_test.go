package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assettrack/config"
)

func TestJWTRoundTrip(t *testing.T) {
	config.JWTKey = []byte("test-secret")
	config.JWTExpiration = time.Hour

	token, err := GenerateJWT("64f1c0ffee0000000000aaaa", "Ada Wong", "admin", "64f1c0ffee0000000000bbbb")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "64f1c0ffee0000000000aaaa", claims.UserID)
	assert.Equal(t, "Ada Wong", claims.Name)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "64f1c0ffee0000000000bbbb", claims.OrganizationID)
}

func TestJWTExpired(t *testing.T) {
	config.JWTKey = []byte("test-secret")
	config.JWTExpiration = -time.Minute

	token, err := GenerateJWT("u", "n", "viewer", "o")
	require.NoError(t, err)

	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTWrongKey(t *testing.T) {
	config.JWTKey = []byte("key-one")
	config.JWTExpiration = time.Hour

	token, err := GenerateJWT("u", "n", "viewer", "o")
	require.NoError(t, err)

	config.JWTKey = []byte("key-two")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTGarbage(t *testing.T) {
	config.JWTKey = []byte("test-secret")
	_, err := ValidateJWT("not.a.token")
	assert.Error(t, err)
}
