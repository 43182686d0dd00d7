package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
	assert.False(t, CheckPasswordHash("hunter22", "not-a-bcrypt-hash"))
}

func TestGenerateRandomPassword(t *testing.T) {
	a := GenerateRandomPassword(12)
	b := GenerateRandomPassword(12)
	assert.Len(t, a, 12)
	assert.Len(t, b, 12)
	assert.NotEqual(t, a, b)
}

func TestResetToken(t *testing.T) {
	token, hash, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, hash, HashToken(token))

	_, hash2, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}
