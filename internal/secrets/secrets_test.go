package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpaqueToken(t *testing.T) {
	t.Parallel()

	first, err := NewOpaqueToken()
	require.NoError(t, err)
	second, err := NewOpaqueToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	// 32 random bytes, unpadded url-safe base64
	assert.Len(t, first, 43)
	assert.NotContains(t, first, "=")
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
}

func TestSha256Hex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Sha256Hex("abc"), Sha256Hex("abc"))
	assert.NotEqual(t, Sha256Hex("abc"), Sha256Hex("abd"))
	assert.Len(t, Sha256Hex("abc"), 64)
}
