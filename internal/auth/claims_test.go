package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClaims_SetsFields(t *testing.T) {
	t.Parallel()

	claims, err := BuildClaims("user-1", "alice", 7, []string{"Caregiver"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "7", claims.TokenVersion)
	assert.Equal(t, []string{"Caregiver"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
}

func TestBuildClaims_UniqueTokenID(t *testing.T) {
	t.Parallel()

	first, err := BuildClaims("user-1", "alice", 1, nil)
	require.NoError(t, err)
	second, err := BuildClaims("user-1", "alice", 1, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestBuildClaims_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := BuildClaims("", "alice", 1, nil)
	require.Error(t, err)

	_, err = BuildClaims("user-1", "", 1, nil)
	require.Error(t, err)
}
