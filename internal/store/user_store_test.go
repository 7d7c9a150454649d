package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/models"
)

func newTestStore(t *testing.T) *GormUserStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserRole{}))
	return NewGormUserStore(db)
}

func seedUser(t *testing.T, s *GormUserStore, email string) *models.User {
	t.Helper()

	u := &models.User{Username: "alice", Email: email, FullName: "Alice A"}
	require.NoError(t, s.Create(context.Background(), u, "Secret123"))
	return u
}

func TestGormUserStore_Create(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "a@x.com")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, 1, u.TokenVersion)
	assert.NotEqual(t, "Secret123", u.PasswordHash)
	assert.True(t, s.VerifyPassword(u, "Secret123"))

	err := s.Create(ctx, &models.User{Username: "alice2", Email: "a@x.com"}, "Secret123")
	assert.ErrorIs(t, err, ErrConflict)

	err = s.Create(ctx, &models.User{Username: "bob", Email: "b@x.com"}, "short")
	require.Error(t, err)
}

func TestGormUserStore_FindByRefreshToken(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	secret := "opaque-refresh-secret"
	expiry := time.Now().UTC().Add(time.Hour)
	u.RefreshToken = &secret
	u.RefreshTokenExpiry = &expiry
	require.NoError(t, s.Update(ctx, u))

	found, err := s.FindByRefreshToken(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.FindByRefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormUserStore_RotateRefreshToken_CompareAndSwap(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	first := "secret-one"
	expiry := time.Now().UTC().Add(time.Hour)
	u.RefreshToken = &first
	u.RefreshTokenExpiry = &expiry
	require.NoError(t, s.Update(ctx, u))

	require.NoError(t, s.RotateRefreshToken(ctx, u.ID, "secret-one", "secret-two", expiry))

	// a concurrent rotation that read the old secret loses the race
	err := s.RotateRefreshToken(ctx, u.ID, "secret-one", "secret-three", expiry)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, "secret-two", *stored.RefreshToken)
}

func TestGormUserStore_ChangePassword(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	err := s.ChangePassword(ctx, u, "nope", "NewSecret456")
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, s.ChangePassword(ctx, u, "Secret123", "NewSecret456"))

	stored, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, s.VerifyPassword(stored, "Secret123"))
	assert.True(t, s.VerifyPassword(stored, "NewSecret456"))
}

func TestGormUserStore_AssignRole_ReplacesExisting(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	roles, err := s.RolesOf(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, roles)

	require.NoError(t, s.AssignRole(ctx, u, "Caregiver"))
	require.NoError(t, s.AssignRole(ctx, u, "Admin"))

	roles, err = s.RolesOf(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin"}, roles)
}

func TestGormUserStore_ConfirmEmailToken(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	token, err := s.GenerateEmailConfirmationToken(ctx, u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = s.ConfirmEmailToken(ctx, u, "wrong-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	require.NoError(t, s.ConfirmEmailToken(ctx, u, token))

	// consumed on first use
	stored, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ConfirmTokenHash)
	err = s.ConfirmEmailToken(ctx, stored, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGormUserStore_ConfirmEmailToken_Expired(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	token, err := s.GenerateEmailConfirmationToken(ctx, u)
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Minute)
	u.ConfirmTokenExpiry = &past
	require.NoError(t, s.Update(ctx, u))

	err = s.ConfirmEmailToken(ctx, u, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGormUserStore_ListUsers(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "a@x.com")
	require.NoError(t, s.Create(ctx, &models.User{Username: "bob", Email: "b@x.com"}, "Secret123"))
	require.NoError(t, s.Create(ctx, &models.User{Username: "carol", Email: "c@x.com"}, "Secret123"))

	total, page, err := s.ListUsers(ctx, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)

	total, page, err = s.ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)
}
