package auth

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/models"
	"github.com/medremind/reminder-api/internal/store"
)

type fakeSender struct {
	to      string
	subject string
	body    string
}

func (f *fakeSender) Send(to, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return nil
}

func newTestService(t *testing.T) (*Service, *store.GormUserStore, *fakeSender) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserRole{}))

	userStore := store.NewGormUserStore(db)
	signer := NewSigner([]byte("test-jwt-secret"), "reminder-api", "reminder-clients", time.Hour)
	sender := &fakeSender{}
	svc := NewService(userStore, signer, NewRefreshManager(userStore), sender, "https://app.example.com")
	return svc, userStore, sender
}

func createActiveUser(t *testing.T, svc *Service, email, password string) *models.User {
	t.Helper()

	user, err := svc.Register(context.Background(), "Test User", email, password)
	require.NoError(t, err)

	user.IsActive = true
	require.NoError(t, svc.Store.Update(context.Background(), user))
	return user
}

func TestService_Login_Success(t *testing.T) {
	t.Parallel()

	svc, userStore, _ := newTestService(t)
	ctx := context.Background()
	user := createActiveUser(t, svc, "a@x.com", "Secret123")
	require.NoError(t, userStore.AssignRole(ctx, user, "Caregiver"))

	res, err := svc.Login(ctx, "a@x.com", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.NotEmpty(t, res.RefreshToken)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), res.Expiration, 2*time.Second)

	claims, err := svc.Signer.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "TestUser", claims.Username)
	assert.Equal(t, "1", claims.TokenVersion)
	assert.Equal(t, []string{"Caregiver"}, claims.Roles)

	// every login issues a distinct refresh secret
	res2, err := svc.Login(ctx, "a@x.com", "Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, res2.RefreshToken)
}

func TestService_Login_Rejections(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	createActiveUser(t, svc, "a@x.com", "Secret123")

	_, err := svc.Login(ctx, "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@x.com", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_DeactivatedAccount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// registered but never confirmed
	_, err := svc.Register(ctx, "Inactive User", "inactive@x.com", "Secret123")
	require.NoError(t, err)

	// rejected even with the correct password
	_, err = svc.Login(ctx, "inactive@x.com", "Secret123")
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestService_Refresh_RotatesSecret(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	createActiveUser(t, svc, "a@x.com", "Secret123")

	loginRes, err := svc.Login(ctx, "a@x.com", "Secret123")
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, loginRes.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.Token)
	assert.NotEqual(t, loginRes.RefreshToken, refreshed.RefreshToken)

	// the rotated-away secret is single-use
	_, err = svc.RefreshToken(ctx, loginRes.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// the new secret still works
	_, err = svc.RefreshToken(ctx, refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestService_Refresh_UnknownToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.RefreshToken(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestService_Refresh_ExpiredStoredSecret(t *testing.T) {
	t.Parallel()

	svc, userStore, _ := newTestService(t)
	ctx := context.Background()
	createActiveUser(t, svc, "a@x.com", "Secret123")

	loginRes, err := svc.Login(ctx, "a@x.com", "Secret123")
	require.NoError(t, err)

	user, err := userStore.FindByRefreshToken(ctx, loginRes.RefreshToken)
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Hour)
	user.RefreshTokenExpiry = &past
	require.NoError(t, userStore.Update(ctx, user))

	// expired and unknown secrets are indistinguishable
	_, err = svc.RefreshToken(ctx, loginRes.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestService_Refresh_PicksUpAccountChanges(t *testing.T) {
	t.Parallel()

	svc, userStore, _ := newTestService(t)
	ctx := context.Background()
	user := createActiveUser(t, svc, "a@x.com", "Secret123")

	loginRes, err := svc.Login(ctx, "a@x.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, userStore.AssignRole(ctx, user, "Admin"))

	refreshed, err := svc.RefreshToken(ctx, loginRes.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.Signer.Verify(refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin"}, claims.Roles)
}

func TestService_ChangePassword_RotatesCredentials(t *testing.T) {
	t.Parallel()

	svc, userStore, _ := newTestService(t)
	ctx := context.Background()
	user := createActiveUser(t, svc, "a@x.com", "Secret123")

	loginRes, err := svc.Login(ctx, "a@x.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "Secret123", "NewSecret456", "NewSecret456"))

	// the pre-change refresh secret no longer works
	_, err = svc.RefreshToken(ctx, loginRes.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// the token-version counter strictly increased
	updated, err := userStore.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TokenVersion)
	assert.Nil(t, updated.RefreshToken)
	assert.Nil(t, updated.RefreshTokenExpiry)

	// old password is gone, new one works
	_, err = svc.Login(ctx, "a@x.com", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	res, err := svc.Login(ctx, "a@x.com", "NewSecret456")
	require.NoError(t, err)

	claims, err := svc.Signer.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "2", claims.TokenVersion)
}

func TestService_ChangePassword_Rejections(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	user := createActiveUser(t, svc, "a@x.com", "Secret123")

	err := svc.ChangePassword(ctx, "", "Secret123", "NewSecret456", "NewSecret456")
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = svc.ChangePassword(ctx, "missing-id", "Secret123", "NewSecret456", "NewSecret456")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = svc.ChangePassword(ctx, user.ID, "Secret123", "NewSecret456", "Different456")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = svc.ChangePassword(ctx, user.ID, "wrong-old", "NewSecret456", "NewSecret456")
	assert.ErrorIs(t, err, store.ErrWrongPassword)

	err = svc.ChangePassword(ctx, user.ID, "Secret123", "weak", "weak")
	require.Error(t, err)
}

func TestService_Register_SendsConfirmationEmail(t *testing.T) {
	t.Parallel()

	svc, _, sender := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Jane Doe", "jane@x.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "JaneDoe", user.Username)
	assert.False(t, user.IsActive)

	assert.Equal(t, "jane@x.com", sender.to)
	assert.Equal(t, "Confirm your email", sender.subject)
	assert.Contains(t, sender.body, "https://app.example.com/api/auth/confirm-email?userId="+user.ID)

	_, err = svc.Register(ctx, "Jane Again", "jane@x.com", "Secret123")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_ConfirmEmail_ActivatesAndConsumesToken(t *testing.T) {
	t.Parallel()

	svc, userStore, sender := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Jane Doe", "jane@x.com", "Secret123")
	require.NoError(t, err)

	link := sender.body[strings.Index(sender.body, "https://"):]
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)

	require.NoError(t, svc.ConfirmEmail(ctx, user.ID, url.QueryEscape(token)))

	confirmed, err := userStore.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.IsActive)

	// the token was consumed on first use
	err = svc.ConfirmEmail(ctx, user.ID, url.QueryEscape(token))
	assert.ErrorIs(t, err, store.ErrTokenInvalid)
}
