package auth

import (
	"context"
	"errors"
	"time"

	"github.com/medremind/reminder-api/internal/models"
	"github.com/medremind/reminder-api/internal/secrets"
	"github.com/medremind/reminder-api/internal/store"
)

// RefreshTokenTTL is how long a refresh secret stays usable after it was
// issued or last rotated.
const RefreshTokenTTL = 7 * 24 * time.Hour

// RefreshManager owns the opaque refresh secrets. Each account holds at
// most one current secret; rotation replaces it in a single conditional
// update so two racing calls cannot both succeed.
type RefreshManager struct {
	Store store.UserStore
}

func NewRefreshManager(s store.UserStore) *RefreshManager {
	return &RefreshManager{Store: s}
}

func (m *RefreshManager) Generate() (string, error) {
	return secrets.NewOpaqueToken()
}

// Rotate validates the supplied secret and swaps it for a fresh one.
// Unknown and expired secrets produce the same error so a caller cannot
// tell which case occurred.
func (m *RefreshManager) Rotate(ctx context.Context, current string) (*models.User, string, error) {
	user, err := m.Store.FindByRefreshToken(ctx, current)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidRefreshToken
		}
		return nil, "", err
	}
	if user.RefreshTokenExpiry == nil || user.RefreshTokenExpiry.Before(time.Now().UTC()) {
		return nil, "", ErrInvalidRefreshToken
	}

	next, err := m.Generate()
	if err != nil {
		return nil, "", err
	}
	expiry := time.Now().UTC().Add(RefreshTokenTTL)

	if err := m.Store.RotateRefreshToken(ctx, user.ID, current, next, expiry); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidRefreshToken
		}
		return nil, "", err
	}

	user.RefreshToken = &next
	user.RefreshTokenExpiry = &expiry
	return user, next, nil
}
