package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/medremind/reminder-api/internal/email"
	"github.com/medremind/reminder-api/internal/logging"
	"github.com/medremind/reminder-api/internal/models"
	"github.com/medremind/reminder-api/internal/store"
)

// Service orchestrates login, refresh and credential-change flows. All
// collaborators are injected at construction; nothing here is global.
type Service struct {
	Store       store.UserStore
	Signer      *Signer
	Refresh     *RefreshManager
	Email       email.Sender
	FrontendURL string
}

func NewService(s store.UserStore, signer *Signer, refresh *RefreshManager, sender email.Sender, frontendURL string) *Service {
	return &Service{
		Store:       s,
		Signer:      signer,
		Refresh:     refresh,
		Email:       sender,
		FrontendURL: frontendURL,
	}
}

// TokenResult is the wire shape of a successful login or refresh.
type TokenResult struct {
	Token        string    `json:"token"`
	Expiration   time.Time `json:"expiration"`
	RefreshToken string    `json:"refreshToken"`
}

func (s *Service) Login(ctx context.Context, emailAddr, password string) (*TokenResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	user, err := s.Store.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("login_rejected", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		l.Warn("login_rejected", "reason", "account deactivated", "user_id", user.ID)
		return nil, ErrAccountDeactivated
	}
	if !s.Store.VerifyPassword(user, password) {
		l.Warn("login_rejected", "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	refresh, err := s.Refresh.Generate()
	if err != nil {
		return nil, err
	}
	expiry := time.Now().UTC().Add(RefreshTokenTTL)
	user.RefreshToken = &refresh
	user.RefreshTokenExpiry = &expiry
	if err := s.Store.Update(ctx, user); err != nil {
		return nil, err
	}

	token, exp, err := s.issueAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	return &TokenResult{Token: token, Expiration: exp, RefreshToken: refresh}, nil
}

// RefreshToken rotates the opaque secret and issues a fresh access token
// from the account's current state, so role or token-version changes since
// the original login are picked up.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	user, next, err := s.Refresh.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			l.Warn("refresh_rejected")
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	token, exp, err := s.issueAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("refresh_successful", "user_id", user.ID)
	return &TokenResult{Token: token, Expiration: exp, RefreshToken: next}, nil
}

// ChangePassword rotates the user's credentials: the stored refresh secret
// is cleared and the token-version counter bumped, so every outstanding
// refresh flow stops working and pre-change access tokens become
// recognizably stale.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmNewPassword string) error {
	l := logging.FromContext(ctx).With("svc", "session.change_password")

	if userID == "" {
		return ErrUnauthorized
	}
	user, err := s.Store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if newPassword != confirmNewPassword {
		return ErrPasswordMismatch
	}
	if err := s.Store.ChangePassword(ctx, user, oldPassword, newPassword); err != nil {
		return err
	}

	user.RefreshToken = nil
	user.RefreshTokenExpiry = nil
	user.TokenVersion++
	if err := s.Store.Update(ctx, user); err != nil {
		return err
	}

	l.Info("password_changed", "user_id", user.ID, "token_version", user.TokenVersion)
	return nil
}

// Register creates an inactive account and mails a confirmation link.
func (s *Service) Register(ctx context.Context, fullName, emailAddr, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.register")

	if _, err := s.Store.FindByEmail(ctx, emailAddr); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Username: strings.ReplaceAll(fullName, " ", ""),
		Email:    emailAddr,
		FullName: fullName,
		IsActive: false,
	}
	if err := s.Store.Create(ctx, user, password); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.Store.GenerateEmailConfirmationToken(ctx, user)
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/api/auth/confirm-email?userId=%s&token=%s",
		s.FrontendURL, user.ID, url.QueryEscape(token))

	if err := s.Email.Send(
		user.Email,
		"Confirm your email",
		"Please confirm your account by clicking this link: "+link,
	); err != nil {
		return nil, err
	}

	l.Info("registered", "user_id", user.ID)
	return user, nil
}

// ConfirmEmail consumes the confirmation token and activates the account.
func (s *Service) ConfirmEmail(ctx context.Context, userID, token string) error {
	l := logging.FromContext(ctx).With("svc", "session.confirm_email")

	user, err := s.Store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	decoded, err := url.QueryUnescape(token)
	if err != nil {
		return store.ErrTokenInvalid
	}
	if err := s.Store.ConfirmEmailToken(ctx, user, decoded); err != nil {
		return err
	}

	user.IsActive = true
	if err := s.Store.Update(ctx, user); err != nil {
		return err
	}

	l.Info("email_confirmed", "user_id", user.ID)
	return nil
}

func (s *Service) issueAccessToken(ctx context.Context, user *models.User) (string, time.Time, error) {
	roles, err := s.Store.RolesOf(ctx, user)
	if err != nil {
		return "", time.Time{}, err
	}
	claims, err := BuildClaims(user.ID, user.Username, user.TokenVersion, roles)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.Signer.Issue(claims)
}
