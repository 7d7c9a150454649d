package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medremind/reminder-api/internal/auth"
	"github.com/medremind/reminder-api/internal/events"
	"github.com/medremind/reminder-api/internal/hash"
	"github.com/medremind/reminder-api/internal/logging"
	"github.com/medremind/reminder-api/internal/middleware/authmw"
	"github.com/medremind/reminder-api/internal/store"
)

type AuthHandler struct {
	Svc      *auth.Service
	Producer *events.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid registration data")
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid registration data")
	}

	user, err := h.Svc.Register(ctx, req.FullName, req.Email, req.Password)
	if err != nil {
		var policyErr *hash.PolicyError
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Email '%s' is already used.", req.Email))
		case errors.As(err, &policyErr):
			return echo.NewHTTPError(http.StatusBadRequest, policyErr.Reasons)
		default:
			l.Error("register_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
		}
	}

	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, user.ID, map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	}); err != nil {
		l.Error("kafka_publish_failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Registration successful. Please check your email to confirm your account.",
	})
}

func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.confirm_email")

	userID := c.QueryParam("userId")
	token := c.QueryParam("token")
	if userID == "" || token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid confirmation data")
	}

	if err := h.Svc.ConfirmEmail(ctx, userID, token); err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusBadRequest, "user not found")
		case errors.Is(err, store.ErrTokenInvalid):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired confirmation token")
		default:
			l.Error("confirm_email_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "confirmation failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Email confirmed successfully"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid login data")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountDeactivated):
			return echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
		case errors.Is(err, auth.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		default:
			l.Error("login_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, req.Email, map[string]any{
		"type":  "user_logged_in",
		"email": req.Email,
	}); err != nil {
		l.Error("kafka_publish_failed", "error", err)
	}

	return c.JSON(http.StatusOK, res)
}

// Refresh accepts the bare refresh-token string as its JSON body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var refreshToken string
	if err := json.NewDecoder(c.Request().Body).Decode(&refreshToken); err != nil || refreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid refresh token data")
	}

	res, err := h.Svc.RefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
		}
		l.Error("refresh_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.change_password")

	var req struct {
		OldPassword        string `json:"oldPassword"`
		NewPassword        string `json:"newPassword"`
		ConfirmNewPassword string `json:"confirmNewPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	userID := authmw.UserID(c)
	if err := h.Svc.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword, req.ConfirmNewPassword); err != nil {
		var policyErr *hash.PolicyError
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized request")
		case errors.Is(err, auth.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		case errors.Is(err, auth.ErrPasswordMismatch):
			return echo.NewHTTPError(http.StatusBadRequest, "New password and confirmation do not match")
		case errors.Is(err, store.ErrWrongPassword):
			return echo.NewHTTPError(http.StatusBadRequest, "Incorrect password")
		case errors.As(err, &policyErr):
			return echo.NewHTTPError(http.StatusBadRequest, policyErr.Reasons)
		default:
			l.Error("change_password_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "password change failed")
		}
	}

	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, userID, map[string]any{
		"type":    "password_changed",
		"user_id": userID,
	}); err != nil {
		l.Error("kafka_publish_failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}
