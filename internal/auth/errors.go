package auth

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountDeactivated  = errors.New("account is deactivated")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUnauthorized        = errors.New("unauthorized request")
	ErrUserNotFound        = errors.New("user not found")
	ErrPasswordMismatch    = errors.New("new password and confirmation do not match")
	ErrEmailTaken          = errors.New("email is already used")

	ErrMalformedToken   = errors.New("malformed token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)
