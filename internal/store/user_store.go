package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/hash"
	"github.com/medremind/reminder-api/internal/models"
	"github.com/medremind/reminder-api/internal/secrets"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrTokenInvalid  = errors.New("confirmation token invalid or expired")
	ErrConflict      = errors.New("user already exists")
)

const confirmTokenTTL = 48 * time.Hour

// UserStore is the credential store consumed by the session service.
type UserStore interface {
	Create(ctx context.Context, u *models.User, password string) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByRefreshToken(ctx context.Context, token string) (*models.User, error)
	VerifyPassword(u *models.User, plaintext string) bool
	ChangePassword(ctx context.Context, u *models.User, oldPassword, newPassword string) error
	Update(ctx context.Context, u *models.User) error
	// RotateRefreshToken swaps the stored secret only if it still equals
	// current. ErrNotFound when another rotation won the race.
	RotateRefreshToken(ctx context.Context, userID, current, next string, expiry time.Time) error
	RolesOf(ctx context.Context, u *models.User) ([]string, error)
	GenerateEmailConfirmationToken(ctx context.Context, u *models.User) (string, error)
	ConfirmEmailToken(ctx context.Context, u *models.User, token string) error
}

type GormUserStore struct {
	DB *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{DB: db}
}

func (s *GormUserStore) Create(ctx context.Context, u *models.User, password string) error {
	if err := hash.ValidatePolicy(password); err != nil {
		return err
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = pwHash
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.TokenVersion == 0 {
		u.TokenVersion = 1
	}

	tx := s.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *GormUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *GormUserStore) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return s.findOne(ctx, "refresh_token = ?", token)
}

func (s *GormUserStore) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) VerifyPassword(u *models.User, plaintext string) bool {
	return hash.CheckPassword(u.PasswordHash, plaintext)
}

func (s *GormUserStore) ChangePassword(ctx context.Context, u *models.User, oldPassword, newPassword string) error {
	if !hash.CheckPassword(u.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}
	if err := hash.ValidatePolicy(newPassword); err != nil {
		return err
	}
	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = pwHash
	return s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", u.ID).
		Update("password_hash", pwHash).Error
}

func (s *GormUserStore) Update(ctx context.Context, u *models.User) error {
	return s.DB.WithContext(ctx).Save(u).Error
}

func (s *GormUserStore) RotateRefreshToken(ctx context.Context, userID, current, next string, expiry time.Time) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", userID, current).
		Updates(map[string]any{
			"refresh_token":        next,
			"refresh_token_expiry": expiry,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormUserStore) RolesOf(ctx context.Context, u *models.User) ([]string, error) {
	var rows []models.UserRole
	if err := s.DB.WithContext(ctx).Where("user_id = ?", u.ID).Order("role ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(rows))
	for _, r := range rows {
		roles = append(roles, r.Role)
	}
	return roles, nil
}

// AssignRole replaces every current role with the given one.
func (s *GormUserStore) AssignRole(ctx context.Context, u *models.User, role string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", u.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserRole{UserID: u.ID, Role: role}).Error
	})
}

func (s *GormUserStore) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Order("created_at ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

func (s *GormUserStore) GenerateEmailConfirmationToken(ctx context.Context, u *models.User) (string, error) {
	token, err := secrets.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	tokenHash := secrets.Sha256Hex(token)
	expiry := time.Now().UTC().Add(confirmTokenTTL)

	u.ConfirmTokenHash = &tokenHash
	u.ConfirmTokenExpiry = &expiry
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"confirm_token_hash":   tokenHash,
			"confirm_token_expiry": expiry,
		}).Error; err != nil {
		return "", err
	}
	return token, nil
}

// ConfirmEmailToken validates and consumes the token in one step: a second
// confirmation attempt with the same token fails.
func (s *GormUserStore) ConfirmEmailToken(ctx context.Context, u *models.User, token string) error {
	if u.ConfirmTokenHash == nil || u.ConfirmTokenExpiry == nil {
		return ErrTokenInvalid
	}
	if *u.ConfirmTokenHash != secrets.Sha256Hex(token) {
		return ErrTokenInvalid
	}
	if u.ConfirmTokenExpiry.Before(time.Now().UTC()) {
		return ErrTokenInvalid
	}

	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND confirm_token_hash = ?", u.ID, *u.ConfirmTokenHash).
		Updates(map[string]any{
			"confirm_token_hash":   nil,
			"confirm_token_expiry": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenInvalid
	}
	u.ConfirmTokenHash = nil
	u.ConfirmTokenExpiry = nil
	return nil
}
