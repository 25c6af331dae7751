package repository

import (
	"context"
	"errors"

	"github.com/yatube/backend/internal/models"
	"gorm.io/gorm"
)

// PasswordResetRepository stores single-use password reset tokens
type PasswordResetRepository interface {
	CreateReset(ctx context.Context, reset *models.PasswordReset) error
	GetResetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	// RedeemReset marks the token used and stores the new password hash in
	// one transaction. Only one caller can redeem a given token.
	RedeemReset(ctx context.Context, reset *models.PasswordReset, passwordHash string) error
}

type passwordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) CreateReset(ctx context.Context, reset *models.PasswordReset) error {
	if reset == nil || reset.Token == "" || reset.UserID == 0 {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Omit("User").Create(reset).Error
}

func (r *passwordResetRepository) GetResetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) RedeemReset(ctx context.Context, reset *models.PasswordReset, passwordHash string) error {
	if reset == nil || reset.ID == 0 || passwordHash == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used = ?", reset.ID, false).
			Update("used", true)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected != 1 {
			return ErrResetRedeemed
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", reset.UserID).
			Update("password_hash", passwordHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
