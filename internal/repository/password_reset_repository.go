package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradesdesk/workspace-api/internal/models"
	"gorm.io/gorm"
)

// GormPasswordResetRepository is a GORM implementation of PasswordResetRepository
type GormPasswordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository creates a new PasswordResetRepository
func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &GormPasswordResetRepository{db: db}
}

// Create stores a new reset token record
func (r *GormPasswordResetRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	return translateError(r.db.WithContext(ctx).Create(token).Error)
}

// FindByHash finds a reset token by its keyed hash
func (r *GormPasswordResetRepository) FindByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}

// Delete removes a reset token. Only one of several concurrent callers observes true.
func (r *GormPasswordResetRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PasswordResetToken{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteByUser removes every outstanding reset token of a user
func (r *GormPasswordResetRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
}
