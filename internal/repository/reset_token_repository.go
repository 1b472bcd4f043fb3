package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/backoffice/internal/models"
)

// ResetTokenRepository keeps the set of already-redeemed reset tokens.
type ResetTokenRepository struct {
	db *gorm.DB
}

// NewResetTokenRepository constructs a ResetTokenRepository.
func NewResetTokenRepository(db *gorm.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Consume records the token as used. The primary key on TokenID makes this an
// atomic first-writer-wins insert; later attempts get ErrDuplicate.
func (r *ResetTokenRepository) Consume(ctx context.Context, t *models.ConsumedResetToken) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	return nil
}

// DeleteExpired drops entries whose tokens expired before the given time.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.ConsumedResetToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
