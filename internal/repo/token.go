package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lmstore/backend/internal/models"
)

func (r *GormRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

func (r *GormRepo) FindRefreshByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteRefreshByHash removes a stored token. Deleting a hash that is not
// there is not an error, so revocation stays idempotent.
func (r *GormRepo) DeleteRefreshByHash(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.RefreshToken{}).Error
}

// RotateRefreshToken deletes the old token record and inserts the fresh one
// in a single transaction. The delete's rows-affected count arbitrates
// concurrent rotations of the same token: the loser observes zero rows and
// gets gorm.ErrRecordNotFound.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldHash string, fresh *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token_hash = ?", oldHash).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(fresh).Error
	})
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	return r.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{}).Error
}
