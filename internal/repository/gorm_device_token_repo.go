package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
)

// GormDeviceTokenRepository implements DeviceTokenRepository using GORM.
type GormDeviceTokenRepository struct {
	db *gorm.DB
}

// NewGormDeviceTokenRepository creates a new GORM-based device token repository.
func NewGormDeviceTokenRepository(db *gorm.DB) *GormDeviceTokenRepository {
	return &GormDeviceTokenRepository{db: db}
}

// Upsert relies on the (user_id, device_token) unique index:
// INSERT ... ON CONFLICT (user_id, device_token) DO UPDATE.
// The stored platform is kept on conflict.
func (r *GormDeviceTokenRepository) Upsert(ctx context.Context, userID int64, token string, platform domain.Platform, now time.Time) error {
	model := &domain.DeviceTokenModel{
		UserID:      userID,
		DeviceToken: token,
		Platform:    string(platform),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "device_token"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "updated_at"}),
	}).Create(model).Error
}

func (r *GormDeviceTokenRepository) Deactivate(ctx context.Context, userID int64, token string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.DeviceTokenModel{}).
		Where("user_id = ? AND device_token = ? AND is_active = ?", userID, token, true).
		UpdateColumns(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// DeactivateByToken turns a token off for every user that registered it.
func (r *GormDeviceTokenRepository) DeactivateByToken(ctx context.Context, token string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.DeviceTokenModel{}).
		Where("device_token = ? AND is_active = ?", token, true).
		UpdateColumns(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *GormDeviceTokenRepository) ListActive(ctx context.Context, userID int64) ([]*domain.DeviceToken, error) {
	var models []domain.DeviceTokenModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	tokens := make([]*domain.DeviceToken, 0, len(models))
	for i := range models {
		tokens = append(tokens, models[i].ToDomain())
	}
	return tokens, nil
}

// DeleteInactiveBefore never touches active rows.
func (r *GormDeviceTokenRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_active = ? AND updated_at < ?", false, cutoff).
		Delete(&domain.DeviceTokenModel{})
	return result.RowsAffected, result.Error
}
