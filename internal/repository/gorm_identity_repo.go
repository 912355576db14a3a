package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
)

// GormIdentityRepository reads the users table; it never writes to it.
type GormIdentityRepository struct {
	db *gorm.DB
}

func NewGormIdentityRepository(db *gorm.DB) *GormIdentityRepository {
	return &GormIdentityRepository{db: db}
}

// GetByID retrieves a user identity by ID.
func (r *GormIdentityRepository) GetByID(ctx context.Context, id int64) (*domain.Identity, error) {
	var model domain.IdentityModel
	result := r.db.WithContext(ctx).
		Select("id", "username", "first_name", "last_name").
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
