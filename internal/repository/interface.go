package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

// DeviceTokenRepository defines persistence for push device tokens.
type DeviceTokenRepository interface {
	// Upsert inserts an active row or reactivates the existing (user, token) row.
	Upsert(ctx context.Context, userID int64, token string, platform domain.Platform, now time.Time) error
	Deactivate(ctx context.Context, userID int64, token string, now time.Time) (int64, error)
	DeactivateByToken(ctx context.Context, token string, now time.Time) (int64, error)
	ListActive(ctx context.Context, userID int64) ([]*domain.DeviceToken, error)
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// IdentityRepository reads user identities owned by the REST layer.
type IdentityRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Identity, error)
}
