package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type IdentityCache interface {
	Get(ctx context.Context, userID int64) (*domain.Identity, error)
	Set(ctx context.Context, identity *domain.Identity, ttl time.Duration) error
	Delete(ctx context.Context, userIDs ...int64) error
	Close() error
}
