package service

import (
	"context"
	"errors"
	"time"

	"github.com/dnlflores/starter-ios-app-backend/internal/cache"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/repository"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

type identityService struct {
	repo  repository.IdentityRepository
	cache cache.IdentityCache
	ttl   time.Duration
}

// NewIdentityService reads identities cache-aside. identityCache may be nil.
func NewIdentityService(repo repository.IdentityRepository, identityCache cache.IdentityCache, ttl time.Duration) IdentityService {
	return &identityService{repo: repo, cache: identityCache, ttl: ttl}
}

func (s *identityService) GetIdentity(ctx context.Context, userID int64) (*domain.Identity, error) {
	l := log.Ctx(ctx)

	if s.cache != nil {
		identity, err := s.cache.Get(ctx, userID)
		if err == nil {
			return identity, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Int64(log.FieldUserID, userID).Msg("identity cache read failed")
		}
	}

	identity, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, identity, s.ttl); err != nil {
			l.Warn().Err(err).Int64(log.FieldUserID, userID).Msg("identity cache write failed")
		}
	}

	return identity, nil
}
