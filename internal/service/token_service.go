package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dnlflores/starter-ios-app-backend/internal/audit"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/repository"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

type tokenService struct {
	repo repository.DeviceTokenRepository
	now  func() time.Time
}

// NewTokenService creates a token service. now defaults to time.Now.
func NewTokenService(repo repository.DeviceTokenRepository, now func() time.Time) TokenService {
	if now == nil {
		now = time.Now
	}
	return &tokenService{repo: repo, now: now}
}

func (s *tokenService) clock() time.Time {
	return s.now().UTC()
}

func (s *tokenService) Register(ctx context.Context, userID int64, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	p, ok := domain.ParsePlatform(strings.ToLower(strings.TrimSpace(platform)))
	if !ok {
		return ErrInvalidPlatform
	}

	if err := s.repo.Upsert(ctx, userID, token, p, s.clock()); err != nil {
		return fmt.Errorf("register device token: %w", err)
	}

	audit.LogWithDetail(ctx, audit.ActionDeviceRegister, userID, string(p), "device token registered")
	return nil
}

func (s *tokenService) Unregister(ctx context.Context, userID int64, token string) error {
	n, err := s.repo.Deactivate(ctx, userID, token, s.clock())
	if err != nil {
		return fmt.Errorf("unregister device token: %w", err)
	}
	if n > 0 {
		audit.Log(ctx, audit.ActionDeviceUnregister, userID, "device token unregistered")
	}
	return nil
}

func (s *tokenService) Invalidate(ctx context.Context, token string) error {
	n, err := s.repo.DeactivateByToken(ctx, token, s.clock())
	if err != nil {
		return fmt.Errorf("invalidate device token: %w", err)
	}

	l := log.Ctx(ctx)
	l.Info().Int64("rows", n).Msg("device token marked inactive")
	return nil
}

func (s *tokenService) ActiveTokens(ctx context.Context, userID int64) ([]*domain.DeviceToken, error) {
	tokens, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active device tokens: %w", err)
	}
	return tokens, nil
}

func (s *tokenService) Cleanup(ctx context.Context, maxAgeDays int) (int64, error) {
	if maxAgeDays <= 0 {
		return 0, fmt.Errorf("cleanup max age must be positive, got %d", maxAgeDays)
	}

	cutoff := s.clock().AddDate(0, 0, -maxAgeDays)
	n, err := s.repo.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup device tokens: %w", err)
	}

	l := log.Ctx(ctx)
	l.Info().Int64("deleted", n).Int("max_age_days", maxAgeDays).Msg("cleaned up old device tokens")
	return n, nil
}

func (s *tokenService) StartCleanup(ctx context.Context, interval time.Duration, maxAgeDays int) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l := log.Ctx(ctx)
	l.Info().Dur("interval", interval).Int("max_age_days", maxAgeDays).Msg("device token sweeper started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Cleanup(ctx, maxAgeDays); err != nil {
				l.Error().Err(err).Msg("device token sweep failed")
			}
		}
	}
}
