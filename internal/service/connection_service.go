package service

import (
	"context"
	"errors"

	"github.com/dnlflores/starter-ios-app-backend/internal/audit"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
	"github.com/dnlflores/starter-ios-app-backend/internal/registry"
	"github.com/dnlflores/starter-ios-app-backend/pkg/jwt"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

// TokenVerifier is satisfied by *jwt.Verifier.
type TokenVerifier interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type connectionService struct {
	hub      *hub.Hub
	verifier TokenVerifier
	registry registry.Registry
}

func NewConnectionService(h *hub.Hub, verifier TokenVerifier, reg registry.Registry) ConnectionService {
	if reg == nil {
		reg = registry.NoopRegistry{}
	}
	return &connectionService{
		hub:      h,
		verifier: verifier,
		registry: reg,
	}
}

// HandleAuth verifies the token carried by an auth frame. On success the
// client is bound in the hub before auth_success is queued, so a broadcast
// issued after the client sees auth_success always reaches it. On failure
// the client gets auth_error and is closed without ever being registered.
func (s *connectionService) HandleAuth(ctx context.Context, c *hub.Client, token string) error {
	l := log.Ctx(ctx)

	claims, err := s.verifier.ValidateToken(token)
	if err != nil {
		audit.LogWithDetail(ctx, audit.ActionAuthFailed, c.Session.GetUserID(), err.Error(), "websocket authentication failed")
		s.reject(ctx, c, domain.ErrTextInvalidToken)
		return err
	}

	previousUser := c.Session.GetUserID()
	if !c.Session.Authenticate(claims.UserID, claims.Username) {
		return hub.ErrClientClosed
	}

	if prev := s.hub.Register(claims.UserID, c); prev != nil {
		l.Info().Int64(log.FieldUserID, claims.UserID).Str("replaced_conn_id", prev.ID).
			Msg("newer connection replaced registry entry")
	}

	if previousUser != 0 && previousUser != claims.UserID && !s.hub.IsOnline(previousUser) {
		if err := s.registry.MarkOffline(ctx, previousUser); err != nil {
			l.Warn().Err(err).Int64(log.FieldUserID, previousUser).Msg("failed to clear presence")
		}
	}

	if err := s.registry.MarkOnline(ctx, claims.UserID); err != nil {
		l.Warn().Err(err).Int64(log.FieldUserID, claims.UserID).Msg("failed to mirror presence")
	}

	audit.Log(ctx, audit.ActionAuth, claims.UserID, "websocket authenticated")
	return c.SendMessage(domain.NewAuthSuccess(claims.UserID))
}

// reject sends auth_error and closes. An authenticated client that fails a
// re-auth is dropped from the hub first.
func (s *connectionService) reject(ctx context.Context, c *hub.Client, message string) {
	if userID, removed := s.hub.Unregister(c); removed {
		if err := s.registry.MarkOffline(ctx, userID); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Int64(log.FieldUserID, userID).Msg("failed to clear presence")
		}
	}
	if err := c.SendMessage(domain.NewAuthError(message)); err != nil && !errors.Is(err, hub.ErrClientClosed) {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Msg("failed to queue auth_error")
	}
	c.Close()
}

// HandleAuthTimeout closes a client that never completed the handshake.
// The state check and the close happen under the session lock, so a
// concurrent HandleAuth either wins outright or sees a closed session.
func (s *connectionService) HandleAuthTimeout(ctx context.Context, c *hub.Client) {
	if !c.Session.CloseIfConnecting() {
		return
	}
	audit.Log(ctx, audit.ActionAuthFailed, 0, "websocket authentication timed out")
	s.reject(ctx, c, domain.ErrTextAuthTimeout)
}

func (s *connectionService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	userID, removed := s.hub.Unregister(c)
	if !removed {
		return
	}

	if err := s.registry.MarkOffline(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int64(log.FieldUserID, userID).Msg("failed to clear presence")
	}
	audit.Log(ctx, audit.ActionDisconnect, userID, "websocket disconnected")
}
