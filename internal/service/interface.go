package service

import (
	"context"
	"errors"
	"time"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
)

var (
	ErrInvalidPlatform = errors.New("platform must be ios or android")
	ErrInvalidToken    = errors.New("device token is required")
)

// TokenService owns the device token lifecycle: register, unregister,
// invalidate and age-out.
type TokenService interface {
	Register(ctx context.Context, userID int64, token, platform string) error
	Unregister(ctx context.Context, userID int64, token string) error
	Invalidate(ctx context.Context, token string) error
	ActiveTokens(ctx context.Context, userID int64) ([]*domain.DeviceToken, error)
	Cleanup(ctx context.Context, maxAgeDays int) (int64, error)
	// StartCleanup sweeps on every interval until ctx is done.
	StartCleanup(ctx context.Context, interval time.Duration, maxAgeDays int) error
}

type IdentityService interface {
	GetIdentity(ctx context.Context, userID int64) (*domain.Identity, error)
}

// PushService delivers alerts to a user's registered devices.
type PushService interface {
	SendNotificationToUser(ctx context.Context, userID int64, title, body string, data map[string]string) error
	SendChatNotification(ctx context.Context, senderID, recipientID int64, message string, chatID int64) error
	Enabled() bool
}

// BroadcastService fans chat events out to live connections.
type BroadcastService interface {
	BroadcastNewMessage(event *domain.ChatEvent) int
}

// NotificationService reacts to newly created chat events.
type NotificationService interface {
	OnChatEventCreated(ctx context.Context, event *domain.ChatEvent)
	// Wait blocks until detached push sends have finished.
	Wait()
}

// ConnectionService drives the websocket handshake and disconnect bookkeeping.
type ConnectionService interface {
	HandleAuth(ctx context.Context, client *hub.Client, token string) error
	HandleAuthTimeout(ctx context.Context, client *hub.Client)
	HandleDisconnect(ctx context.Context, client *hub.Client)
}
