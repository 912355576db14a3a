package consumer

import (
	"context"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
)

// ChatEventHandler handles chat events created by the storage layer.
type ChatEventHandler interface {
	OnChatEventCreated(ctx context.Context, event *domain.ChatEvent)
}

// ChatEventConsumer defines the interface for consuming chat-created events.
type ChatEventConsumer interface {
	// Run consumes until ctx is done.
	Run(ctx context.Context) error
	Close() error
}
