package domain

import (
	"errors"
	"time"
)

// ChatEvent is a persisted chat message handed over by the storage layer.
// It is forwarded verbatim in new_message frames.
type ChatEvent struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"sender_id"`
	RecipientID int64     `json:"recipient_id"`
	Message     string    `json:"message"`
	ImageURL    *string   `json:"image_url"`
	ToolID      *int64    `json:"tool_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var ErrInvalidChatEvent = errors.New("invalid chat event")

// Validate checks the fields delivery depends on.
func (e *ChatEvent) Validate() error {
	if e == nil || e.ID <= 0 || e.SenderID <= 0 || e.RecipientID <= 0 {
		return ErrInvalidChatEvent
	}
	return nil
}
