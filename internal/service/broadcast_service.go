package service

import (
	"encoding/json"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

type broadcastService struct {
	hub *hub.Hub
}

func NewBroadcastService(h *hub.Hub) BroadcastService {
	return &broadcastService{hub: h}
}

// BroadcastNewMessage sends one new_message frame to the sender and one to
// the recipient if each is connected right now. Offline parties get nothing
// queued. It returns the number of frames enqueued.
func (s *broadcastService) BroadcastNewMessage(event *domain.ChatEvent) int {
	data, err := json.Marshal(domain.NewNewMessage(event))
	if err != nil {
		l := log.L()
		l.Error().Err(err).Int64(log.FieldChatID, event.ID).Msg("failed to encode new_message")
		return 0
	}

	// Sender and recipient are looked up independently; a message to
	// oneself yields two frames on the same connection.
	sent := 0
	for _, userID := range []int64{event.SenderID, event.RecipientID} {
		client, ok := s.hub.Lookup(userID)
		if !ok {
			continue
		}
		if err := client.SendRaw(data); err != nil {
			l := log.L()
			l.Warn().Err(err).Int64(log.FieldUserID, userID).Str(log.FieldConnID, client.ID).
				Msg("dropped new_message frame")
			continue
		}
		sent++
	}
	return sent
}
