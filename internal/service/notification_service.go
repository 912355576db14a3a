package service

import (
	"context"
	"sync"
	"time"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

type notificationService struct {
	broadcast   BroadcastService
	push        PushService
	sendTimeout time.Duration
	wg          sync.WaitGroup
}

func NewNotificationService(broadcast BroadcastService, push PushService, sendTimeout time.Duration) NotificationService {
	return &notificationService{
		broadcast:   broadcast,
		push:        push,
		sendTimeout: sendTimeout,
	}
}

// OnChatEventCreated delivers live frames synchronously, then hands the push
// to a detached goroutine. Push failures are logged and never reach the caller.
func (s *notificationService) OnChatEventCreated(ctx context.Context, event *domain.ChatEvent) {
	l := log.Ctx(ctx).With().Int64(log.FieldChatID, event.ID).Logger()

	frames := s.broadcast.BroadcastNewMessage(event)
	l.Debug().Int("frames", frames).Msg("chat event broadcast")

	pushCtx := log.WithLogger(context.WithoutCancel(ctx), l)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				l.Error().Interface("panic", r).Msg("chat notification panicked")
			}
		}()

		if s.sendTimeout > 0 {
			var cancel context.CancelFunc
			pushCtx, cancel = context.WithTimeout(pushCtx, s.sendTimeout)
			defer cancel()
		}

		if err := s.push.SendChatNotification(pushCtx, event.SenderID, event.RecipientID, event.Message, event.ID); err != nil {
			l.Error().Err(err).Msg("failed to send chat notification")
		}
	}()
}

func (s *notificationService) Wait() {
	s.wg.Wait()
}
