package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/push"
	"github.com/dnlflores/starter-ios-app-backend/internal/repository"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

const (
	chatNotificationTitle = "New Message"
	chatNotificationType  = "chat_message"
	defaultSound          = "default"
	defaultBadge          = 1

	// The chat text travels twice (alert body and data), and both APNs and
	// FCM reject payloads over 4KB.
	maxPreviewBytes = 1024
)

type pushService struct {
	tokens     TokenService
	identities IdentityService
	providers  map[domain.Platform]push.Provider
	now        func() time.Time
	warnOnce   sync.Once
}

// NewPushService creates a push service. Platforms without a provider are
// skipped; with no providers at all every send is a no-op.
func NewPushService(tokens TokenService, identities IdentityService, providers map[domain.Platform]push.Provider, now func() time.Time) PushService {
	if now == nil {
		now = time.Now
	}
	active := make(map[domain.Platform]push.Provider, len(providers))
	for p, provider := range providers {
		if provider != nil {
			active[p] = provider
		}
	}
	return &pushService{
		tokens:     tokens,
		identities: identities,
		providers:  active,
		now:        now,
	}
}

func (s *pushService) Enabled() bool {
	return len(s.providers) > 0
}

func (s *pushService) warnDisabled(ctx context.Context) {
	s.warnOnce.Do(func() {
		l := log.Ctx(ctx)
		l.Warn().Msg("push notifications disabled, no provider configured")
	})
}

func (s *pushService) SendNotificationToUser(ctx context.Context, userID int64, title, body string, data map[string]string) error {
	l := log.Ctx(ctx).With().Int64(log.FieldUserID, userID).Logger()

	if !s.Enabled() {
		s.warnDisabled(ctx)
		return nil
	}

	tokens, err := s.tokens.ActiveTokens(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		l.Debug().Msg("no active device tokens")
		return nil
	}

	byPlatform := make(map[domain.Platform][]string)
	for _, t := range tokens {
		byPlatform[t.Platform] = append(byPlatform[t.Platform], t.Token)
	}

	n := push.Notification{
		Title: title,
		Body:  body,
		Sound: defaultSound,
		Badge: defaultBadge,
		Data:  data,
	}

	var errs []error
	for platform, devices := range byPlatform {
		provider, ok := s.providers[platform]
		if !ok {
			l.Debug().Str(log.FieldPlatform, string(platform)).Int("devices", len(devices)).Msg("no provider for platform")
			continue
		}

		result, err := provider.Send(ctx, n, devices)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s send: %w", provider.Name(), err))
		}
		if result == nil {
			continue
		}

		s.handleFailures(ctx, provider.Name(), result.Failed)

		l.Info().Str(log.FieldPlatform, string(platform)).Int("sent", result.Sent).
			Int("failed", len(result.Failed)).Msg("push notification sent")
	}

	return errors.Join(errs...)
}

// handleFailures deactivates tokens the provider rejected permanently.
// Transient failures are left for the next send.
func (s *pushService) handleFailures(ctx context.Context, providerName string, failures []push.Failure) {
	l := log.Ctx(ctx)
	for _, f := range failures {
		if !f.Permanent() {
			l.Warn().Str("provider", providerName).Int(log.FieldStatus, f.Status).
				Str("reason", f.Reason).Msg("transient push failure")
			continue
		}
		if err := s.tokens.Invalidate(ctx, f.Device); err != nil {
			l.Error().Err(err).Str("provider", providerName).Msg("failed to invalidate device token")
		}
	}
}

func (s *pushService) SendChatNotification(ctx context.Context, senderID, recipientID int64, message string, chatID int64) error {
	if !s.Enabled() {
		s.warnDisabled(ctx)
		return nil
	}

	sender, err := s.identities.GetIdentity(ctx, senderID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			l := log.Ctx(ctx)
			l.Warn().Int64("sender_id", senderID).Int64(log.FieldChatID, chatID).Msg("sender not found, skipping chat notification")
			return nil
		}
		return fmt.Errorf("lookup sender: %w", err)
	}

	preview := truncateUTF8(message, maxPreviewBytes)
	body := sender.DisplayName() + ": " + preview
	data := map[string]string{
		"type":         chatNotificationType,
		"sender_id":    strconv.FormatInt(senderID, 10),
		"recipient_id": strconv.FormatInt(recipientID, 10),
		"message":      preview,
		"message_id":   strconv.FormatInt(chatID, 10),
		"created_at":   s.now().UTC().Format(time.RFC3339Nano),
	}

	return s.SendNotificationToUser(ctx, recipientID, chatNotificationTitle, body, data)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
