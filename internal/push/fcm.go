package push

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

// FCM caps multicast batches at 500 tokens.
const fcmBatchSize = 500

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMProvider sends alerts to Android devices through Firebase Cloud Messaging.
type FCMProvider struct {
	client   multicastSender
	classify func(error) (int, string)
}

func NewFCMProvider(ctx context.Context, cfg config.FCMConfig) (*FCMProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	l := log.L()
	l.Info().Msg("fcm provider initialized")

	return &FCMProvider{client: client, classify: classifyFCMError}, nil
}

func (p *FCMProvider) Name() string { return "fcm" }

// classifyFCMError maps FCM error codes onto the HTTP status and reason
// vocabulary shared with APNs.
func classifyFCMError(err error) (int, string) {
	switch {
	case messaging.IsUnregistered(err):
		return http.StatusGone, "Unregistered"
	case messaging.IsSenderIDMismatch(err):
		return http.StatusBadRequest, "SenderIdMismatch"
	case messaging.IsInvalidArgument(err):
		return http.StatusBadRequest, "InvalidArgument"
	case messaging.IsQuotaExceeded(err):
		return http.StatusTooManyRequests, "QuotaExceeded"
	case messaging.IsUnavailable(err):
		return http.StatusServiceUnavailable, "Unavailable"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (p *FCMProvider) Send(ctx context.Context, n Notification, tokens []string) (*Result, error) {
	result := &Result{}

	for start := 0; start < len(tokens); start += fcmBatchSize {
		end := start + fcmBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		message := &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: n.Title,
				Body:  n.Body,
			},
			Data: n.Data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound: n.Sound,
				},
			},
		}

		response, err := p.client.SendEachForMulticast(ctx, message)
		if err != nil {
			return result, fmt.Errorf("failed to send fcm multicast message: %w", err)
		}

		result.Sent += response.SuccessCount
		for i, resp := range response.Responses {
			if resp.Success {
				continue
			}
			status, reason := p.classify(resp.Error)
			result.Failed = append(result.Failed, Failure{Device: batch[i], Status: status, Reason: reason})
		}
	}

	return result, nil
}
