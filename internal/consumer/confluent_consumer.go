package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	pkglog "github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

// ConfluentConsumer implements ChatEventConsumer using confluent-kafka-go.
type ConfluentConsumer struct {
	consumer *kafka.Consumer
	topic    string
	handler  ChatEventHandler
}

// NewConfluentConsumer creates a new Kafka consumer for chat-created events.
func NewConfluentConsumer(cfg config.KafkaConfig, handler ChatEventHandler) (*ConfluentConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  cfg.AutoOffsetReset,
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &ConfluentConsumer{
		consumer: c,
		topic:    cfg.Topic,
		handler:  handler,
	}, nil
}

// Run subscribes and polls until ctx is done.
func (cc *ConfluentConsumer) Run(ctx context.Context) error {
	if err := cc.consumer.Subscribe(cc.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", cc.topic, err)
	}

	l := pkglog.L()
	l.Info().Str("topic", cc.topic).Msg("chat-event consumer started")

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("chat-event consumer shutting down")
			return nil
		default:
			msg, err := cc.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				l.Error().Err(err).Msg("chat-event consumer error")
				continue
			}

			processMessage(ctx, cc.handler, msg.Value)
		}
	}
}

// processMessage skips records that do not decode into a deliverable event.
func processMessage(ctx context.Context, handler ChatEventHandler, value []byte) bool {
	l := pkglog.L()

	var event domain.ChatEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.Error().Err(err).Msg("failed to unmarshal chat event")
		return false
	}
	if err := event.Validate(); err != nil {
		l.Warn().Int64(pkglog.FieldChatID, event.ID).Msg("skipping incomplete chat event")
		return false
	}

	l.Debug().Int64(pkglog.FieldChatID, event.ID).Msg("received chat event")

	handler.OnChatEventCreated(ctx, &event)
	return true
}

// Close releases the consumer. Call after Run has returned.
func (cc *ConfluentConsumer) Close() error {
	if err := cc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}

