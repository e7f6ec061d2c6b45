package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// HandlerFunc reacts to one decoded event.
type HandlerFunc func(ctx context.Context, event *Event) error

// StartSubscriber consumes every event type from subscriber until ctx is done.
// Each message is acked after handler returns nil and nacked otherwise.
func StartSubscriber(ctx context.Context, subscriber message.Subscriber, topicPrefix string, logger *slog.Logger, handler HandlerFunc) error {
	for _, eventType := range AllEventTypes {
		messages, err := subscriber.Subscribe(ctx, topicPrefix+eventType)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
		}
		go consume(ctx, messages, logger, handler)
	}
	return nil
}

func consume(ctx context.Context, messages <-chan *message.Message, logger *slog.Logger, handler HandlerFunc) {
	for msg := range messages {
		event, err := DecodeEvent(msg)
		if err != nil {
			logger.ErrorContext(ctx, "Dropping undecodable event", "message_id", msg.UUID, "error", err)
			msg.Ack()
			continue
		}
		if err := handler(ctx, event); err != nil {
			logger.WarnContext(ctx, "Event handler failed", "event_type", event.Type, "event_id", event.ID, "error", err)
			msg.Nack()
			continue
		}
		msg.Ack()
	}
}

// AuditLogHandler writes one structured log line per event.
func AuditLogHandler(logger *slog.Logger) HandlerFunc {
	return func(ctx context.Context, event *Event) error {
		args := []any{
			"event_id", event.ID,
			"event_type", event.Type,
			"occurred_at", event.Timestamp,
		}
		if event.ActorID != nil {
			args = append(args, "actor_id", *event.ActorID)
		}
		logger.InfoContext(ctx, "Domain event", args...)
		return nil
	}
}
