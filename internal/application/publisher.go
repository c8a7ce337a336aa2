package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/common/kafka"
)

const eventSource = "service-booking"

// EventPublisher writes CloudEvents to a topic. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishKeyed(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// publishEvent emits a lifecycle event. The state change is already committed,
// so failures are logged and never returned.
func publishEvent(ctx context.Context, publisher EventPublisher, logger *zap.Logger, topic, eventType, key string, data interface{}) {
	if publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := publisher.PublishKeyed(ctx, topic, key, cloudEvent); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// outcome labels an operation result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := domain.AsAppError(err); ok {
		return string(appErr.Kind)
	}
	return "error"
}
