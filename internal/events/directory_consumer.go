package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/common/kafka"
	"github.com/RepairBooking/service-booking/pkg/events"
)

// DirectoryUpdater applies identity and catalog events to the local projections.
// *application.DirectoryService satisfies it.
type DirectoryUpdater interface {
	HandleUserUpserted(ctx context.Context, evt events.UserUpsertedEvent) error
	HandleUserStatusChanged(ctx context.Context, evt events.UserStatusChangedEvent) error
	HandleServiceUpserted(ctx context.Context, evt events.ServiceUpsertedEvent) error
}

// DirectoryEventConsumer keeps the users and services projections in sync with
// the identity and catalog services.
type DirectoryEventConsumer struct {
	consumer *kafka.Consumer
	updater  DirectoryUpdater
	logger   *zap.Logger
}

// NewDirectoryEventConsumer creates a consumer on user.events and catalog.events.
func NewDirectoryEventConsumer(
	brokers []string,
	groupID string,
	updater DirectoryUpdater,
	logger *zap.Logger,
) *DirectoryEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID,
		[]string{events.TopicUserEvents, events.TopicCatalogEvents}, logger)
	return &DirectoryEventConsumer{
		consumer: consumer,
		updater:  updater,
		logger:   logger,
	}
}

// Start begins consuming. This blocks until the context is cancelled.
func (c *DirectoryEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *DirectoryEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *DirectoryEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	return dispatch(ctx, c.updater, c.logger, msg.Topic, msg.Value)
}

// dispatch routes one raw message. Malformed or invalid events are logged and
// dropped; store errors are returned so the consumer retries.
func dispatch(ctx context.Context, updater DirectoryUpdater, logger *zap.Logger, topic string, value []byte) error {
	cloudEvent, err := kafka.ParseCloudEvent(value)
	if err != nil {
		logger.Error("failed to parse cloud event",
			zap.String("topic", topic),
			zap.Error(err),
			zap.String("raw", string(value)),
		)
		return nil
	}

	switch cloudEvent.Type {
	case events.UserUpserted:
		var evt events.UserUpsertedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			return dropMalformed(logger, cloudEvent, err)
		}
		return settle(logger, cloudEvent, updater.HandleUserUpserted(ctx, evt))
	case events.UserStatusChanged:
		var evt events.UserStatusChangedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			return dropMalformed(logger, cloudEvent, err)
		}
		return settle(logger, cloudEvent, updater.HandleUserStatusChanged(ctx, evt))
	case events.ServiceUpserted:
		var evt events.ServiceUpsertedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			return dropMalformed(logger, cloudEvent, err)
		}
		return settle(logger, cloudEvent, updater.HandleServiceUpserted(ctx, evt))
	default:
		logger.Debug("ignoring unhandled event type",
			zap.String("topic", topic),
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func dropMalformed(logger *zap.Logger, ce kafka.CloudEvent, err error) error {
	logger.Error("failed to parse event data",
		zap.String("type", ce.Type),
		zap.String("event_id", ce.ID),
		zap.Error(err),
	)
	return nil
}

func settle(logger *zap.Logger, ce kafka.CloudEvent, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsAppError(err); ok {
		logger.Warn("rejected directory event",
			zap.String("type", ce.Type),
			zap.String("event_id", ce.ID),
			zap.Error(err),
		)
		return nil
	}
	return err
}
