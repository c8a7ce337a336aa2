// Package events holds the topic names, event types and payloads exchanged over Kafka.
package events

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicUserEvents    = "user.events"
	TopicCatalogEvents = "catalog.events"
)

// Event types published on booking.events.
const (
	BookingOrdered   = "booking.ordered"
	BookingAccepted  = "booking.accepted"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"
	RatingSubmitted  = "rating.submitted"
)

// Event types consumed from user.events and catalog.events.
const (
	UserUpserted      = "user.upserted"
	UserStatusChanged = "user.status_changed"
	ServiceUpserted   = "service.upserted"
)
