package events

import (
	"time"

	"github.com/google/uuid"
)

// UserUpsertedEvent carries a full account snapshot from the identity service.
type UserUpsertedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Fullname   string    `json:"fullname"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Active     bool      `json:"active"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserStatusChangedEvent is emitted when an admin activates or deactivates an account.
type UserStatusChangedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Active     bool      `json:"active"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ServiceUpsertedEvent carries a catalog entry snapshot.
type ServiceUpsertedEvent struct {
	ServiceID  uuid.UUID `json:"service_id"`
	Name       string    `json:"name"`
	Price      int64     `json:"price"`
	Active     bool      `json:"active"`
	OccurredAt time.Time `json:"occurred_at"`
}
