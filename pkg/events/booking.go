package events

import (
	"time"

	"github.com/google/uuid"
)

// BookingOrderedEvent is published when a customer places a booking.
type BookingOrderedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Price       int64     `json:"price"`
	HireAt      time.Time `json:"hire_at"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingAcceptedEvent is published when an employee claims a pending booking.
type BookingAcceptedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is published when the assigned employee finishes the job.
type BookingCompletedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Price      int64     `json:"price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a customer cancels a pending booking.
type BookingCancelledEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RatingSubmittedEvent is published once per booking when the customer rates it.
type RatingSubmittedEvent struct {
	RatingID   uuid.UUID  `json:"rating_id"`
	BookingID  uuid.UUID  `json:"booking_id"`
	ServiceID  uuid.UUID  `json:"service_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	EmployeeID *uuid.UUID `json:"employee_id,omitempty"`
	Score      int        `json:"score"`
	OccurredAt time.Time  `json:"occurred_at"`
}
