package booking

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter selects a page of bookings inside a visibility scope.
type ListFilter struct {
	Visibility Visibility
	Status     *BookingStatus
	ServiceID  *uuid.UUID
	Page       int
	PageSize   int
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// List returns one page of bookings matching filter, newest first, and the total
	// number of matching bookings.
	List(ctx context.Context, filter ListFilter) ([]*Booking, int64, error)

	// FindCompletedByServiceAndCustomer returns the customer's earliest COMPLETED booking
	// for the service, or nil when there is none.
	FindCompletedByServiceAndCustomer(ctx context.Context, serviceID, customerID uuid.UUID) (*Booking, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// UpdateStatus writes the booking's status and employee only if the stored row
	// still matches expected. It returns ErrStatusChanged when no row matched.
	UpdateStatus(ctx context.Context, booking *Booking, expected Expectation) error
}
