package rating

import (
	"context"

	"github.com/google/uuid"
)

// RatingRepository defines persistence operations for ratings.
type RatingRepository interface {
	// Save inserts a rating. A second rating for the same booking fails with a
	// duplicate-rating conflict and leaves the first untouched.
	Save(ctx context.Context, rating *Rating) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Rating, error)
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	// RatedBookingIDs returns the subset of bookingIDs that have a rating.
	RatedBookingIDs(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}
