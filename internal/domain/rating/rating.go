package rating

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is a customer's score for one completed booking. It is never edited.
type Rating struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	customerID uuid.UUID
	score      int
	comment    string
	createdAt  time.Time
}

// NewRating creates a rating after validating the score range.
func NewRating(bookingID, customerID uuid.UUID, score int, comment string) (*Rating, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if err := ValidateScore(score); err != nil {
		return nil, err
	}

	return &Rating{
		id:         uuid.New(),
		bookingID:  bookingID,
		customerID: customerID,
		score:      score,
		comment:    strings.TrimSpace(comment),
		createdAt:  time.Now().UTC(),
	}, nil
}

// ValidateScore checks score is within [MinScore, MaxScore].
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return domain.NewValidationError(fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore))
	}
	return nil
}

// Reconstruct rebuilds a Rating from persistence.
func Reconstruct(id, bookingID, customerID uuid.UUID, score int, comment string, createdAt time.Time) *Rating {
	return &Rating{
		id:         id,
		bookingID:  bookingID,
		customerID: customerID,
		score:      score,
		comment:    comment,
		createdAt:  createdAt,
	}
}

// Getters.
func (r *Rating) ID() uuid.UUID         { return r.id }
func (r *Rating) BookingID() uuid.UUID  { return r.bookingID }
func (r *Rating) CustomerID() uuid.UUID { return r.customerID }
func (r *Rating) Score() int            { return r.score }
func (r *Rating) Comment() string       { return r.comment }
func (r *Rating) CreatedAt() time.Time  { return r.createdAt }

// NewDuplicateRatingError is returned when a booking already carries a rating.
func NewDuplicateRatingError(bookingID uuid.UUID) error {
	return domain.NewConflictErrorWithCode(domain.CodeDuplicateRating,
		fmt.Sprintf("booking %s has already been rated", bookingID))
}
