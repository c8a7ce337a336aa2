package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/RepairBooking/service-booking/internal/domain/booking"
	ratingDomain "github.com/RepairBooking/service-booking/internal/domain/rating"
	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/common/metrics"
	"github.com/RepairBooking/service-booking/pkg/events"
)

// SubmitRatingRequest holds a customer's rating for a completed booking.
type SubmitRatingRequest struct {
	BookingID uuid.UUID `json:"bookingId" binding:"required"`
	Rate      int       `json:"rate" binding:"required"`
	Comment   string    `json:"comment"`
}

// RatingDTO is the response representation of a rating.
type RatingDTO struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"bookingId"`
	Rate      int       `json:"rate"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EligibilityDTO tells a customer whether they already rated a service.
type EligibilityDTO struct {
	HasRated bool `json:"hasRated"`
}

// RatingService guards rating creation: completed bookings only, once per booking.
type RatingService struct {
	bookings  bookingDomain.BookingRepository
	ratings   ratingDomain.RatingRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewRatingService creates a new RatingService. m may be nil.
func NewRatingService(
	bookings bookingDomain.BookingRepository,
	ratings ratingDomain.RatingRepository,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RatingService {
	return &RatingService{
		bookings:  bookings,
		ratings:   ratings,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// SubmitRating attaches a rating to a completed booking owned by caller.
// A concurrent or repeated submission fails with DUPLICATE_RATING and the first rating is kept.
func (s *RatingService) SubmitRating(ctx context.Context, caller bookingDomain.Caller, req SubmitRatingRequest) (dto *RatingDTO, err error) {
	defer func() { s.metrics.ObserveOperation(string(bookingDomain.ActionRate), outcome(err)) }()

	if err := bookingDomain.Authorize(caller, nil, bookingDomain.ActionRate); err != nil {
		return nil, err
	}

	bk, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	rule, _ := bookingDomain.RuleFor(bookingDomain.ActionRate)
	if err := rule.CheckStatus(bk.Status()); err != nil {
		return nil, err
	}
	if err := bookingDomain.Authorize(caller, bk, bookingDomain.ActionRate); err != nil {
		return nil, err
	}

	rt, err := ratingDomain.NewRating(bk.ID(), caller.ID, req.Rate, req.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.ratings.Save(ctx, rt); err != nil {
		if domain.IsKind(err, domain.KindConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	s.logger.Info("booking rated",
		zap.String("booking_id", bk.ID().String()),
		zap.String("rating_id", rt.ID().String()),
		zap.Int("score", rt.Score()),
	)

	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.RatingSubmitted, bk.ID().String(),
		events.RatingSubmittedEvent{
			RatingID:   rt.ID(),
			BookingID:  bk.ID(),
			ServiceID:  bk.Service().ID,
			CustomerID: caller.ID,
			EmployeeID: bk.EmployeeID(),
			Score:      rt.Score(),
			OccurredAt: rt.CreatedAt(),
		})

	return &RatingDTO{
		ID:        rt.ID(),
		BookingID: rt.BookingID(),
		Rate:      rt.Score(),
		Comment:   rt.Comment(),
		CreatedAt: rt.CreatedAt(),
	}, nil
}

// HasRating reports whether bookingID has a rating.
func (s *RatingService) HasRating(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	ok, err := s.ratings.ExistsForBooking(ctx, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to check rating: %w", err)
	}
	return ok, nil
}

// CheckEligibility looks at the customer's first completed booking of the service and reports
// whether it is rated. No completed booking means hasRated=false.
// Customers may only ask about themselves.
func (s *RatingService) CheckEligibility(ctx context.Context, caller bookingDomain.Caller, serviceID, customerID uuid.UUID) (*EligibilityDTO, error) {
	if customerID == uuid.Nil {
		customerID = caller.ID
	}
	if caller.Role != auth.RoleAdmin && customerID != caller.ID {
		return nil, domain.NewForbiddenError("cannot check ratings of another customer")
	}

	bk, err := s.bookings.FindCompletedByServiceAndCustomer(ctx, serviceID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find completed booking: %w", err)
	}
	if bk == nil {
		return &EligibilityDTO{HasRated: false}, nil
	}

	rated, err := s.HasRating(ctx, bk.ID())
	if err != nil {
		return nil, err
	}
	return &EligibilityDTO{HasRated: rated}, nil
}
