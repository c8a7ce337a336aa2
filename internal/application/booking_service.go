package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/RepairBooking/service-booking/internal/domain/booking"
	catalogDomain "github.com/RepairBooking/service-booking/internal/domain/catalog"
	ratingDomain "github.com/RepairBooking/service-booking/internal/domain/rating"
	userDomain "github.com/RepairBooking/service-booking/internal/domain/user"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/common/metrics"
	"github.com/RepairBooking/service-booking/pkg/events"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// OrderBookingRequest holds the data needed to order a service.
type OrderBookingRequest struct {
	ServiceID uuid.UUID `json:"serviceId" binding:"required"`
	Address   string    `json:"address" binding:"required"`
	HireAt    time.Time `json:"hireAt" binding:"required"`
	Note      string    `json:"note"`
}

// ListBookingsQuery narrows a listing inside the caller's visibility.
type ListBookingsQuery struct {
	Page      int
	PageSize  int
	Status    *bookingDomain.BookingStatus
	ServiceID *uuid.UUID
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customerId"`
	CustomerName string     `json:"customerName"`
	ServiceID    uuid.UUID  `json:"serviceId"`
	ServiceName  string     `json:"serviceName"`
	EmployeeID   *uuid.UUID `json:"employeeId"`
	EmployeeName *string    `json:"employeeName"`
	Address      string     `json:"address"`
	HireAt       time.Time  `json:"hireAt"`
	Note         string     `json:"note"`
	Price        int64      `json:"price"`
	Status       string     `json:"status"`
	HasRated     bool       `json:"hasRated"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// BookingStatsDTO holds booking counts for the admin dashboard.
type BookingStatsDTO struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// BookingService is the application service orchestrating the booking lifecycle.
type BookingService struct {
	bookings  bookingDomain.BookingRepository
	ratings   ratingDomain.RatingRepository
	services  catalogDomain.ServiceRepository
	users     userDomain.UserRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService. m may be nil.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	ratings ratingDomain.RatingRepository,
	services catalogDomain.ServiceRepository,
	users userDomain.UserRepository,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		ratings:   ratings,
		services:  services,
		users:     users,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Order creates a PENDING booking with a snapshot of the service's current name and price.
func (s *BookingService) Order(ctx context.Context, caller bookingDomain.Caller, req OrderBookingRequest) (dto *BookingDTO, err error) {
	defer func() { s.metrics.ObserveOperation(string(bookingDomain.ActionOrder), outcome(err)) }()

	if err := bookingDomain.Authorize(caller, nil, bookingDomain.ActionOrder); err != nil {
		return nil, err
	}

	svc, err := s.services.FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Orderable() {
		return nil, domain.NewNotFoundErrorWithCode(domain.CodeServiceNotFound, fmt.Sprintf("service not found: %s", req.ServiceID))
	}

	bk, err := bookingDomain.NewBooking(
		caller.ID,
		bookingDomain.ServiceSnapshot{ID: svc.ID(), Name: svc.Name(), Price: svc.Price()},
		req.Address,
		req.HireAt,
		req.Note,
	)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking ordered",
		zap.String("booking_id", bk.ID().String()),
		zap.String("customer_id", caller.ID.String()),
		zap.String("service_id", svc.ID().String()),
	)

	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingOrdered, bk.ID().String(),
		events.BookingOrderedEvent{
			BookingID:   bk.ID(),
			CustomerID:  bk.CustomerID(),
			ServiceID:   svc.ID(),
			ServiceName: svc.Name(),
			Price:       svc.Price(),
			HireAt:      bk.HireAt(),
			OccurredAt:  bk.CreatedAt(),
		})

	return s.view(ctx, bk)
}

// Accept assigns the calling employee to a PENDING booking. Of two concurrent
// accepts on the same booking exactly one succeeds.
func (s *BookingService) Accept(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.transition(ctx, caller, bookingID, bookingDomain.ActionAccept, func(bk *bookingDomain.Booking) error {
		return bk.Accept(caller.ID)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingAccepted, bk.ID().String(),
		events.BookingAcceptedEvent{
			BookingID:  bk.ID(),
			CustomerID: bk.CustomerID(),
			EmployeeID: caller.ID,
			OccurredAt: bk.UpdatedAt(),
		})

	return s.view(ctx, bk)
}

// Finish completes an ACCEPTED booking. Only the assigned employee may finish it.
func (s *BookingService) Finish(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.transition(ctx, caller, bookingID, bookingDomain.ActionFinish, func(bk *bookingDomain.Booking) error {
		return bk.Finish()
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingCompleted, bk.ID().String(),
		events.BookingCompletedEvent{
			BookingID:  bk.ID(),
			CustomerID: bk.CustomerID(),
			EmployeeID: caller.ID,
			Price:      bk.Service().Price,
			OccurredAt: bk.UpdatedAt(),
		})

	return s.view(ctx, bk)
}

// Cancel cancels a PENDING booking on behalf of its customer.
func (s *BookingService) Cancel(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.transition(ctx, caller, bookingID, bookingDomain.ActionCancel, func(bk *bookingDomain.Booking) error {
		return bk.Cancel()
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(),
		events.BookingCancelledEvent{
			BookingID:  bk.ID(),
			CustomerID: bk.CustomerID(),
			OccurredAt: bk.UpdatedAt(),
		})

	return s.view(ctx, bk)
}

// transition runs the shared guard sequence: role and account, existence, ownership,
// source status, then a conditional update against the stored status.
func (s *BookingService) transition(
	ctx context.Context,
	caller bookingDomain.Caller,
	bookingID uuid.UUID,
	action bookingDomain.Action,
	apply func(*bookingDomain.Booking) error,
) (bk *bookingDomain.Booking, err error) {
	defer func() { s.metrics.ObserveOperation(string(action), outcome(err)) }()

	if err := bookingDomain.Authorize(caller, nil, action); err != nil {
		return nil, err
	}

	bk, err = s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bookingDomain.Authorize(caller, bk, action); err != nil {
		return nil, err
	}

	expected := bk.Expect()
	if err := apply(bk); err != nil {
		return nil, err
	}

	if err := s.bookings.UpdateStatus(ctx, bk, expected); err != nil {
		if errors.Is(err, bookingDomain.ErrStatusChanged) {
			rule, _ := bookingDomain.RuleFor(action)
			s.logger.Info("booking transition lost to a concurrent update",
				zap.String("booking_id", bookingID.String()),
				zap.String("action", string(action)),
				zap.String("caller_id", caller.ID.String()),
			)
			return nil, rule.StatusChangedError()
		}
		return nil, fmt.Errorf("failed to %s booking: %w", action, err)
	}

	s.logger.Info("booking transitioned",
		zap.String("booking_id", bookingID.String()),
		zap.String("action", string(action)),
		zap.String("from", string(expected.Status)),
		zap.String("to", string(bk.Status())),
		zap.String("caller_id", caller.ID.String()),
	)
	return bk, nil
}

// List returns the page of bookings visible to caller. The visibility predicate is
// evaluated by the store, so the total reflects the visible set.
func (s *BookingService) List(ctx context.Context, caller bookingDomain.Caller, q ListBookingsQuery) (*domain.PaginatedResult[BookingDTO], error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	bookings, total, err := s.bookings.List(ctx, bookingDomain.ListFilter{
		Visibility: bookingDomain.VisibilityFor(caller),
		Status:     q.Status,
		ServiceID:  q.ServiceID,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos, err := s.views(ctx, bookings)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(dtos, total, page, pageSize)
	return &result, nil
}

// GetBooking returns one booking if caller may see it. Bookings outside the caller's
// visibility are reported as not found.
func (s *BookingService) GetBooking(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bookingDomain.VisibilityFor(caller).Allows(bk) {
		return nil, domain.NewNotFoundErrorWithCode(domain.CodeBookingNotFound, fmt.Sprintf("booking not found: %s", bookingID))
	}
	return s.view(ctx, bk)
}

// GetBookingStats returns booking counts by status (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	byStatus := map[string]int64{}
	for _, st := range []bookingDomain.BookingStatus{
		bookingDomain.StatusPending, bookingDomain.StatusAccepted,
		bookingDomain.StatusCompleted, bookingDomain.StatusCancelled,
	} {
		byStatus[string(st)] = 0
	}
	var total int64
	for status, c := range counts {
		byStatus[status] = c
		total += c
	}
	return &BookingStatsDTO{Total: total, ByStatus: byStatus}, nil
}

func (s *BookingService) view(ctx context.Context, bk *bookingDomain.Booking) (*BookingDTO, error) {
	dtos, err := s.views(ctx, []*bookingDomain.Booking{bk})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

// views converts bookings to DTOs with one user lookup and one rating lookup for the whole batch.
func (s *BookingService) views(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingDTO, error) {
	userIDs := make([]uuid.UUID, 0, len(bookings)*2)
	var completed []uuid.UUID
	seen := map[uuid.UUID]bool{}
	addUser := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			userIDs = append(userIDs, id)
		}
	}
	for _, bk := range bookings {
		addUser(bk.CustomerID())
		if emp := bk.EmployeeID(); emp != nil {
			addUser(*emp)
		}
		if bk.Status() == bookingDomain.StatusCompleted {
			completed = append(completed, bk.ID())
		}
	}

	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve booking users: %w", err)
	}
	rated, err := s.ratings.RatedBookingIDs(ctx, completed)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve booking ratings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, users, rated[bk.ID()])
	}
	return dtos, nil
}

func toBookingDTO(bk *bookingDomain.Booking, users map[uuid.UUID]*userDomain.User, hasRated bool) BookingDTO {
	svc := bk.Service()
	dto := BookingDTO{
		ID:          bk.ID(),
		CustomerID:  bk.CustomerID(),
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		EmployeeID:  bk.EmployeeID(),
		Address:     bk.Address(),
		HireAt:      bk.HireAt(),
		Note:        bk.Note(),
		Price:       svc.Price,
		Status:      bk.Status().String(),
		HasRated:    hasRated,
		CreatedAt:   bk.CreatedAt(),
	}
	if u, ok := users[bk.CustomerID()]; ok {
		dto.CustomerName = u.Fullname()
	}
	if emp := bk.EmployeeID(); emp != nil {
		name := ""
		if u, ok := users[*emp]; ok {
			name = u.Fullname()
		}
		dto.EmployeeName = &name
	}
	return dto
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
