package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/RepairBooking/service-booking/internal/application"
	bookingDomain "github.com/RepairBooking/service-booking/internal/domain/booking"
	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/common/middleware"
	"github.com/RepairBooking/service-booking/pkg/common/response"
)

// BookingUseCases is the part of the booking service the HTTP layer drives.
type BookingUseCases interface {
	Order(ctx context.Context, caller bookingDomain.Caller, req application.OrderBookingRequest) (*application.BookingDTO, error)
	Accept(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*application.BookingDTO, error)
	Finish(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*application.BookingDTO, error)
	Cancel(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*application.BookingDTO, error)
	List(ctx context.Context, caller bookingDomain.Caller, q application.ListBookingsQuery) (*domain.PaginatedResult[application.BookingDTO], error)
	GetBooking(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*application.BookingDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service  BookingUseCases
	resolver CallerResolver
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingUseCases, resolver CallerResolver) *BookingHandler {
	return &BookingHandler{service: service, resolver: resolver}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleCustomer), h.OrderBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/accept", middleware.RequireRole(auth.RoleEmployee), h.AcceptBooking)
		bookings.PATCH("/:id/finish", middleware.RequireRole(auth.RoleEmployee), h.FinishBooking)
		bookings.PATCH("/:id/cancel", middleware.RequireRole(auth.RoleCustomer), h.CancelBooking)
	}
}

// OrderBooking handles POST /api/v1/bookings.
func (h *BookingHandler) OrderBooking(c *gin.Context) {
	caller, ok := resolveCaller(c, h.resolver)
	if !ok {
		return
	}

	var req application.OrderBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Order(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. The caller's role decides which bookings are visible.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	caller, ok := resolveCaller(c, h.resolver)
	if !ok {
		return
	}

	q, err := parseListQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), caller, q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseUUIDParam(c, "id", "booking ID")
	if !ok {
		return
	}
	caller, ok := resolveCaller(c, h.resolver)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), caller, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AcceptBooking handles PATCH /api/v1/bookings/:id/accept.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

// FinishBooking handles PATCH /api/v1/bookings/:id/finish.
func (h *BookingHandler) FinishBooking(c *gin.Context) {
	h.transition(c, h.service.Finish)
}

// CancelBooking handles PATCH /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

type transitionFunc func(ctx context.Context, caller bookingDomain.Caller, bookingID uuid.UUID) (*application.BookingDTO, error)

func (h *BookingHandler) transition(c *gin.Context, fn transitionFunc) {
	bookingID, ok := parseUUIDParam(c, "id", "booking ID")
	if !ok {
		return
	}
	caller, ok := resolveCaller(c, h.resolver)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), caller, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func parseListQuery(c *gin.Context) (application.ListBookingsQuery, error) {
	var q application.ListBookingsQuery
	var err error

	if q.Page, err = intQuery(c, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intQuery(c, "page_size"); err != nil {
		return q, err
	}
	if raw := c.Query("status"); raw != "" {
		status, err := bookingDomain.ParseBookingStatus(raw)
		if err != nil {
			return q, err
		}
		q.Status = &status
	}
	if q.ServiceID, err = optionalUUIDQuery(c, "service_id"); err != nil {
		return q, err
	}
	return q, nil
}
