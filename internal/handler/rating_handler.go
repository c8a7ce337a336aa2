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

// RatingUseCases is the part of the rating service the HTTP layer drives.
type RatingUseCases interface {
	SubmitRating(ctx context.Context, caller bookingDomain.Caller, req application.SubmitRatingRequest) (*application.RatingDTO, error)
	CheckEligibility(ctx context.Context, caller bookingDomain.Caller, serviceID, customerID uuid.UUID) (*application.EligibilityDTO, error)
}

// RatingHandler handles HTTP requests for ratings.
type RatingHandler struct {
	service  RatingUseCases
	resolver CallerResolver
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(service RatingUseCases, resolver CallerResolver) *RatingHandler {
	return &RatingHandler{service: service, resolver: resolver}
}

// RegisterRoutes registers rating routes.
func (h *RatingHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	rating := r.Group("/api/v1/rating")
	rating.Use(authMW)
	{
		rating.POST("", middleware.RequireRole(auth.RoleCustomer), h.SubmitRating)
		rating.GET("/check", middleware.RequireRole(auth.RoleCustomer, auth.RoleAdmin), h.CheckEligibility)
	}
}

// SubmitRating handles POST /api/v1/rating.
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	caller, ok := resolveCaller(c, h.resolver)
	if !ok {
		return
	}

	var req application.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SubmitRating(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CheckEligibility handles GET /api/v1/rating/check?serviceId=&customerId=.
func (h *RatingHandler) CheckEligibility(c *gin.Context) {
	serviceID, err := optionalUUIDQuery(c, "serviceId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if serviceID == nil {
		response.Error(c, domain.NewValidationError("serviceId is required"))
		return
	}
	customerID, err := optionalUUIDQuery(c, "customerId")
	if err != nil {
		response.Error(c, err)
		return
	}

	caller, ok := resolveCaller(c, h.resolver)
	if !ok {
		return
	}

	target := uuid.Nil
	if customerID != nil {
		target = *customerID
	}
	result, err := h.service.CheckEligibility(c.Request.Context(), caller, *serviceID, target)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
