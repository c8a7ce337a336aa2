package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/RepairBooking/service-booking/internal/application"
	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/middleware"
	"github.com/RepairBooking/service-booking/pkg/common/response"
)

// StatsProvider reports booking counts.
type StatsProvider interface {
	GetBookingStats(ctx context.Context) (*application.BookingStatsDTO, error)
}

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service StatsProvider
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service StatsProvider) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
