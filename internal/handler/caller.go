package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	bookingDomain "github.com/RepairBooking/service-booking/internal/domain/booking"
	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/common/middleware"
	"github.com/RepairBooking/service-booking/pkg/common/response"
)

// CallerResolver turns the token identity into a Caller with its account state.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, userID uuid.UUID, role auth.Role) (bookingDomain.Caller, error)
}

// resolveCaller writes the error response itself when it returns false.
func resolveCaller(c *gin.Context, resolver CallerResolver) (bookingDomain.Caller, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return bookingDomain.Caller{}, false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return bookingDomain.Caller{}, false
	}

	caller, err := resolver.ResolveCaller(c.Request.Context(), userID, role)
	if err != nil {
		response.Error(c, err)
		return bookingDomain.Caller{}, false
	}
	return caller, true
}

func parseUUIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUIDQuery returns nil for an absent parameter.
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError("invalid " + name)
	}
	return &id, nil
}

// intQuery returns 0 for an absent parameter so the service applies its default.
func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError("invalid " + name)
	}
	return n, nil
}
