package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/middleware"
	"github.com/RepairBooking/service-booking/pkg/common/response"
)

// AuthHandler revokes access tokens.
type AuthHandler struct {
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(blacklist auth.TokenBlacklist, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{blacklist: blacklist, logger: logger}
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	r.POST("/api/v1/auth/logout", authMW, h.Logout)
}

// Logout handles POST /api/v1/auth/logout. The token stays revoked until it would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, raw, ok := middleware.GetClaims(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.blacklist.Revoke(c.Request.Context(), claims.TokenKey(raw), claims.ExpiresAt.Time); err != nil {
		response.Error(c, err)
		return
	}

	h.logger.Info("token revoked", zap.String("user_id", claims.UserID.String()))
	response.Success(c, nil)
}
