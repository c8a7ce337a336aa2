package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/response"
)

const (
	ctxUserID   = "auth.user_id"
	ctxUserRole = "auth.role"
	ctxClaims   = "auth.claims"
	ctxRawToken = "auth.raw_token"
)

// AuthMiddleware verifies the bearer token and rejects revoked ones.
func AuthMiddleware(jwtManager *auth.JWTManager, blacklist auth.TokenBlacklist) gin.HandlerFunc {
	if blacklist == nil {
		blacklist = auth.NoopBlacklist{}
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := jwtManager.ValidateToken(raw)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.TokenKey(raw))
		if err != nil {
			_ = c.Error(err)
		}
		if revoked {
			response.Unauthorized(c, "token has been revoked")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, claims.Role)
		c.Set(ctxClaims, claims)
		c.Set(ctxRawToken, raw)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated role is one of roles.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient role")
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user id.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserRole returns the authenticated role.
func GetUserRole(c *gin.Context) (auth.Role, bool) {
	v, ok := c.Get(ctxUserRole)
	if !ok {
		return "", false
	}
	role, ok := v.(auth.Role)
	return role, ok
}

// GetClaims returns the verified claims and the raw token they came from.
func GetClaims(c *gin.Context) (*auth.Claims, string, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, "", false
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil, "", false
	}
	return claims, c.GetString(ctxRawToken), true
}
