package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves liveness and readiness probes.
type Handler struct {
	db      Pinger
	service string
	timeout time.Duration
}

// NewHandler creates a health handler backed by the gorm connection pool.
// A nil db makes readiness always succeed.
func NewHandler(db *gorm.DB, service string) *Handler {
	h := &Handler{service: service, timeout: 2 * time.Second}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			h.db = sqlDB
		}
	}
	return h
}

// NewHandlerWithPinger is used where the dependency is not a gorm pool.
func NewHandlerWithPinger(p Pinger, service string) *Handler {
	return &Handler{db: p, service: service, timeout: 2 * time.Second}
}

// RegisterRoutes mounts /health and /ready.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Live)
	r.GET("/ready", h.Ready)
}

// Live always answers while the process is serving.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready checks the database.
func (h *Handler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unavailable",
				"service":  h.service,
				"database": err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "service": h.service})
}
