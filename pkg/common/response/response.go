package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// Success writes a 200 with the result payload.
func Success(c *gin.Context, result any) {
	c.JSON(http.StatusOK, Envelope{Code: domain.CodeSuccess, Result: result})
}

// Created writes a 201 with the result payload.
func Created(c *gin.Context, result any) {
	c.JSON(http.StatusCreated, Envelope{Code: domain.CodeSuccess, Result: result})
}

// Paginated writes a page of items.
func Paginated[T any](c *gin.Context, items []T, total int64, page, limit int) {
	Success(c, domain.NewPaginatedResult(items, total, page, limit))
}

// BadRequest writes a 400 validation envelope.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Code: domain.CodeValidation, Message: message})
}

// Unauthorized writes a 401 and aborts the chain.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Code: domain.CodeUnauthenticated, Message: message})
}

// Forbidden writes a 403 and aborts the chain.
func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Envelope{Code: domain.CodeForbidden, Message: message})
}

// Error maps err to a status code and envelope. Non-domain errors become a 500 without leaking details.
func Error(c *gin.Context, err error) {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, Envelope{Code: domain.CodeInternal, Message: "internal server error"})
		return
	}
	c.JSON(StatusFor(appErr.Kind), Envelope{Code: appErr.Code, Message: appErr.Message})
}

// StatusFor returns the HTTP status for a domain error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState, domain.KindConflict:
		return http.StatusConflict
	case domain.KindForbidden, domain.KindAccountStatus:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
