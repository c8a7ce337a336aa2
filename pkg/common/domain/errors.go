package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so transports can map them without string matching.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindInvalidState  ErrorKind = "invalid_state"
	KindForbidden     ErrorKind = "forbidden"
	KindAccountStatus ErrorKind = "account_inactive"
	KindConflict      ErrorKind = "conflict"
	KindValidation    ErrorKind = "validation"
	KindUnauthorized  ErrorKind = "unauthorized"
)

// Error codes carried in the response envelope.
const (
	CodeSuccess               = 1000
	CodeValidation            = 1001
	CodeUnauthenticated       = 1006
	CodeForbidden             = 1007
	CodeAccountNotActive      = 1008
	CodeBookingNotFound       = 2001
	CodeInvalidBookingStatus  = 2002
	CodeServiceNotFound       = 2003
	CodeBookingNotCancellable = 2004
	CodeDuplicateRating       = 2005
	CodeConflict              = 2998
	CodeNotFound              = 2999
	CodeInternal              = 9999
)

// AppError is a non-fatal, typed domain error.
type AppError struct {
	Kind    ErrorKind
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches on kind and code so sentinel-style comparisons work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", entity, id),
	}
}

// NewNotFoundErrorWithCode reports a missing entity with a specific envelope code.
func NewNotFoundErrorWithCode(code int, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Code: CodeValidation, Message: message}
}

// NewInvalidStateError reports a transition attempted from the wrong state.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Kind:    KindInvalidState,
		Code:    CodeInvalidBookingStatus,
		Message: fmt.Sprintf("invalid state transition from %s to %s", from, to),
	}
}

// NewInvalidStateErrorWithCode reports an invalid state with a specific envelope code.
func NewInvalidStateErrorWithCode(code int, message string) *AppError {
	return &AppError{Kind: KindInvalidState, Code: code, Message: message}
}

// NewForbiddenError reports an ownership or role violation.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: CodeUnauthenticated, Message: message}
}

// NewAccountNotActiveError reports a deactivated caller account.
func NewAccountNotActiveError() *AppError {
	return &AppError{Kind: KindAccountStatus, Code: CodeAccountNotActive, Message: "account is not active"}
}

// NewConflictError reports a write that lost against existing state.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Code: CodeConflict, Message: message}
}

// NewConflictErrorWithCode reports a conflict with a specific envelope code.
func NewConflictErrorWithCode(code int, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

// AsAppError unwraps err into an *AppError if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}
