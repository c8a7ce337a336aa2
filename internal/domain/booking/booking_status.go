package booking

import (
	"errors"
	"fmt"

	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusAccepted  BookingStatus = "ACCEPTED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Action names an operation guarded by the booking policy.
type Action string

const (
	ActionOrder  Action = "order"
	ActionAccept Action = "accept"
	ActionFinish Action = "finish"
	ActionCancel Action = "cancel"
	ActionRate   Action = "rate"
)

type ownership int

const (
	ownerNone ownership = iota
	ownerCustomer
	ownerEmployee
)

// Rule is one row of the lifecycle table. A rule with an empty To is a guard
// that requires From without changing the status.
type Rule struct {
	Action         Action
	From           BookingStatus
	To             BookingStatus
	Role           auth.Role
	RequiresActive bool
	owner          ownership
}

// rules is the lifecycle table. Every status change goes through it.
var rules = map[Action]Rule{
	ActionOrder:  {Action: ActionOrder, To: StatusPending, Role: auth.RoleCustomer},
	ActionAccept: {Action: ActionAccept, From: StatusPending, To: StatusAccepted, Role: auth.RoleEmployee, RequiresActive: true},
	ActionFinish: {Action: ActionFinish, From: StatusAccepted, To: StatusCompleted, Role: auth.RoleEmployee, RequiresActive: true, owner: ownerEmployee},
	ActionCancel: {Action: ActionCancel, From: StatusPending, To: StatusCancelled, Role: auth.RoleCustomer, owner: ownerCustomer},
	ActionRate:   {Action: ActionRate, From: StatusCompleted, Role: auth.RoleCustomer, owner: ownerCustomer},
}

// ErrStatusChanged is returned by a conditional update that matched no row.
var ErrStatusChanged = errors.New("booking status changed concurrently")

// RuleFor returns the lifecycle rule for action.
func RuleFor(action Action) (Rule, bool) {
	r, ok := rules[action]
	return r, ok
}

// Transition validates that action may run from the current status and returns the target status.
func Transition(action Action, current BookingStatus) (BookingStatus, error) {
	r, ok := rules[action]
	if !ok {
		return "", fmt.Errorf("unknown booking action: %s", action)
	}
	if err := r.CheckStatus(current); err != nil {
		return "", err
	}
	if r.To == "" {
		return current, nil
	}
	return r.To, nil
}

// CheckStatus reports the rule's invalid-state error when current is not the required source status.
func (r Rule) CheckStatus(current BookingStatus) error {
	if current == r.From {
		return nil
	}
	return r.StatusError(current)
}

// StatusError is the error reported when the booking is not in the rule's source status.
// Cancel has its own code so clients can tell "too late to cancel" apart.
func (r Rule) StatusError(current BookingStatus) error {
	if r.Action == ActionCancel {
		return domain.NewInvalidStateErrorWithCode(domain.CodeBookingNotCancellable,
			fmt.Sprintf("only pending bookings can be cancelled, booking is %s", current))
	}
	if r.To == "" {
		return domain.NewInvalidStateErrorWithCode(domain.CodeInvalidBookingStatus,
			fmt.Sprintf("booking must be %s to %s, booking is %s", r.From, r.Action, current))
	}
	return domain.NewInvalidStateError(string(current), string(r.To))
}

// StatusChangedError is reported when a conditional update lost against a concurrent transition.
func (r Rule) StatusChangedError() error {
	code := domain.CodeInvalidBookingStatus
	if r.Action == ActionCancel {
		code = domain.CodeBookingNotCancellable
	}
	return domain.NewInvalidStateErrorWithCode(code, fmt.Sprintf("booking is no longer %s", r.From))
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo returns true if some rule moves this status to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, r := range rules {
		if r.From == s && r.To == target && r.To != "" {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	for _, r := range rules {
		if r.From == s && r.To != "" {
			return false
		}
	}
	return true
}

// HasEmployee reports whether a booking in this status carries an assigned employee.
func (s BookingStatus) HasEmployee() bool {
	return s == StatusAccepted || s == StatusCompleted
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", s))
	}
	return status, nil
}
