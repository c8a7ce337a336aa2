package booking

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// Caller is the resolved identity performing an operation.
type Caller struct {
	ID     uuid.UUID
	Role   auth.Role
	Active bool
}

// Authorize evaluates role, account state and ownership for action.
// b may be nil before the booking is loaded; ownership is then not evaluated.
func Authorize(caller Caller, b *Booking, action Action) error {
	r, ok := rules[action]
	if !ok {
		return fmt.Errorf("unknown booking action: %s", action)
	}
	if caller.Role != r.Role {
		return domain.NewForbiddenError(fmt.Sprintf("role %s cannot %s bookings", caller.Role, action))
	}
	if r.RequiresActive && !caller.Active {
		return domain.NewAccountNotActiveError()
	}
	if b == nil {
		return nil
	}

	switch r.owner {
	case ownerCustomer:
		if b.customerID != caller.ID {
			return domain.NewForbiddenError("booking belongs to another customer")
		}
	case ownerEmployee:
		if !b.IsAssignedTo(caller.ID) {
			return domain.NewForbiddenError("booking is not assigned to you")
		}
	}
	return nil
}

// Visibility restricts which bookings a query may return.
// The zero value matches nothing; use VisibilityFor.
type Visibility struct {
	All bool
	// CustomerID limits results to the customer's own bookings.
	CustomerID *uuid.UUID
	// EmployeeID limits results to bookings assigned to the employee plus every PENDING booking.
	EmployeeID *uuid.UUID
}

// VisibilityFor returns the listing scope for caller.
func VisibilityFor(caller Caller) Visibility {
	id := caller.ID
	switch caller.Role {
	case auth.RoleAdmin:
		return Visibility{All: true}
	case auth.RoleCustomer:
		return Visibility{CustomerID: &id}
	case auth.RoleEmployee:
		return Visibility{EmployeeID: &id}
	default:
		return Visibility{}
	}
}

// Allows evaluates the visibility predicate against a single booking.
func (v Visibility) Allows(b *Booking) bool {
	switch {
	case v.All:
		return true
	case v.CustomerID != nil:
		return b.customerID == *v.CustomerID
	case v.EmployeeID != nil:
		return b.status == StatusPending || b.IsAssignedTo(*v.EmployeeID)
	default:
		return false
	}
}
