package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// ServiceSnapshot is the catalog entry as it was when the booking was ordered.
type ServiceSnapshot struct {
	ID    uuid.UUID
	Name  string
	Price int64
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id         uuid.UUID
	customerID uuid.UUID
	employeeID *uuid.UUID
	service    ServiceSnapshot
	address    string
	hireAt     time.Time
	note       string
	status     BookingStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=PENDING and no employee.
func NewBooking(customerID uuid.UUID, service ServiceSnapshot, address string, hireAt time.Time, note string) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if service.ID == uuid.Nil {
		return nil, domain.NewValidationError("service ID is required")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, domain.NewValidationError("address is required")
	}
	now := time.Now().UTC()
	if hireAt.IsZero() || !hireAt.After(now) {
		return nil, domain.NewValidationError("hireAt must be in the future")
	}

	status, err := Transition(ActionOrder, "")
	if err != nil {
		return nil, err
	}

	return &Booking{
		id:         uuid.New(),
		customerID: customerID,
		service:    service,
		address:    address,
		hireAt:     hireAt.UTC(),
		note:       strings.TrimSpace(note),
		status:     status,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	customerID uuid.UUID,
	employeeID *uuid.UUID,
	service ServiceSnapshot,
	address string,
	hireAt time.Time,
	note string,
	status BookingStatus,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:         id,
		customerID: customerID,
		employeeID: employeeID,
		service:    service,
		address:    address,
		hireAt:     hireAt,
		note:       note,
		status:     status,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// CustomerID returns the ordering customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// EmployeeID returns the assigned employee's user ID, or nil if unassigned.
func (b *Booking) EmployeeID() *uuid.UUID { return b.employeeID }

// Service returns the service snapshot taken at order time.
func (b *Booking) Service() ServiceSnapshot { return b.service }

func (b *Booking) Address() string       { return b.address }
func (b *Booking) HireAt() time.Time     { return b.hireAt }
func (b *Booking) Note() string          { return b.note }
func (b *Booking) Status() BookingStatus { return b.status }

// Version returns the number of persisted changes, starting at 1.
func (b *Booking) Version() int64 { return b.version }

func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsAssignedTo reports whether userID is the booking's employee.
func (b *Booking) IsAssignedTo(userID uuid.UUID) bool {
	return b.employeeID != nil && *b.employeeID == userID
}

// --- Behavior ---

// Expectation is the stored state a conditional update must still find.
type Expectation struct {
	Status     BookingStatus
	EmployeeID *uuid.UUID
}

// Expect captures the current state for a later conditional update.
func (b *Booking) Expect() Expectation {
	e := Expectation{Status: b.status}
	if b.employeeID != nil {
		id := *b.employeeID
		e.EmployeeID = &id
	}
	return e
}

// Accept transitions the booking from PENDING to ACCEPTED with the given employee.
func (b *Booking) Accept(employeeID uuid.UUID) error {
	if employeeID == uuid.Nil {
		return domain.NewValidationError("employee ID is required")
	}
	next, err := Transition(ActionAccept, b.status)
	if err != nil {
		return err
	}
	b.employeeID = &employeeID
	b.advance(next)
	return nil
}

// Finish transitions the booking from ACCEPTED to COMPLETED.
func (b *Booking) Finish() error {
	next, err := Transition(ActionFinish, b.status)
	if err != nil {
		return err
	}
	b.advance(next)
	return nil
}

// Cancel transitions the booking from PENDING to CANCELLED.
func (b *Booking) Cancel() error {
	next, err := Transition(ActionCancel, b.status)
	if err != nil {
		return err
	}
	b.advance(next)
	return nil
}

func (b *Booking) advance(next BookingStatus) {
	b.status = next
	b.version++
	b.updatedAt = time.Now().UTC()
}
