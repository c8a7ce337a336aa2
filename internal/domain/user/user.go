package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// User is the local projection of an account owned by the identity service.
// It carries only what booking decisions need.
type User struct {
	id        uuid.UUID
	fullname  string
	email     string
	role      auth.Role
	active    bool
	updatedAt time.Time
}

// NewUser validates an account snapshot received from the identity service.
func NewUser(id uuid.UUID, fullname, email string, role auth.Role, active bool, updatedAt time.Time) (*User, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid role: %s", role))
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return &User{
		id:        id,
		fullname:  strings.TrimSpace(fullname),
		email:     strings.TrimSpace(email),
		role:      role,
		active:    active,
		updatedAt: updatedAt.UTC(),
	}, nil
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(id uuid.UUID, fullname, email string, role auth.Role, active bool, updatedAt time.Time) *User {
	return &User{id: id, fullname: fullname, email: email, role: role, active: active, updatedAt: updatedAt}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Fullname() string     { return u.fullname }
func (u *User) Email() string        { return u.email }
func (u *User) Role() auth.Role      { return u.role }
func (u *User) Active() bool         { return u.active }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
