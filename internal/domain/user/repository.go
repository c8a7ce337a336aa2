package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines persistence operations for the user projection.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByIDs returns the users that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
	// Upsert stores u unless a newer snapshot is already present.
	Upsert(ctx context.Context, u *User) error
	// SetActive changes the account flag unless a newer snapshot is already present.
	SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error
}
