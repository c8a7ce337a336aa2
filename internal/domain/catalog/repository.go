package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ServiceRepository defines persistence operations for the catalog projection.
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	// Upsert stores s unless a newer snapshot is already present.
	Upsert(ctx context.Context, s *Service) error
}
