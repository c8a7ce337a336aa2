package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// Service is the local projection of a catalog entry.
type Service struct {
	id        uuid.UUID
	name      string
	price     int64
	active    bool
	updatedAt time.Time
}

// NewService validates a catalog snapshot received from the catalog service.
func NewService(id uuid.UUID, name string, price int64, active bool, updatedAt time.Time) (*Service, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("service ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("service name is required")
	}
	if price < 0 {
		return nil, domain.NewValidationError("service price must not be negative")
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return &Service{id: id, name: name, price: price, active: active, updatedAt: updatedAt.UTC()}, nil
}

// Reconstruct rebuilds a Service from persistence data (no validation).
func Reconstruct(id uuid.UUID, name string, price int64, active bool, updatedAt time.Time) *Service {
	return &Service{id: id, name: name, price: price, active: active, updatedAt: updatedAt}
}

func (s *Service) ID() uuid.UUID        { return s.id }
func (s *Service) Name() string         { return s.name }
func (s *Service) Price() int64         { return s.price }
func (s *Service) Active() bool         { return s.active }
func (s *Service) UpdatedAt() time.Time { return s.updatedAt }

// Orderable reports whether customers may book this service.
func (s *Service) Orderable() bool { return s.active }
