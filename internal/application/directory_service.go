package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/RepairBooking/service-booking/internal/domain/booking"
	catalogDomain "github.com/RepairBooking/service-booking/internal/domain/catalog"
	userDomain "github.com/RepairBooking/service-booking/internal/domain/user"
	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/events"
)

// DirectoryService maintains the local user and catalog projections and resolves callers.
type DirectoryService struct {
	users    userDomain.UserRepository
	services catalogDomain.ServiceRepository
	logger   *zap.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(users userDomain.UserRepository, services catalogDomain.ServiceRepository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{users: users, services: services, logger: logger}
}

// ResolveCaller combines the verified token identity with the account state from the projection.
// Accounts missing from the projection are treated as inactive.
func (s *DirectoryService) ResolveCaller(ctx context.Context, userID uuid.UUID, role auth.Role) (bookingDomain.Caller, error) {
	caller := bookingDomain.Caller{ID: userID, Role: role}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			s.logger.Debug("caller not in user projection", zap.String("user_id", userID.String()))
			return caller, nil
		}
		return bookingDomain.Caller{}, fmt.Errorf("failed to resolve caller: %w", err)
	}
	caller.Active = u.Active()
	return caller, nil
}

// HandleUserUpserted stores an account snapshot.
func (s *DirectoryService) HandleUserUpserted(ctx context.Context, evt events.UserUpsertedEvent) error {
	u, err := userDomain.NewUser(evt.UserID, evt.Fullname, evt.Email, auth.Role(evt.Role), evt.Active, evt.OccurredAt)
	if err != nil {
		return err
	}
	if err := s.users.Upsert(ctx, u); err != nil {
		return err
	}
	s.logger.Info("user projection updated",
		zap.String("user_id", evt.UserID.String()),
		zap.String("role", evt.Role),
		zap.Bool("active", evt.Active),
	)
	return nil
}

// HandleUserStatusChanged activates or deactivates a known account.
func (s *DirectoryService) HandleUserStatusChanged(ctx context.Context, evt events.UserStatusChangedEvent) error {
	if evt.UserID == uuid.Nil {
		return domain.NewValidationError("user ID is required")
	}
	at := evt.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := s.users.SetActive(ctx, evt.UserID, evt.Active, at); err != nil {
		return err
	}
	s.logger.Info("user status updated",
		zap.String("user_id", evt.UserID.String()),
		zap.Bool("active", evt.Active),
	)
	return nil
}

// HandleServiceUpserted stores a catalog snapshot.
func (s *DirectoryService) HandleServiceUpserted(ctx context.Context, evt events.ServiceUpsertedEvent) error {
	svc, err := catalogDomain.NewService(evt.ServiceID, evt.Name, evt.Price, evt.Active, evt.OccurredAt)
	if err != nil {
		return err
	}
	if err := s.services.Upsert(ctx, svc); err != nil {
		return err
	}
	s.logger.Info("catalog projection updated",
		zap.String("service_id", evt.ServiceID.String()),
		zap.Bool("active", evt.Active),
	)
	return nil
}
