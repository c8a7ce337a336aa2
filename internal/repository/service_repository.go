package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalogDomain "github.com/RepairBooking/service-booking/internal/domain/catalog"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// ServiceModel is the GORM model for the services projection table.
type ServiceModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null;size:255"`
	Price     int64     `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (ServiceModel) TableName() string { return "services" }

// GormServiceRepository implements ServiceRepository using GORM.
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository.
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// FindByID returns a catalog entry; unknown ids report SERVICE_NOT_FOUND.
func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Service, error) {
	var model ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundErrorWithCode(domain.CodeServiceNotFound, fmt.Sprintf("service not found: %s", id))
		}
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return catalogDomain.Reconstruct(model.ID, model.Name, model.Price, model.Active, model.UpdatedAt), nil
}

// Upsert inserts or refreshes the catalog entry; older snapshots never overwrite newer ones.
func (r *GormServiceRepository) Upsert(ctx context.Context, s *catalogDomain.Service) error {
	model := ServiceModel{
		ID:        s.ID(),
		Name:      s.Name(),
		Price:     s.Price(),
		Active:    s.Active(),
		CreatedAt: s.UpdatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "active", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "services.updated_at <= excluded.updated_at"},
		}},
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert service: %w", err)
	}
	return nil
}
