package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/RepairBooking/service-booking/internal/domain/booking"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID   uuid.UUID  `gorm:"type:uuid;index;not null"`
	EmployeeID   *uuid.UUID `gorm:"type:uuid;index"`
	ServiceID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	ServiceName  string     `gorm:"not null;size:255"`
	ServicePrice int64      `gorm:"not null"`
	Address      string     `gorm:"type:text;not null"`
	HireAt       time.Time  `gorm:"not null"`
	Note         string     `gorm:"type:text;not null;default:''"`
	Status       string     `gorm:"not null;size:20;index"`
	Version      int64      `gorm:"not null;default:1"`
	CreatedAt    time.Time  `gorm:"not null;index"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundErrorWithCode(domain.CodeBookingNotFound, fmt.Sprintf("booking not found: %s", id))
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model), nil
}

// List returns one page of bookings visible under filter, newest first.
// The total is counted with the same predicate as the page.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	if total == 0 {
		return []*bookingDomain.Booking{}, 0, nil
	}

	var models []BookingModel
	if err := r.filtered(ctx, filter).
		Order("created_at DESC, id DESC").
		Offset(domain.Offset(filter.Page, filter.PageSize)).
		Limit(filter.PageSize).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toDomainBooking(&models[i])
	}
	return bookings, total, nil
}

func (r *GormBookingRepository) filtered(ctx context.Context, filter bookingDomain.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&BookingModel{}).Scopes(visibleTo(filter.Visibility))
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.ServiceID != nil {
		q = q.Where("service_id = ?", *filter.ServiceID)
	}
	return q
}

// visibleTo mirrors Visibility.Allows as a SQL predicate.
func visibleTo(v bookingDomain.Visibility) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case v.All:
			return db
		case v.CustomerID != nil:
			return db.Where("customer_id = ?", *v.CustomerID)
		case v.EmployeeID != nil:
			return db.Where("(employee_id = ? OR status = ?)", *v.EmployeeID, string(bookingDomain.StatusPending))
		default:
			return db.Where("1 = 0")
		}
	}
}

// FindCompletedByServiceAndCustomer returns the customer's earliest completed booking for the service.
func (r *GormBookingRepository) FindCompletedByServiceAndCustomer(ctx context.Context, serviceID, customerID uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND customer_id = ? AND status = ?", serviceID, customerID, string(bookingDomain.StatusCompleted)).
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find completed booking: %w", err)
	}
	return toDomainBooking(&model), nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// UpdateStatus performs the compare-and-swap for a lifecycle transition in a single UPDATE.
func (r *GormBookingRepository) UpdateStatus(ctx context.Context, bk *bookingDomain.Booking, expected bookingDomain.Expectation) error {
	q := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ?", bk.ID(), string(expected.Status))
	if expected.EmployeeID == nil {
		q = q.Where("employee_id IS NULL")
	} else {
		q = q.Where("employee_id = ?", *expected.EmployeeID)
	}

	result := q.Updates(map[string]interface{}{
		"status":      string(bk.Status()),
		"employee_id": bk.EmployeeID(),
		"version":     gorm.Expr("version + 1"),
		"updated_at":  bk.UpdatedAt(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return bookingDomain.ErrStatusChanged
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	svc := bk.Service()
	return &BookingModel{
		ID:           bk.ID(),
		CustomerID:   bk.CustomerID(),
		EmployeeID:   bk.EmployeeID(),
		ServiceID:    svc.ID,
		ServiceName:  svc.Name,
		ServicePrice: svc.Price,
		Address:      bk.Address(),
		HireAt:       bk.HireAt(),
		Note:         bk.Note(),
		Status:       string(bk.Status()),
		Version:      bk.Version(),
		CreatedAt:    bk.CreatedAt(),
		UpdatedAt:    bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		m.ID,
		m.CustomerID,
		m.EmployeeID,
		bookingDomain.ServiceSnapshot{ID: m.ServiceID, Name: m.ServiceName, Price: m.ServicePrice},
		m.Address,
		m.HireAt,
		m.Note,
		bookingDomain.BookingStatus(m.Status),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
