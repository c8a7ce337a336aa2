package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	userDomain "github.com/RepairBooking/service-booking/internal/domain/user"
	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// UserModel is the GORM model for the users projection table.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Fullname  string    `gorm:"not null;size:255"`
	Email     string    `gorm:"not null;size:255;default:''"`
	Role      string    `gorm:"not null;size:20;index"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (UserModel) TableName() string { return "users" }

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID returns a user from the projection.
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return toUserDomain(&model), nil
}

// FindByIDs returns the users found among ids.
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*userDomain.User, error) {
	users := make(map[uuid.UUID]*userDomain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var models []UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	for i := range models {
		users[models[i].ID] = toUserDomain(&models[i])
	}
	return users, nil
}

// Upsert inserts or refreshes the user; older snapshots never overwrite newer ones.
func (r *GormUserRepository) Upsert(ctx context.Context, u *userDomain.User) error {
	model := UserModel{
		ID:        u.ID(),
		Fullname:  u.Fullname(),
		Email:     u.Email(),
		Role:      string(u.Role()),
		Active:    u.Active(),
		CreatedAt: u.UpdatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fullname", "email", "role", "active", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "users.updated_at <= excluded.updated_at"},
		}},
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// SetActive flips the active flag of a known user.
func (r *GormUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ? AND updated_at <= ?", id, at).
		Updates(map[string]interface{}{"active": active, "updated_at": at})
	if result.Error != nil {
		return fmt.Errorf("failed to update user status: %w", result.Error)
	}
	return nil
}

func toUserDomain(m *UserModel) *userDomain.User {
	return userDomain.Reconstruct(m.ID, m.Fullname, m.Email, auth.Role(m.Role), m.Active, m.UpdatedAt)
}
