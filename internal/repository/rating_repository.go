package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	ratingDomain "github.com/RepairBooking/service-booking/internal/domain/rating"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
)

// RatingModel is the GORM model for the ratings table.
type RatingModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_ratings_booking_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null"`
	Score      int       `gorm:"type:smallint;not null"`
	Comment    string    `gorm:"type:text;not null;default:''"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (RatingModel) TableName() string { return "ratings" }

// GormRatingRepository implements RatingRepository using GORM.
type GormRatingRepository struct {
	db *gorm.DB
}

// NewGormRatingRepository creates a new GormRatingRepository.
func NewGormRatingRepository(db *gorm.DB) *GormRatingRepository {
	return &GormRatingRepository{db: db}
}

// Save inserts the rating. The unique index on booking_id rejects a second rating;
// gorm translates that into ErrDuplicatedKey.
func (r *GormRatingRepository) Save(ctx context.Context, rt *ratingDomain.Rating) error {
	model := toRatingModel(rt)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ratingDomain.NewDuplicateRatingError(rt.BookingID())
		}
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

// FindByBookingID returns the rating attached to a booking.
func (r *GormRatingRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*ratingDomain.Rating, error) {
	var model RatingModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Rating", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find rating: %w", err)
	}
	return toRatingDomain(&model), nil
}

// ExistsForBooking reports whether the booking has been rated.
func (r *GormRatingRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&RatingModel{}).Where("booking_id = ?", bookingID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check rating: %w", err)
	}
	return count > 0, nil
}

// RatedBookingIDs looks up ratings for many bookings in one query.
func (r *GormRatingRepository) RatedBookingIDs(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	rated := make(map[uuid.UUID]bool)
	if len(bookingIDs) == 0 {
		return rated, nil
	}

	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&RatingModel{}).
		Where("booking_id IN ?", bookingIDs).
		Pluck("booking_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to look up ratings: %w", err)
	}
	for _, id := range ids {
		rated[id] = true
	}
	return rated, nil
}

func toRatingModel(rt *ratingDomain.Rating) RatingModel {
	return RatingModel{
		ID:         rt.ID(),
		BookingID:  rt.BookingID(),
		CustomerID: rt.CustomerID(),
		Score:      rt.Score(),
		Comment:    rt.Comment(),
		CreatedAt:  rt.CreatedAt(),
	}
}

func toRatingDomain(m *RatingModel) *ratingDomain.Rating {
	return ratingDomain.Reconstruct(m.ID, m.BookingID, m.CustomerID, m.Score, m.Comment, m.CreatedAt)
}
