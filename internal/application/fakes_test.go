package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/RepairBooking/service-booking/internal/domain/booking"
	catalogDomain "github.com/RepairBooking/service-booking/internal/domain/catalog"
	ratingDomain "github.com/RepairBooking/service-booking/internal/domain/rating"
	userDomain "github.com/RepairBooking/service-booking/internal/domain/user"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/common/kafka"
)

type memoryBookingRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*bookingDomain.Booking
}

func newMemoryBookingRepo() *memoryBookingRepo {
	return &memoryBookingRepo{rows: map[uuid.UUID]*bookingDomain.Booking{}}
}

func copyBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	var emp *uuid.UUID
	if b.EmployeeID() != nil {
		id := *b.EmployeeID()
		emp = &id
	}
	return bookingDomain.ReconstructBooking(b.ID(), b.CustomerID(), emp, b.Service(), b.Address(),
		b.HireAt(), b.Note(), b.Status(), b.Version(), b.CreatedAt(), b.UpdatedAt())
}

func (r *memoryBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundErrorWithCode(domain.CodeBookingNotFound, "booking not found")
	}
	return copyBooking(b), nil
}

func (r *memoryBookingRepo) List(_ context.Context, f bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*bookingDomain.Booking
	for _, b := range r.rows {
		if !f.Visibility.Allows(b) {
			continue
		}
		if f.Status != nil && b.Status() != *f.Status {
			continue
		}
		if f.ServiceID != nil && b.Service().ID != *f.ServiceID {
			continue
		}
		matched = append(matched, copyBooking(b))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt().After(matched[j].CreatedAt()) })

	total := int64(len(matched))
	start := domain.Offset(f.Page, f.PageSize)
	if start >= len(matched) {
		return []*bookingDomain.Booking{}, total, nil
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memoryBookingRepo) FindCompletedByServiceAndCustomer(_ context.Context, serviceID, customerID uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first *bookingDomain.Booking
	for _, b := range r.rows {
		if b.Service().ID != serviceID || b.CustomerID() != customerID || b.Status() != bookingDomain.StatusCompleted {
			continue
		}
		if first == nil || b.CreatedAt().Before(first.CreatedAt()) {
			first = b
		}
	}
	if first == nil {
		return nil, nil
	}
	return copyBooking(first), nil
}

func (r *memoryBookingRepo) CountByStatus(context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, b := range r.rows {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *memoryBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[b.ID()] = copyBooking(b)
	return nil
}

func (r *memoryBookingRepo) UpdateStatus(_ context.Context, b *bookingDomain.Booking, expected bookingDomain.Expectation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[b.ID()]
	if !ok || cur.Status() != expected.Status {
		return bookingDomain.ErrStatusChanged
	}
	switch {
	case expected.EmployeeID == nil && cur.EmployeeID() != nil,
		expected.EmployeeID != nil && !cur.IsAssignedTo(*expected.EmployeeID):
		return bookingDomain.ErrStatusChanged
	}
	r.rows[b.ID()] = bookingDomain.ReconstructBooking(cur.ID(), cur.CustomerID(), b.EmployeeID(), cur.Service(),
		cur.Address(), cur.HireAt(), cur.Note(), b.Status(), cur.Version()+1, cur.CreatedAt(), b.UpdatedAt())
	return nil
}

// put stores a booking directly, bypassing the lifecycle.
func (r *memoryBookingRepo) put(b *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[b.ID()] = b
}

type memoryRatingRepo struct {
	mu      sync.Mutex
	byBook  map[uuid.UUID]*ratingDomain.Rating
	saveErr error
}

func newMemoryRatingRepo() *memoryRatingRepo {
	return &memoryRatingRepo{byBook: map[uuid.UUID]*ratingDomain.Rating{}}
}

func (r *memoryRatingRepo) Save(_ context.Context, rt *ratingDomain.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, exists := r.byBook[rt.BookingID()]; exists {
		return ratingDomain.NewDuplicateRatingError(rt.BookingID())
	}
	r.byBook[rt.BookingID()] = rt
	return nil
}

func (r *memoryRatingRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*ratingDomain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.byBook[bookingID]
	if !ok {
		return nil, domain.NewNotFoundError("Rating", bookingID.String())
	}
	return rt, nil
}

func (r *memoryRatingRepo) ExistsForBooking(_ context.Context, bookingID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byBook[bookingID]
	return ok, nil
}

func (r *memoryRatingRepo) RatedBookingIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]bool{}
	for _, id := range ids {
		if _, ok := r.byBook[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

type memoryUserRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*userDomain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{rows: map[uuid.UUID]*userDomain.User{}}
}

func (r *memoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *memoryUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]*userDomain.User{}
	for _, id := range ids {
		if u, ok := r.rows[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *memoryUserRepo) Upsert(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.rows[u.ID()]; ok && cur.UpdatedAt().After(u.UpdatedAt()) {
		return nil
	}
	r.rows[u.ID()] = u
	return nil
}

func (r *memoryUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok || cur.UpdatedAt().After(at) {
		return nil
	}
	r.rows[id] = userDomain.Reconstruct(cur.ID(), cur.Fullname(), cur.Email(), cur.Role(), active, at)
	return nil
}

type memoryServiceRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*catalogDomain.Service
}

func newMemoryServiceRepo() *memoryServiceRepo {
	return &memoryServiceRepo{rows: map[uuid.UUID]*catalogDomain.Service{}}
}

func (r *memoryServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*catalogDomain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundErrorWithCode(domain.CodeServiceNotFound, "service not found")
	}
	return s, nil
}

func (r *memoryServiceRepo) Upsert(_ context.Context, s *catalogDomain.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.rows[s.ID()]; ok && cur.UpdatedAt().After(s.UpdatedAt()) {
		return nil
	}
	r.rows[s.ID()] = s
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishKeyed(_ context.Context, _, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var errStoreDown = errors.New("connection refused")
