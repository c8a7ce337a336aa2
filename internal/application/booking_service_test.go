package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/RepairBooking/service-booking/internal/domain/booking"
	catalogDomain "github.com/RepairBooking/service-booking/internal/domain/catalog"
	userDomain "github.com/RepairBooking/service-booking/internal/domain/user"
	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/domain"
	"github.com/RepairBooking/service-booking/pkg/events"
)

type bookingFixture struct {
	svc       *BookingService
	ratingSvc *RatingService
	bookings  *memoryBookingRepo
	ratings   *memoryRatingRepo
	users     *memoryUserRepo
	services  *memoryServiceRepo
	publisher *recordingPublisher

	customer  bookingDomain.Caller
	employeeA bookingDomain.Caller
	employeeB bookingDomain.Caller
	admin     bookingDomain.Caller
	serviceID uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		bookings:  newMemoryBookingRepo(),
		ratings:   newMemoryRatingRepo(),
		users:     newMemoryUserRepo(),
		services:  newMemoryServiceRepo(),
		publisher: &recordingPublisher{},
		customer:  bookingDomain.Caller{ID: uuid.New(), Role: auth.RoleCustomer, Active: true},
		employeeA: bookingDomain.Caller{ID: uuid.New(), Role: auth.RoleEmployee, Active: true},
		employeeB: bookingDomain.Caller{ID: uuid.New(), Role: auth.RoleEmployee, Active: true},
		admin:     bookingDomain.Caller{ID: uuid.New(), Role: auth.RoleAdmin, Active: true},
		serviceID: uuid.New(),
	}
	log := zap.NewNop()
	f.svc = NewBookingService(f.bookings, f.ratings, f.services, f.users, f.publisher, nil, log)
	f.ratingSvc = NewRatingService(f.bookings, f.ratings, f.publisher, nil, log)

	ctx := context.Background()
	svc, err := catalogDomain.NewService(f.serviceID, "Washing machine repair", 500000, true, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.services.Upsert(ctx, svc))

	for name, c := range map[string]bookingDomain.Caller{
		"Carol Customer": f.customer,
		"Alice Employee": f.employeeA,
		"Bob Employee":   f.employeeB,
	} {
		u, err := userDomain.NewUser(c.ID, name, "", c.Role, true, time.Now())
		require.NoError(t, err)
		require.NoError(t, f.users.Upsert(ctx, u))
	}
	return f
}

func (f *bookingFixture) order(t *testing.T) *BookingDTO {
	t.Helper()
	dto, err := f.svc.Order(context.Background(), f.customer, OrderBookingRequest{
		ServiceID: f.serviceID,
		Address:   "123 Main St",
		HireAt:    time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	return dto
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func TestOrder_CreatesPendingBookingWithSnapshot(t *testing.T) {
	f := newBookingFixture(t)

	dto := f.order(t)

	assert.Equal(t, "PENDING", dto.Status)
	assert.Nil(t, dto.EmployeeID)
	assert.Nil(t, dto.EmployeeName)
	assert.Equal(t, int64(500000), dto.Price)
	assert.Equal(t, "Washing machine repair", dto.ServiceName)
	assert.Equal(t, "Carol Customer", dto.CustomerName)
	assert.Equal(t, []string{events.BookingOrdered}, f.publisher.types())
}

func TestOrder_SnapshotSurvivesCatalogChange(t *testing.T) {
	f := newBookingFixture(t)
	dto := f.order(t)

	updated, err := catalogDomain.NewService(f.serviceID, "Renamed", 999, true, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.NoError(t, f.services.Upsert(context.Background(), updated))

	got, err := f.svc.GetBooking(context.Background(), f.customer, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), got.Price)
	assert.Equal(t, "Washing machine repair", got.ServiceName)
}

func TestOrder_Rejections(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	inactive, err := catalogDomain.NewService(uuid.New(), "Retired", 1, false, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.services.Upsert(ctx, inactive))

	_, err = f.svc.Order(ctx, f.customer, OrderBookingRequest{ServiceID: uuid.New(), Address: "a", HireAt: time.Now().Add(time.Hour)})
	requireCode(t, err, domain.CodeServiceNotFound)

	_, err = f.svc.Order(ctx, f.customer, OrderBookingRequest{ServiceID: inactive.ID(), Address: "a", HireAt: time.Now().Add(time.Hour)})
	requireCode(t, err, domain.CodeServiceNotFound)

	_, err = f.svc.Order(ctx, f.customer, OrderBookingRequest{ServiceID: f.serviceID, Address: " ", HireAt: time.Now().Add(time.Hour)})
	requireCode(t, err, domain.CodeValidation)

	_, err = f.svc.Order(ctx, f.customer, OrderBookingRequest{ServiceID: f.serviceID, Address: "a", HireAt: time.Now().Add(-time.Hour)})
	requireCode(t, err, domain.CodeValidation)

	_, err = f.svc.Order(ctx, f.employeeA, OrderBookingRequest{ServiceID: f.serviceID, Address: "a", HireAt: time.Now().Add(time.Hour)})
	requireCode(t, err, domain.CodeForbidden)
}

func TestAccept_SecondAcceptFails(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)

	accepted, err := f.svc.Accept(ctx, f.employeeA, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", accepted.Status)
	require.NotNil(t, accepted.EmployeeID)
	assert.Equal(t, f.employeeA.ID, *accepted.EmployeeID)
	require.NotNil(t, accepted.EmployeeName)
	assert.Equal(t, "Alice Employee", *accepted.EmployeeName)

	_, err = f.svc.Accept(ctx, f.employeeB, dto.ID)
	requireCode(t, err, domain.CodeInvalidBookingStatus)

	_, err = f.svc.Accept(ctx, f.employeeA, dto.ID)
	requireCode(t, err, domain.CodeInvalidBookingStatus)

	stored, err := f.bookings.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAssignedTo(f.employeeA.ID))
}

func TestAccept_ConcurrentAcceptsExactlyOneWins(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []uuid.UUID
		failures  []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		employee := bookingDomain.Caller{ID: uuid.New(), Role: auth.RoleEmployee, Active: true}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Accept(ctx, employee, dto.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes = append(successes, employee.ID)
				return
			}
			failures = append(failures, err)
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, successes, 1)
	require.Len(t, failures, workers-1)
	for _, err := range failures {
		requireCode(t, err, domain.CodeInvalidBookingStatus)
	}
	stored, err := f.bookings.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAssignedTo(successes[0]))
}

func TestAccept_Rejections(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)

	inactive := bookingDomain.Caller{ID: uuid.New(), Role: auth.RoleEmployee, Active: false}
	_, err := f.svc.Accept(ctx, inactive, dto.ID)
	requireCode(t, err, domain.CodeAccountNotActive)

	_, err = f.svc.Accept(ctx, f.employeeA, uuid.New())
	requireCode(t, err, domain.CodeBookingNotFound)

	_, err = f.svc.Accept(ctx, f.customer, dto.ID)
	requireCode(t, err, domain.CodeForbidden)
}

func TestFinish_OnlyAssignedEmployee(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)

	_, err := f.svc.Finish(ctx, f.employeeA, dto.ID)
	requireCode(t, err, domain.CodeForbidden)

	_, err = f.svc.Accept(ctx, f.employeeA, dto.ID)
	require.NoError(t, err)

	_, err = f.svc.Finish(ctx, f.employeeB, dto.ID)
	requireCode(t, err, domain.CodeForbidden)

	done, err := f.svc.Finish(ctx, f.employeeA, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)

	_, err = f.svc.Finish(ctx, f.employeeA, dto.ID)
	requireCode(t, err, domain.CodeInvalidBookingStatus)

	assert.Equal(t, []string{events.BookingOrdered, events.BookingAccepted, events.BookingCompleted}, f.publisher.types())
}

func TestFinish_InactiveEmployee(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)
	_, err := f.svc.Accept(ctx, f.employeeA, dto.ID)
	require.NoError(t, err)

	deactivated := f.employeeA
	deactivated.Active = false
	_, err = f.svc.Finish(ctx, deactivated, dto.ID)

	requireCode(t, err, domain.CodeAccountNotActive)
}

func TestCancel(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)

	other := bookingDomain.Caller{ID: uuid.New(), Role: auth.RoleCustomer, Active: true}
	_, err := f.svc.Cancel(ctx, other, dto.ID)
	requireCode(t, err, domain.CodeForbidden)

	cancelled, err := f.svc.Cancel(ctx, f.customer, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Nil(t, cancelled.EmployeeID)

	_, err = f.svc.Cancel(ctx, f.customer, dto.ID)
	requireCode(t, err, domain.CodeBookingNotCancellable)

	_, err = f.svc.Accept(ctx, f.employeeA, dto.ID)
	requireCode(t, err, domain.CodeInvalidBookingStatus)
}

func TestCancel_AfterAcceptIsRejected(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)
	_, err := f.svc.Accept(ctx, f.employeeA, dto.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.customer, dto.ID)

	requireCode(t, err, domain.CodeBookingNotCancellable)
}

func TestCancel_LosesRaceToAccept(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)

	// Simulate accept landing between the cancel's read and its conditional write.
	stale, err := f.bookings.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, f.employeeA, dto.ID)
	require.NoError(t, err)

	expected := stale.Expect()
	require.NoError(t, stale.Cancel())
	err = f.bookings.UpdateStatus(ctx, stale, expected)
	assert.ErrorIs(t, err, bookingDomain.ErrStatusChanged)

	stored, err := f.bookings.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusAccepted, stored.Status())
}

func TestList_EmployeeSeesPendingQueueAndOwnWork(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	pending := f.order(t)
	ownedByA := f.order(t)
	ownedByB := f.order(t)
	_, err := f.svc.Accept(ctx, f.employeeA, ownedByA.ID)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, f.employeeB, ownedByB.ID)
	require.NoError(t, err)

	page, err := f.svc.List(ctx, f.employeeA, ListBookingsQuery{})
	require.NoError(t, err)

	ids := map[uuid.UUID]bool{}
	for _, item := range page.Items {
		ids[item.ID] = true
	}
	assert.True(t, ids[pending.ID])
	assert.True(t, ids[ownedByA.ID])
	assert.False(t, ids[ownedByB.ID])
	assert.Equal(t, int64(2), page.Total)
}

func TestList_ScopesAndTotals(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.order(t)
	}
	other := bookingDomain.Caller{ID: uuid.New(), Role: auth.RoleCustomer, Active: true}
	_, err := f.svc.Order(ctx, other, OrderBookingRequest{ServiceID: f.serviceID, Address: "x", HireAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, f.customer, ListBookingsQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)
	assert.Equal(t, int64(3), mine.Total)
	assert.Equal(t, 2, mine.TotalPages)

	all, err := f.svc.List(ctx, f.admin, ListBookingsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)
	assert.Equal(t, DefaultPageSize, all.Limit)

	status := bookingDomain.StatusCancelled
	none, err := f.svc.List(ctx, f.admin, ListBookingsQuery{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.Equal(t, int64(0), none.Total)
}

func TestList_HasRatedOnlyForRatedCompletedBookings(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	rated := f.order(t)
	unrated := f.order(t)
	for _, id := range []uuid.UUID{rated.ID, unrated.ID} {
		_, err := f.svc.Accept(ctx, f.employeeA, id)
		require.NoError(t, err)
		_, err = f.svc.Finish(ctx, f.employeeA, id)
		require.NoError(t, err)
	}
	_, err := f.ratingSvc.SubmitRating(ctx, f.customer, SubmitRatingRequest{BookingID: rated.ID, Rate: 5})
	require.NoError(t, err)

	page, err := f.svc.List(ctx, f.customer, ListBookingsQuery{})
	require.NoError(t, err)

	byID := map[uuid.UUID]BookingDTO{}
	for _, item := range page.Items {
		byID[item.ID] = item
	}
	assert.True(t, byID[rated.ID].HasRated)
	assert.False(t, byID[unrated.ID].HasRated)
}

func TestGetBooking_HiddenBookingsReadAsNotFound(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.order(t)
	_, err := f.svc.Accept(ctx, f.employeeA, dto.ID)
	require.NoError(t, err)

	_, err = f.svc.GetBooking(ctx, f.employeeB, dto.ID)
	requireCode(t, err, domain.CodeBookingNotFound)

	got, err := f.svc.GetBooking(ctx, f.employeeA, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, got.ID)
}

func TestGetBookingStats(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	a := f.order(t)
	f.order(t)
	_, err := f.svc.Cancel(ctx, f.customer, a.ID)
	require.NoError(t, err)

	stats, err := f.svc.GetBookingStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus["PENDING"])
	assert.Equal(t, int64(1), stats.ByStatus["CANCELLED"])
	assert.Equal(t, int64(0), stats.ByStatus["COMPLETED"])
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newBookingFixture(t)
	f.publisher.err = errStoreDown

	dto := f.order(t)
	_, err := f.svc.Accept(context.Background(), f.employeeA, dto.ID)

	assert.NoError(t, err)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct{ page, size, wantPage, wantSize int }{
		{0, 0, 1, DefaultPageSize},
		{-3, 5, 1, 5},
		{2, 500, 2, MaxPageSize},
	}
	for _, tt := range tests {
		p, s := normalizePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantSize, s)
	}
}
