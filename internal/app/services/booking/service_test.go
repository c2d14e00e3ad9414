package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "stayhub/internal/domain/booking"
	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/storage/memory"
)

type fixture struct {
	svc        *Service
	properties *memory.PropertyRepository
	users      *memory.UserRepository
	outbox     *memory.Outbox
	listing    *domainproperty.Property
	guest      *domainuser.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	properties := memory.NewPropertyRepository()
	users := memory.NewUserRepository()
	box := memory.NewOutbox()

	guest, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           "user-1",
		Email:        "guest@example.com",
		Name:         "Guest",
		PasswordHash: "x",
		Role:         domainuser.RoleUser,
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, guest))

	listing, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "prop-1",
		HostID:      "host-1",
		Name:        "Seaside Flat",
		Location:    "Lisbon",
		NightlyRate: money.Must(2000, "USD"),
		Available:   true,
	})
	require.NoError(t, err)
	listing.Approve(time.Now())
	listing.ClearEvents()
	require.NoError(t, properties.Save(ctx, listing))

	return &fixture{
		svc: &Service{
			Bookings:   memory.NewBookingRepository(),
			Properties: properties,
			Users:      users,
			Outbox:     box,
		},
		properties: properties,
		users:      users,
		outbox:     box,
		listing:    listing,
		guest:      guest,
	}
}

func futureDay(offset int) time.Time {
	return time.Now().UTC().AddDate(0, 0, offset)
}

func (f *fixture) create(t *testing.T, checkInOffset, checkOutOffset int) (*domainbooking.Booking, error) {
	t.Helper()
	return f.svc.Create(context.Background(), CreateParams{
		PropertyID: f.listing.ID,
		UserID:     f.guest.ID,
		CheckIn:    futureDay(checkInOffset),
		CheckOut:   futureDay(checkOutOffset),
	})
}

func TestCreatePricesStay(t *testing.T) {
	f := newFixture(t)

	b, err := f.create(t, 10, 13)
	require.NoError(t, err)

	assert.Equal(t, domainbooking.StatusRequested, b.Status)
	assert.Equal(t, int64(6000), b.TotalAmount.Amount)
	assert.Equal(t, "guest@example.com", b.UserEmail)

	records := f.outbox.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "booking.requested", records[0].Name)
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t)

	_, err := f.create(t, 10, 15)
	require.NoError(t, err)

	_, err = f.create(t, 12, 14)
	require.ErrorIs(t, err, domainbooking.ErrDateConflict)
}

func TestCreateAllowsBackToBackStays(t *testing.T) {
	f := newFixture(t)

	_, err := f.create(t, 10, 15)
	require.NoError(t, err)

	// Check-in on the prior stay's checkout day is not a conflict.
	_, err = f.create(t, 15, 18)
	require.NoError(t, err)
}

func TestCreateIgnoresCancelledSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.create(t, 10, 15)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, first.ID, "guest@example.com", false)
	require.NoError(t, err)

	_, err = f.create(t, 12, 14)
	require.NoError(t, err)
}

func TestCreateRequiresApprovedProperty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "prop-2",
		HostID:      "host-1",
		Name:        "Attic Room",
		Location:    "Porto",
		NightlyRate: money.Must(1500, "USD"),
		Available:   true,
	})
	require.NoError(t, err)
	pending.ClearEvents()
	require.NoError(t, f.properties.Save(ctx, pending))

	_, err = f.svc.Create(ctx, CreateParams{
		PropertyID: pending.ID,
		UserID:     f.guest.ID,
		CheckIn:    futureDay(10),
		CheckOut:   futureDay(12),
	})
	require.ErrorIs(t, err, domainproperty.ErrNotApproved)
}

func TestCreateRequiresPropertyAndUserReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A blank property reference is invalid input, not a lookup miss.
	_, err := f.svc.Create(ctx, CreateParams{
		PropertyID: "",
		UserID:     f.guest.ID,
		CheckIn:    futureDay(10),
		CheckOut:   futureDay(12),
	})
	require.ErrorIs(t, err, domainbooking.ErrPropertyRequired)
	require.NotErrorIs(t, err, domainproperty.ErrNotFound)

	_, err = f.svc.Create(ctx, CreateParams{
		PropertyID: f.listing.ID,
		UserID:     "  ",
		CheckIn:    futureDay(10),
		CheckOut:   futureDay(12),
	})
	require.ErrorIs(t, err, domainbooking.ErrUserRequired)
}

func TestCreateUnknownPropertyOrUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateParams{
		PropertyID: "missing",
		UserID:     f.guest.ID,
		CheckIn:    futureDay(10),
		CheckOut:   futureDay(12),
	})
	require.ErrorIs(t, err, domainproperty.ErrNotFound)

	_, err = f.svc.Create(ctx, CreateParams{
		PropertyID: f.listing.ID,
		UserID:     "missing",
		CheckIn:    futureDay(10),
		CheckOut:   futureDay(12),
	})
	require.ErrorIs(t, err, domainuser.ErrNotFound)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.create(t, 10, 12)
	require.NoError(t, err)

	confirmed, err := f.svc.Confirm(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, confirmed.Status)
}

func TestConfirmCancelledBookingFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.create(t, 10, 12)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, b.ID, "guest@example.com", false)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, b.ID)
	require.ErrorIs(t, err, domainbooking.ErrCancelledUpdate)
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.create(t, 10, 12)
	require.NoError(t, err)

	// A stranger without the admin role is rejected.
	_, err = f.svc.Cancel(ctx, b.ID, "other@example.com", false)
	require.ErrorIs(t, err, ErrNotAllowed)

	// Admins may cancel anyone's booking.
	cancelled, err := f.svc.Cancel(ctx, b.ID, "admin@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, cancelled.Status)
}

func TestCancelTwiceIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.create(t, 10, 12)
	require.NoError(t, err)

	first, err := f.svc.Cancel(ctx, b.ID, "GUEST@example.com", false)
	require.NoError(t, err)
	require.Equal(t, domainbooking.StatusCancelled, first.Status)
	eventsAfterFirst := len(f.outbox.Records())

	second, err := f.svc.Cancel(ctx, b.ID, "guest@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, second.Status)
	assert.Equal(t, first.Version, second.Version)
	assert.Len(t, f.outbox.Records(), eventsAfterFirst)
}

func TestListingsByUserHostAndAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.create(t, 10, 12)
	require.NoError(t, err)
	_, err = f.create(t, 20, 22)
	require.NoError(t, err)

	mine, err := f.svc.ByUser(ctx, f.guest.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	hostView, err := f.svc.ForHost(ctx, "host-1")
	require.NoError(t, err)
	assert.Len(t, hostView, 2)

	otherHost, err := f.svc.ForHost(ctx, "host-2")
	require.NoError(t, err)
	assert.Empty(t, otherHost)

	all, err := f.svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConcurrentCreatesOnlyOneWins(t *testing.T) {
	f := newFixture(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = f.create(t, 10, 15)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, domainbooking.ErrDateConflict)
		}
	}
	assert.Equal(t, 1, winners)
}
