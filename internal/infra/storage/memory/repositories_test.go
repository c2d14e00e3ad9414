package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "stayhub/internal/domain/auth"
	domainbooking "stayhub/internal/domain/booking"
	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

func storedProperty(t *testing.T, repo *PropertyRepository, id string) *domainproperty.Property {
	t.Helper()
	p, err := domainproperty.New(domainproperty.CreateParams{
		ID:          domainproperty.ID(id),
		HostID:      "host-1",
		Name:        "Flat " + id,
		Location:    "Lisbon",
		NightlyRate: money.Must(2000, "USD"),
		Available:   true,
	})
	require.NoError(t, err)
	p.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestPropertySaveDetectsStaleVersion(t *testing.T) {
	repo := NewPropertyRepository()
	ctx := context.Background()
	p := storedProperty(t, repo, "prop-1")

	stale, err := repo.ByID(ctx, p.ID)
	require.NoError(t, err)

	fresh, err := repo.ByID(ctx, p.ID)
	require.NoError(t, err)
	fresh.Approve(time.Now())
	require.NoError(t, repo.Save(ctx, fresh))

	stale.Approve(time.Now())
	err = repo.Save(ctx, stale)
	require.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestPropertyByIDReturnsCopy(t *testing.T) {
	repo := NewPropertyRepository()
	ctx := context.Background()
	p := storedProperty(t, repo, "prop-1")

	loaded, err := repo.ByID(ctx, p.ID)
	require.NoError(t, err)
	loaded.Name = "Mutated"

	again, err := repo.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flat prop-1", again.Name)
}

func storedBooking(t *testing.T, repo *BookingRepository, id string, listing *domainproperty.Property, from, to time.Time) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.New(from, to)
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.ID(id),
		Property:  listing,
		UserID:    "user-1",
		UserEmail: "guest@example.com",
		Range:     dr,
	})
	require.NoError(t, err)
	b.ClearEvents()
	require.NoError(t, repo.CreateExclusive(context.Background(), b))
	return b
}

func approvedListing(t *testing.T) *domainproperty.Property {
	t.Helper()
	p, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "prop-1",
		HostID:      "host-1",
		Name:        "Seaside Flat",
		Location:    "Lisbon",
		NightlyRate: money.Must(2000, "USD"),
		Available:   true,
	})
	require.NoError(t, err)
	p.Approve(time.Now())
	p.ClearEvents()
	return p
}

func TestCreateExclusiveConflicts(t *testing.T) {
	repo := NewBookingRepository()
	listing := approvedListing(t)
	from := time.Now().UTC().AddDate(0, 0, 10)

	storedBooking(t, repo, "bk-1", listing, from, from.AddDate(0, 0, 5))

	dr, err := daterange.New(from.AddDate(0, 0, 2), from.AddDate(0, 0, 4))
	require.NoError(t, err)
	conflicting, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:       "bk-2",
		Property: listing,
		UserID:   "user-2",
		Range:    dr,
	})
	require.NoError(t, err)
	err = repo.CreateExclusive(context.Background(), conflicting)
	require.ErrorIs(t, err, domainbooking.ErrDateConflict)

	// An adjacent stay is fine.
	storedBooking(t, repo, "bk-3", listing, from.AddDate(0, 0, 5), from.AddDate(0, 0, 8))
}

func TestCancelledBookingFreesDates(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	listing := approvedListing(t)
	from := time.Now().UTC().AddDate(0, 0, 10)

	b := storedBooking(t, repo, "bk-1", listing, from, from.AddDate(0, 0, 5))
	b.Cancel(time.Now())
	b.ClearEvents()
	require.NoError(t, repo.Save(ctx, b))

	taken, err := repo.ExistsOverlapping(ctx, listing.ID, b.Range)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepositoryEnforcesUniqueEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	first, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "user-1", Email: "x@example.com", Name: "X", PasswordHash: "h",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	// Same user may be re-saved.
	require.NoError(t, repo.Save(ctx, first))

	second, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "user-2", Email: "X@Example.com", Name: "Y", PasswordHash: "h",
	})
	require.NoError(t, err)
	err = repo.Save(ctx, second)
	require.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  "tok-1",
		UserID: "user-1",
		Email:  "x@example.com",
		Role:   domainuser.RoleUser,
		TTL:    time.Nanosecond,
	})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, session))

	time.Sleep(time.Millisecond)
	_, err = store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStoreDeleteByUser(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	for _, token := range []domainauth.Token{"tok-1", "tok-2"} {
		session, err := domainauth.NewSession(domainauth.CreateSessionParams{
			Token:  token,
			UserID: "user-1",
			Email:  "x@example.com",
			Role:   domainuser.RoleUser,
			TTL:    time.Hour,
		})
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, session))
	}

	require.NoError(t, store.DeleteByUser(ctx, "user-1"))

	_, err := store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	_, err = store.Get(ctx, "tok-2")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
