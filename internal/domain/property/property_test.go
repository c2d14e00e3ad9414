package property

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

func newTestProperty(t *testing.T) *Property {
	t.Helper()
	p, err := New(CreateParams{
		ID:          "prop-1",
		HostID:      user.ID("host-1"),
		Name:        "Seaside Flat",
		Location:    "Lisbon",
		NightlyRate: money.Must(2000, "USD"),
		Available:   true,
		Now:         time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return p
}

func TestNewForcesPendingStatus(t *testing.T) {
	p := newTestProperty(t)

	assert.Equal(t, ApprovalPending, p.ApprovalStatus)
	assert.False(t, p.Bookable())

	events := p.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "property.submitted", events[0].EventName())
}

func TestNewValidation(t *testing.T) {
	base := CreateParams{
		ID:          "prop-1",
		HostID:      "host-1",
		Name:        "Seaside Flat",
		Location:    "Lisbon",
		NightlyRate: money.Must(2000, "USD"),
	}

	missingName := base
	missingName.Name = "   "
	_, err := New(missingName)
	require.ErrorIs(t, err, ErrNameRequired)

	missingLocation := base
	missingLocation.Location = ""
	_, err = New(missingLocation)
	require.ErrorIs(t, err, ErrLocationRequired)

	zeroRate := base
	zeroRate.NightlyRate = money.Money{Amount: 0, Currency: "USD"}
	_, err = New(zeroRate)
	require.ErrorIs(t, err, ErrRateNotPositive)

	noHost := base
	noHost.HostID = ""
	_, err = New(noHost)
	require.ErrorIs(t, err, ErrHostRequired)
}

func TestApproveLeavesAvailabilityUntouched(t *testing.T) {
	p := newTestProperty(t)
	p.ClearEvents()

	p.Approve(time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, ApprovalApproved, p.ApprovalStatus)
	assert.True(t, p.Available)
	assert.True(t, p.Bookable())

	events := p.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "property.approved", events[0].EventName())
}

func TestRejectForcesUnavailable(t *testing.T) {
	p := newTestProperty(t)
	p.Approve(time.Now())
	require.True(t, p.Available)
	p.ClearEvents()

	p.Reject(time.Now())

	assert.Equal(t, ApprovalRejected, p.ApprovalStatus)
	assert.False(t, p.Available)
	assert.False(t, p.Bookable())

	events := p.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "property.rejected", events[0].EventName())
}

func TestStatusTransitionsAreRepeatable(t *testing.T) {
	p := newTestProperty(t)

	p.Reject(time.Now())
	p.Approve(time.Now())
	assert.Equal(t, ApprovalApproved, p.ApprovalStatus)
	// Rejection switched availability off and approval does not restore it.
	assert.False(t, p.Available)
}
