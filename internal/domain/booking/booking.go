package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/events"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

var (
	ErrIDRequired       = errors.New("booking: id is required")
	ErrPropertyRequired = errors.New("booking: property id is required")
	ErrUserRequired     = errors.New("booking: user id is required")
	ErrCheckInPast      = errors.New("booking: check-in date is in the past")
	ErrCancelledUpdate  = errors.New("booking: cancelled booking cannot be confirmed")
	ErrDateConflict     = errors.New("booking: property already booked for the selected dates")
	ErrNotFound         = errors.New("booking: not found")
)

type ID string

type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// ActiveStatuses are the booking states that block a property's dates.
// Cancelled bookings never participate in the overlap check.
var ActiveStatuses = []Status{StatusRequested, StatusConfirmed}

type Booking struct {
	ID          ID
	PropertyID  property.ID
	UserID      user.ID
	UserEmail   string
	Range       daterange.DateRange
	TotalAmount money.Money
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	// Save performs an optimistic read-modify-write keyed by version.
	Save(ctx context.Context, b *Booking) error
	// CreateExclusive atomically checks for overlapping active bookings on
	// the same property and inserts the new one; two concurrent calls for
	// overlapping dates must not both succeed. Returns ErrDateConflict.
	CreateExclusive(ctx context.Context, b *Booking) error
	ExistsOverlapping(ctx context.Context, propertyID property.ID, dr daterange.DateRange) (bool, error)
	ListByUser(ctx context.Context, userID user.ID) ([]*Booking, error)
	ListByProperties(ctx context.Context, propertyIDs []property.ID) ([]*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
}

type CreateParams struct {
	ID        ID
	Property  *property.Property
	UserID    user.ID
	UserEmail string
	Range     daterange.DateRange
	Now       time.Time
}

// NewBooking builds a REQUESTED booking, pricing the stay at
// nights x nightly rate. The property must already be approved.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if params.Property == nil {
		return nil, ErrPropertyRequired
	}
	if strings.TrimSpace(string(params.UserID)) == "" {
		return nil, ErrUserRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	if params.Range.StartsBefore(now) {
		return nil, ErrCheckInPast
	}
	if params.Property.ApprovalStatus != property.ApprovalApproved {
		return nil, property.ErrNotApproved
	}

	total := params.Property.NightlyRate.Multiply(params.Range.Nights())
	b := &Booking{
		ID:          params.ID,
		PropertyID:  params.Property.ID,
		UserID:      params.UserID,
		UserEmail:   user.NormalizeEmail(params.UserEmail),
		Range:       params.Range,
		TotalAmount: total,
		Status:      StatusRequested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(RequestedEvent{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		UserID:     b.UserID,
		Range:      b.Range,
		Total:      b.TotalAmount,
		At:         now,
	})
	return b, nil
}

// Confirm moves the booking to CONFIRMED. A cancelled booking cannot be
// confirmed; no overlap re-check is needed since creation-time exclusivity
// already rules out an active conflicting sibling.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status == StatusCancelled {
		return ErrCancelledUpdate
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(ConfirmedEvent{BookingID: b.ID, PropertyID: b.PropertyID, At: b.UpdatedAt})
	return nil
}

// Cancel moves the booking to CANCELLED and reports whether anything
// changed. Re-cancelling a cancelled booking is an idempotent no-op.
func (b *Booking) Cancel(now time.Time) bool {
	if b.Status == StatusCancelled {
		return false
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(CancelledEvent{BookingID: b.ID, PropertyID: b.PropertyID, At: b.UpdatedAt})
	return true
}

// Active reports whether the booking blocks its property's dates.
func (b *Booking) Active() bool {
	return b.Status == StatusRequested || b.Status == StatusConfirmed
}

// OwnedBy matches the requester by case-insensitive email.
func (b *Booking) OwnedBy(email string) bool {
	return b.UserEmail != "" && b.UserEmail == user.NormalizeEmail(email)
}
