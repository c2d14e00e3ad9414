package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appoutbox "stayhub/internal/app/outbox"
	"stayhub/internal/app/policy"
	domainbooking "stayhub/internal/domain/booking"
	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/daterange"
	domainuser "stayhub/internal/domain/user"
)

var (
	ErrNotAllowed         = errors.New("booking: actor may not cancel this booking")
	errRepositoryRequired = errors.New("booking: repositories required")
)

// Service owns the booking lifecycle: guests request stays, administrators
// confirm them, owners or administrators cancel them. The overlap check and
// insert run atomically inside the repository's CreateExclusive.
type Service struct {
	Bookings   domainbooking.Repository
	Properties domainproperty.Repository
	Users      domainuser.Repository
	Outbox     appoutbox.Outbox
	Encoder    appoutbox.EventEncoder
	Logger     *slog.Logger
}

type CreateParams struct {
	PropertyID domainproperty.ID
	UserID     domainuser.ID
	CheckIn    time.Time
	CheckOut   time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*domainbooking.Booking, error) {
	if s.Bookings == nil || s.Properties == nil || s.Users == nil {
		return nil, errRepositoryRequired
	}
	// Missing references are invalid input, not lookups that happen to miss.
	if strings.TrimSpace(string(params.PropertyID)) == "" {
		return nil, domainbooking.ErrPropertyRequired
	}
	if strings.TrimSpace(string(params.UserID)) == "" {
		return nil, domainbooking.ErrUserRequired
	}
	dr, err := daterange.New(params.CheckIn, params.CheckOut)
	if err != nil {
		return nil, err
	}
	if dr.StartsBefore(time.Now()) {
		return nil, domainbooking.ErrCheckInPast
	}
	listing, err := s.Properties.ByID(ctx, params.PropertyID)
	if err != nil {
		return nil, err
	}
	if listing.ApprovalStatus != domainproperty.ApprovalApproved {
		return nil, domainproperty.ErrNotApproved
	}
	guest, err := s.Users.ByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	requested, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.ID(uuid.NewString()),
		Property:  listing,
		UserID:    guest.ID,
		UserEmail: guest.Email,
		Range:     dr,
		Now:       time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.CreateExclusive(ctx, requested); err != nil {
		return nil, err
	}
	if err := s.drainEvents(ctx, requested); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("booking requested",
			"booking_id", requested.ID,
			"property_id", requested.PropertyID,
			"user_id", requested.UserID,
			"total", requested.TotalAmount.Amount)
	}
	return requested, nil
}

// Confirm is an admin transition; cancelled bookings are rejected. No
// overlap re-check is run since creation-time exclusivity already rules out
// an active conflicting sibling.
func (s *Service) Confirm(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	if s.Bookings == nil {
		return nil, errRepositoryRequired
	}
	b, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Confirm(time.Now()); err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	if err := s.drainEvents(ctx, b); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("booking confirmed", "booking_id", b.ID)
	}
	return b, nil
}

// Cancel lets the booking owner (matched by case-insensitive email) or an
// administrator cancel. Re-cancelling a cancelled booking succeeds without
// touching the store.
func (s *Service) Cancel(ctx context.Context, id domainbooking.ID, actorEmail string, actorIsAdmin bool) (*domainbooking.Booking, error) {
	if s.Bookings == nil {
		return nil, errRepositoryRequired
	}
	b, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role := domainuser.RoleUser
	if actorIsAdmin {
		role = domainuser.RoleAdmin
	}
	if !policy.Allows(policy.OpCancelBooking, role, b.OwnedBy(actorEmail)) {
		return nil, ErrNotAllowed
	}
	if !b.Cancel(time.Now()) {
		return b, nil
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	if err := s.drainEvents(ctx, b); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("booking cancelled", "booking_id", b.ID)
	}
	return b, nil
}

// ByUser lists the requester's bookings, newest first.
func (s *Service) ByUser(ctx context.Context, userID domainuser.ID) ([]*domainbooking.Booking, error) {
	return s.Bookings.ListByUser(ctx, userID)
}

// ForHost lists bookings placed on any of the host's properties.
func (s *Service) ForHost(ctx context.Context, hostID domainuser.ID) ([]*domainbooking.Booking, error) {
	if s.Properties == nil {
		return nil, errRepositoryRequired
	}
	listings, err := s.Properties.List(ctx, domainproperty.ListFilter{HostID: hostID})
	if err != nil {
		return nil, err
	}
	ids := make([]domainproperty.ID, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	return s.Bookings.ListByProperties(ctx, ids)
}

// All is the admin projection over every booking, newest first.
func (s *Service) All(ctx context.Context) ([]*domainbooking.Booking, error) {
	return s.Bookings.ListAll(ctx)
}

func (s *Service) drainEvents(ctx context.Context, b *domainbooking.Booking) error {
	pending := b.PendingEvents()
	b.ClearEvents()
	return appoutbox.RecordDomainEvents(ctx, s.Outbox, s.encoder(), pending)
}

func (s *Service) encoder() appoutbox.EventEncoder {
	if s.Encoder != nil {
		return s.Encoder
	}
	return appoutbox.JSONEventEncoder{}
}
