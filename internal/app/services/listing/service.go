package listing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "stayhub/internal/app/outbox"
	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

// Service owns the property approval lifecycle: hosts submit listings,
// administrators approve or reject them.
type Service struct {
	Properties domainproperty.Repository
	Users      domainuser.Repository
	Outbox     appoutbox.Outbox
	Encoder    appoutbox.EventEncoder
	Logger     *slog.Logger
}

var errRepositoryRequired = errors.New("listing: property repository required")

type SubmitParams struct {
	Name        string
	Location    string
	NightlyRate int64
	Currency    string
	Available   *bool
}

// Submit attaches the host and persists a new PENDING listing. Any
// caller-supplied approval status is discarded by construction.
func (s *Service) Submit(ctx context.Context, params SubmitParams, hostID domainuser.ID) (*domainproperty.Property, error) {
	if s.Properties == nil {
		return nil, errRepositoryRequired
	}
	if s.Users != nil {
		if _, err := s.Users.ByID(ctx, hostID); err != nil {
			return nil, err
		}
	}
	currency := params.Currency
	if currency == "" {
		currency = "USD"
	}
	rate, err := money.NewPositive(params.NightlyRate, currency)
	if err != nil {
		return nil, domainproperty.ErrRateNotPositive
	}
	available := true
	if params.Available != nil {
		available = *params.Available
	}
	listing, err := domainproperty.New(domainproperty.CreateParams{
		ID:          domainproperty.ID(uuid.NewString()),
		HostID:      hostID,
		Name:        params.Name,
		Location:    params.Location,
		NightlyRate: rate,
		Available:   available,
		Now:         time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Properties.Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := s.drainEvents(ctx, listing); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("listing submitted", "property_id", listing.ID, "host_id", hostID)
	}
	return listing, nil
}

// Approve marks a listing APPROVED. Availability is left untouched.
func (s *Service) Approve(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	return s.transition(ctx, id, func(p *domainproperty.Property, now time.Time) {
		p.Approve(now)
	})
}

// Reject marks a listing REJECTED and forces it unavailable.
func (s *Service) Reject(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	return s.transition(ctx, id, func(p *domainproperty.Property, now time.Time) {
		p.Reject(now)
	})
}

func (s *Service) transition(ctx context.Context, id domainproperty.ID, apply func(*domainproperty.Property, time.Time)) (*domainproperty.Property, error) {
	if s.Properties == nil {
		return nil, errRepositoryRequired
	}
	listing, err := s.Properties.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(listing, time.Now())
	if err := s.Properties.Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := s.drainEvents(ctx, listing); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("listing status changed", "property_id", listing.ID, "status", listing.ApprovalStatus)
	}
	return listing, nil
}

// Approved lists every APPROVED property.
func (s *Service) Approved(ctx context.Context) ([]*domainproperty.Property, error) {
	return s.Properties.List(ctx, domainproperty.ListFilter{Status: domainproperty.ApprovalApproved})
}

// Pending lists submissions awaiting review.
func (s *Service) Pending(ctx context.Context) ([]*domainproperty.Property, error) {
	return s.Properties.List(ctx, domainproperty.ListFilter{Status: domainproperty.ApprovalPending})
}

// All returns every listing regardless of status.
func (s *Service) All(ctx context.Context) ([]*domainproperty.Property, error) {
	return s.Properties.List(ctx, domainproperty.ListFilter{})
}

// AvailableApproved lists bookable properties: APPROVED and available.
func (s *Service) AvailableApproved(ctx context.Context) ([]*domainproperty.Property, error) {
	return s.Properties.List(ctx, domainproperty.ListFilter{
		Status:        domainproperty.ApprovalApproved,
		AvailableOnly: true,
	})
}

// ByOwner lists a host's own submissions across all statuses.
func (s *Service) ByOwner(ctx context.Context, hostID domainuser.ID) ([]*domainproperty.Property, error) {
	return s.Properties.List(ctx, domainproperty.ListFilter{HostID: hostID})
}

// SearchApproved runs the public paged catalog search.
func (s *Service) SearchApproved(ctx context.Context, params domainproperty.SearchParams) (domainproperty.SearchResult, error) {
	return s.Properties.SearchApproved(ctx, params.Normalized())
}

func (s *Service) drainEvents(ctx context.Context, listing *domainproperty.Property) error {
	pending := listing.PendingEvents()
	listing.ClearEvents()
	return appoutbox.RecordDomainEvents(ctx, s.Outbox, s.encoder(), pending)
}

func (s *Service) encoder() appoutbox.EventEncoder {
	if s.Encoder != nil {
		return s.Encoder
	}
	return appoutbox.JSONEventEncoder{}
}
