package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/shared/events"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

var (
	ErrIDRequired       = errors.New("property: id is required")
	ErrHostRequired     = errors.New("property: host is required")
	ErrNameRequired     = errors.New("property: name is required")
	ErrLocationRequired = errors.New("property: location is required")
	ErrRateNotPositive  = errors.New("property: nightly rate must be positive")
	ErrNotFound         = errors.New("property: not found")
	ErrNotApproved      = errors.New("property: not approved for booking")
)

type ID string

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

type Property struct {
	ID             ID
	HostID         user.ID
	Name           string
	Location       string
	NightlyRate    money.Money
	Available      bool
	ApprovalStatus ApprovalStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	List(ctx context.Context, filter ListFilter) ([]*Property, error)
	SearchApproved(ctx context.Context, params SearchParams) (SearchResult, error)
}

// ListFilter narrows listings by status, availability or owner.
type ListFilter struct {
	Status        ApprovalStatus
	AvailableOnly bool
	HostID        user.ID
}

type CreateParams struct {
	ID          ID
	HostID      user.ID
	Name        string
	Location    string
	NightlyRate money.Money
	Available   bool
	Now         time.Time
}

// New creates a listing submission. Approval status is always forced to
// PENDING here; caller-supplied status never reaches the aggregate.
func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.HostID)) == "" {
		return nil, ErrHostRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	location := strings.TrimSpace(params.Location)
	if location == "" {
		return nil, ErrLocationRequired
	}
	if !params.NightlyRate.IsPositive() {
		return nil, ErrRateNotPositive
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	p := &Property{
		ID:             params.ID,
		HostID:         params.HostID,
		Name:           name,
		Location:       location,
		NightlyRate:    params.NightlyRate,
		Available:      params.Available,
		ApprovalStatus: ApprovalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.Record(SubmittedEvent{PropertyID: p.ID, HostID: p.HostID, At: now})
	return p, nil
}

// Approve marks the listing bookable-eligible. It does not alter the
// availability flag, and repeated calls simply overwrite the status.
func (p *Property) Approve(now time.Time) {
	p.ApprovalStatus = ApprovalApproved
	p.UpdatedAt = now.UTC()
	p.Record(ApprovedEvent{PropertyID: p.ID, At: p.UpdatedAt})
}

// Reject withdraws the listing and forces Available to false regardless of
// its prior value.
func (p *Property) Reject(now time.Time) {
	p.ApprovalStatus = ApprovalRejected
	p.Available = false
	p.UpdatedAt = now.UTC()
	p.Record(RejectedEvent{PropertyID: p.ID, At: p.UpdatedAt})
}

// Bookable reports whether guests may reserve this listing.
func (p *Property) Bookable() bool {
	return p.ApprovalStatus == ApprovalApproved && p.Available
}
