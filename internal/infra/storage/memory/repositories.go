package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainbooking "stayhub/internal/domain/booking"
	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/daterange"
	domainuser "stayhub/internal/domain/user"
)

// ErrConcurrentUpdate is returned when an optimistic version check fails.
var ErrConcurrentUpdate = errors.New("memory: concurrent update detected")

// PropertyRepository is an in-memory implementation backed by a mutex-guarded map.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.ID]*domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{
		items: make(map[domainproperty.ID]*domainproperty.Property),
	}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	return cloneProperty(p), nil
}

// Save stores the listing after an optimistic version check.
func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[p.ID]; ok && existing.Version != p.Version {
		return ErrConcurrentUpdate
	}
	p.Version++
	r.items[p.ID] = cloneProperty(p)
	return nil
}

func (r *PropertyRepository) List(ctx context.Context, filter domainproperty.ListFilter) ([]*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainproperty.Property, 0, len(r.items))
	for _, p := range r.items {
		if filter.Status != "" && p.ApprovalStatus != filter.Status {
			continue
		}
		if filter.AvailableOnly && !p.Available {
			continue
		}
		if filter.HostID != "" && p.HostID != filter.HostID {
			continue
		}
		matches = append(matches, cloneProperty(p))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *PropertyRepository) SearchApproved(ctx context.Context, params domainproperty.SearchParams) (domainproperty.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainproperty.Property, 0, len(r.items))
	for _, p := range r.items {
		if p.ApprovalStatus != domainproperty.ApprovalApproved {
			continue
		}
		if !opts.Matches(p) {
			continue
		}
		matches = append(matches, cloneProperty(p))
	}

	sort.Slice(matches, func(i, j int) bool {
		less := compareProperties(matches[i], matches[j], opts.Sort)
		if opts.Descending {
			return !less
		}
		return less
	})

	total := len(matches)
	start := opts.Page * opts.Size
	if start > total {
		start = total
	}
	end := start + opts.Size
	if end > total {
		end = total
	}
	return domainproperty.SearchResult{Items: matches[start:end], Total: total}, nil
}

func compareProperties(a, b *domainproperty.Property, by domainproperty.SearchSort) bool {
	switch by {
	case domainproperty.SortByName:
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	case domainproperty.SortByLocation:
		return strings.ToLower(a.Location) < strings.ToLower(b.Location)
	case domainproperty.SortByPrice:
		return a.NightlyRate.Amount < b.NightlyRate.Amount
	default:
		return a.ID < b.ID
	}
}

func cloneProperty(p *domainproperty.Property) *domainproperty.Property {
	if p == nil {
		return nil
	}
	copied := *p
	copied.ClearEvents()
	return &copied
}

// BookingRepository stores bookings in memory. Creation is serialized per
// property so the overlap check and insert form one critical section.
type BookingRepository struct {
	mu     sync.RWMutex
	items  map[domainbooking.ID]*domainbooking.Booking
	lockMu sync.Mutex
	locks  map[domainproperty.ID]*sync.Mutex
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items: make(map[domainbooking.ID]*domainbooking.Booking),
		locks: make(map[domainproperty.ID]*sync.Mutex),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

// Save performs an optimistic read-modify-write keyed by version.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[b.ID]; ok && existing.Version != b.Version {
		return ErrConcurrentUpdate
	}
	b.Version++
	r.items[b.ID] = cloneBooking(b)
	return nil
}

// CreateExclusive holds the property's lock across the overlap check and
// the insert; two concurrent creates for overlapping dates on the same
// property cannot both succeed.
func (r *BookingRepository) CreateExclusive(ctx context.Context, b *domainbooking.Booking) error {
	lock := r.propertyLock(b.PropertyID)
	lock.Lock()
	defer lock.Unlock()

	overlap, err := r.ExistsOverlapping(ctx, b.PropertyID, b.Range)
	if err != nil {
		return err
	}
	if overlap {
		return domainbooking.ErrDateConflict
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ExistsOverlapping(ctx context.Context, propertyID domainproperty.ID, dr daterange.DateRange) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.PropertyID != propertyID || !b.Active() {
			continue
		}
		if b.Range.Overlaps(dr) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool {
		return b.UserID == userID
	})
}

func (r *BookingRepository) ListByProperties(ctx context.Context, propertyIDs []domainproperty.ID) ([]*domainbooking.Booking, error) {
	wanted := make(map[domainproperty.ID]struct{}, len(propertyIDs))
	for _, id := range propertyIDs {
		wanted[id] = struct{}{}
	}
	return r.list(func(b *domainbooking.Booking) bool {
		_, ok := wanted[b.PropertyID]
		return ok
	})
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.list(func(*domainbooking.Booking) bool { return true })
}

func (r *BookingRepository) list(keep func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			matches = append(matches, cloneBooking(b))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) propertyLock(id domainproperty.ID) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	if b == nil {
		return nil
	}
	copied := *b
	copied.ClearEvents()
	return &copied
}
