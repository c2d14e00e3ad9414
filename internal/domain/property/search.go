package property

import "strings"

// SearchSort defines a supported ordering for approved-listing search.
type SearchSort string

const (
	SortByID       SearchSort = "id"
	SortByName     SearchSort = "name"
	SortByLocation SearchSort = "location"
	SortByPrice    SearchSort = "price"

	defaultSearchSize = 20
	maxSearchSize     = 100
)

// SearchParams describe approved-listing filters and paging options.
type SearchParams struct {
	Query         string
	PriceMin      int64
	PriceMax      int64
	AvailableOnly bool
	Page          int
	Size          int
	Sort          SearchSort
	Descending    bool
}

// SearchResult carries one page of matches plus the unpaged total.
type SearchResult struct {
	Items []*Property
	Total int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.Query = strings.TrimSpace(strings.ToLower(normalized.Query))
	if normalized.PriceMin < 0 {
		normalized.PriceMin = 0
	}
	if normalized.PriceMax > 0 && normalized.PriceMax < normalized.PriceMin {
		normalized.PriceMax = 0
	}
	if normalized.Page < 0 {
		normalized.Page = 0
	}
	if normalized.Size <= 0 {
		normalized.Size = defaultSearchSize
	}
	if normalized.Size > maxSearchSize {
		normalized.Size = maxSearchSize
	}
	switch normalized.Sort {
	case SortByName, SortByLocation, SortByPrice:
	default:
		normalized.Sort = SortByID
	}
	return normalized
}

// Matches reports whether a listing satisfies the (normalized) filters,
// approval status aside.
func (p SearchParams) Matches(listing *Property) bool {
	if listing == nil {
		return false
	}
	if p.AvailableOnly && !listing.Available {
		return false
	}
	if p.PriceMin > 0 && listing.NightlyRate.Amount < p.PriceMin {
		return false
	}
	if p.PriceMax > 0 && listing.NightlyRate.Amount > p.PriceMax {
		return false
	}
	if p.Query != "" {
		haystack := strings.ToLower(listing.Name + " " + listing.Location)
		if !strings.Contains(haystack, p.Query) {
			return false
		}
	}
	return true
}
