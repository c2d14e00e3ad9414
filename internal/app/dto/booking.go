package dto

import (
	"time"

	domainbooking "stayhub/internal/domain/booking"
	domainproperty "stayhub/internal/domain/property"
)

type BookingPropertySnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type BookingView struct {
	ID          string                  `json:"id"`
	Property    BookingPropertySnapshot `json:"property"`
	UserID      string                  `json:"user_id"`
	UserEmail   string                  `json:"user_email"`
	CheckIn     time.Time               `json:"check_in"`
	CheckOut    time.Time               `json:"check_out"`
	TotalAmount MoneyDTO                `json:"total_amount"`
	Status      string                  `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
}

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

// MapBookingView resolves the property reference into a display snapshot;
// a nil listing leaves only the foreign key populated.
func MapBookingView(b *domainbooking.Booking, listing *domainproperty.Property) BookingView {
	if b == nil {
		return BookingView{}
	}
	snapshot := BookingPropertySnapshot{ID: string(b.PropertyID)}
	if listing != nil {
		snapshot.Name = listing.Name
		snapshot.Location = listing.Location
	}
	return BookingView{
		ID:          string(b.ID),
		Property:    snapshot,
		UserID:      string(b.UserID),
		UserEmail:   b.UserEmail,
		CheckIn:     b.Range.CheckIn,
		CheckOut:    b.Range.CheckOut,
		TotalAmount: MapMoney(b.TotalAmount),
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
	}
}
