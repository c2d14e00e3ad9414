package booking

import (
	"time"

	"stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

type RequestedEvent struct {
	BookingID  ID
	PropertyID property.ID
	UserID     user.ID
	Range      daterange.DateRange
	Total      money.Money
	At         time.Time
}

func (e RequestedEvent) EventName() string     { return "booking.requested" }
func (e RequestedEvent) AggregateID() string   { return string(e.BookingID) }
func (e RequestedEvent) OccurredAt() time.Time { return e.At }

type ConfirmedEvent struct {
	BookingID  ID
	PropertyID property.ID
	At         time.Time
}

func (e ConfirmedEvent) EventName() string     { return "booking.confirmed" }
func (e ConfirmedEvent) AggregateID() string   { return string(e.BookingID) }
func (e ConfirmedEvent) OccurredAt() time.Time { return e.At }

type CancelledEvent struct {
	BookingID  ID
	PropertyID property.ID
	At         time.Time
}

func (e CancelledEvent) EventName() string     { return "booking.cancelled" }
func (e CancelledEvent) AggregateID() string   { return string(e.BookingID) }
func (e CancelledEvent) OccurredAt() time.Time { return e.At }
