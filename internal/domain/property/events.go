package property

import (
	"time"

	"stayhub/internal/domain/user"
)

type SubmittedEvent struct {
	PropertyID ID
	HostID     user.ID
	At         time.Time
}

func (e SubmittedEvent) EventName() string     { return "property.submitted" }
func (e SubmittedEvent) AggregateID() string   { return string(e.PropertyID) }
func (e SubmittedEvent) OccurredAt() time.Time { return e.At }

type ApprovedEvent struct {
	PropertyID ID
	At         time.Time
}

func (e ApprovedEvent) EventName() string     { return "property.approved" }
func (e ApprovedEvent) AggregateID() string   { return string(e.PropertyID) }
func (e ApprovedEvent) OccurredAt() time.Time { return e.At }

type RejectedEvent struct {
	PropertyID ID
	At         time.Time
}

func (e RejectedEvent) EventName() string     { return "property.rejected" }
func (e RejectedEvent) AggregateID() string   { return string(e.PropertyID) }
func (e RejectedEvent) OccurredAt() time.Time { return e.At }
