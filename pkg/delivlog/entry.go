package delivlog

import (
	"time"

	"github.com/google/uuid"

	"github.com/subtrackhq/notify/pkg/notification"
)

// DefaultPreviewLimit bounds the stored content preview in runes.
const DefaultPreviewLimit = 200

// Status reflects the most advanced lifecycle event observed for an entry.
type Status string

const (
	StatusFailed     Status = "failed"
	StatusSent       Status = "sent"
	StatusDelivered  Status = "delivered"
	StatusOpened     Status = "opened"
	StatusClicked    Status = "clicked"
	StatusBounced    Status = "bounced"
	StatusComplained Status = "complained"
)

// statusRank orders lifecycle states so AppendEvent only ever advances the
// status. Bounces and complaints outrank engagement events: they are the
// transport's final word on the recipient.
var statusRank = map[Status]int{
	StatusFailed:     0,
	StatusSent:       1,
	StatusDelivered:  2,
	StatusOpened:     3,
	StatusClicked:    4,
	StatusBounced:    5,
	StatusComplained: 6,
}

// Rank returns the lifecycle order of the status, higher is more advanced.
func (s Status) Rank() int {
	return statusRank[s]
}

// Valid checks if the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Event is an out-of-band transport callback appended to an existing entry.
type Event string

const (
	EventDelivered  Event = "delivered"
	EventOpened     Event = "opened"
	EventClicked    Event = "clicked"
	EventBounced    Event = "bounced"
	EventComplained Event = "complained"
)

// Valid checks if the event is one of the supported callback kinds.
func (e Event) Valid() bool {
	switch e {
	case EventDelivered, EventOpened, EventClicked, EventBounced, EventComplained:
		return true
	}
	return false
}

// Status returns the lifecycle status the event corresponds to.
func (e Event) Status() Status {
	return Status(e)
}

// Entry is one append-only delivery record. Every send attempt, successful
// or not, produces exactly one entry; transport callbacks add lifecycle
// timestamps to it but never create new rows.
type Entry struct {
	ID           uuid.UUID             `json:"id"`
	UserID       string                `json:"user_id"`
	Kind         notification.Kind     `json:"notification_type"`
	Channel      notification.Channel  `json:"channel_type"`
	Recipient    string                `json:"recipient"`
	Subject      string                `json:"subject,omitempty"`
	Preview      string                `json:"content_preview,omitempty"`
	Status       Status                `json:"status"`
	ExternalID   string                `json:"external_id,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Metadata     map[string]any        `json:"metadata,omitempty"`
	SentAt       *time.Time            `json:"sent_at,omitempty"`
	DeliveredAt  *time.Time            `json:"delivered_at,omitempty"`
	OpenedAt     *time.Time            `json:"opened_at,omitempty"`
	ClickedAt    *time.Time            `json:"clicked_at,omitempty"`
	BouncedAt    *time.Time            `json:"bounced_at,omitempty"`
	ComplainedAt *time.Time            `json:"complained_at,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// eventTimestamp returns a pointer to the timestamp field for the event.
func (e *Entry) eventTimestamp(event Event) **time.Time {
	switch event {
	case EventDelivered:
		return &e.DeliveredAt
	case EventOpened:
		return &e.OpenedAt
	case EventClicked:
		return &e.ClickedAt
	case EventBounced:
		return &e.BouncedAt
	case EventComplained:
		return &e.ComplainedAt
	}
	return nil
}

// applyEvent records the event on the entry: the matching timestamp is set
// once (first write wins) and the status advances only when the event ranks
// higher than the current one. Already recorded timestamps are never cleared.
func (e *Entry) applyEvent(event Event, at time.Time) error {
	ts := e.eventTimestamp(event)
	if ts == nil {
		return ErrInvalidEvent
	}
	if *ts == nil {
		t := at
		*ts = &t
	}
	if event.Status().Rank() > e.Status.Rank() {
		e.Status = event.Status()
	}
	return nil
}
