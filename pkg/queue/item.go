package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/subtrackhq/notify/pkg/notification"
)

// DefaultMaxRetries bounds how many times a failed item is retried.
const DefaultMaxRetries = 3

// Status represents the lifecycle state of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the legality table for status changes. An item only moves
// forward: the single path back to pending is a retry from processing, which
// increments the retry count.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusSent, StatusFailed, StatusPending},
}

// CanTransitionTo reports whether the status change is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid checks if the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSent, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Item is a persisted unit of deferred or retryable notification work.
type Item struct {
	ID          uuid.UUID                     `json:"id"`
	UserID      string                        `json:"user_id"`
	TemplateKey string                        `json:"template_key"`
	Kind        notification.Kind             `json:"notification_type"`
	Channel     notification.Channel          `json:"channel_type"`
	Recipient   string                        `json:"recipient"`
	Override    *notification.ContentOverride `json:"content,omitempty"`
	Variables   map[string]any                `json:"variables,omitempty"`
	Priority    notification.Priority         `json:"priority"`
	Status      Status                        `json:"status"`
	RetryCount  int                           `json:"retry_count"`
	MaxRetries  int                           `json:"max_retries"`
	LastError   string                        `json:"last_error,omitempty"`
	ScheduledAt time.Time                     `json:"scheduled_at"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}

// NewItem builds a pending queue item from a send request due at scheduledAt.
func NewItem(req notification.Request, templateKey string, scheduledAt time.Time) Item {
	return Item{
		ID:          uuid.New(),
		UserID:      req.UserID,
		TemplateKey: templateKey,
		Kind:        req.Kind,
		Channel:     req.Channel,
		Recipient:   req.Recipient,
		Override:    req.Override,
		Variables:   req.Data,
		Priority:    req.EffectivePriority(),
		Status:      StatusPending,
		MaxRetries:  DefaultMaxRetries,
		ScheduledAt: scheduledAt,
	}
}

// Request reconstructs the send request this item was enqueued from, so a
// claimed item flows through the same render and dispatch path as an
// immediate send.
func (i Item) Request() notification.Request {
	return notification.Request{
		UserID:    i.UserID,
		Recipient: i.Recipient,
		Kind:      i.Kind,
		Channel:   i.Channel,
		Priority:  i.Priority,
		Data:      i.Variables,
		Override:  i.Override,
	}
}

// Validate reports the first business-rule violation in the item.
func (i Item) Validate() error {
	if i.UserID == "" {
		return ErrUserIDRequired
	}
	if i.Recipient == "" {
		return ErrRecipientRequired
	}
	if !i.Kind.Valid() {
		return ErrInvalidKind
	}
	if !i.Channel.Valid() {
		return ErrInvalidChannel
	}
	if i.ScheduledAt.IsZero() {
		return ErrScheduledAtRequired
	}
	return nil
}
