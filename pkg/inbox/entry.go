package inbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/subtrackhq/notify/pkg/notification"
)

// Entry is a single in-app notification as the product UI reads it. For the
// in_app channel, successfully inserting an Entry is the definition of
// "sent" — there is no external transport behind this channel.
type Entry struct {
	ID       uuid.UUID             `json:"id"`
	UserID   string                `json:"user_id"`
	Kind     notification.Kind     `json:"type"`
	Priority notification.Priority `json:"priority"`
	Subject  string                `json:"subject"`
	Body     string                `json:"body"`
	Data     map[string]any        `json:"data,omitempty"`

	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// MarkAsRead marks the entry as read with the current timestamp.
func (e *Entry) MarkAsRead() {
	e.Read = true
	now := time.Now()
	e.ReadAt = &now
}
