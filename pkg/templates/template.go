package templates

import (
	"fmt"
	"time"

	"github.com/subtrackhq/notify/pkg/notification"
)

// Key derives the unique template key for a (kind, channel) pair,
// e.g. Key(KindPaymentFailed, ChannelEmail) == "payment_failed_email".
func Key(kind notification.Kind, channel notification.Channel) string {
	return fmt.Sprintf("%s_%s", kind, channel)
}

// Template is an operator-managed content row. The engine reads templates
// and never edits them; editing happens through the admin console, which
// goes through Store so caches stay consistent.
//
// Only the slots matching the template's channel are meaningful: subject and
// bodies for email and in-app, push title/body for push, text for SMS.
type Template struct {
	Key      string                `json:"template_key"`
	Kind     notification.Kind     `json:"notification_type"`
	Channel  notification.Channel  `json:"channel_type"`
	Priority notification.Priority `json:"priority,omitempty"`

	Subject   string `json:"subject_template,omitempty"`
	HTML      string `json:"html_template,omitempty"`
	Text      string `json:"text_template,omitempty"`
	PushTitle string `json:"push_title,omitempty"`
	PushBody  string `json:"push_body,omitempty"`

	// Variables declares the substitution names the content expects.
	// Purely documentary for operators; rendering never fails on a missing
	// variable.
	Variables []string `json:"variables,omitempty"`

	Active bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate reports the first business-rule violation in the template.
func (t Template) Validate() error {
	if t.Key == "" {
		return ErrKeyRequired
	}
	if !t.Kind.Valid() {
		return notification.ErrInvalidKind
	}
	if !t.Channel.Valid() {
		return notification.ErrInvalidChannel
	}
	return nil
}
