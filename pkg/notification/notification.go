package notification

import (
	"time"
)

// Kind represents the semantic category of a notification.
type Kind string

const (
	KindWelcome            Kind = "welcome"
	KindSubscriptionExpiry Kind = "subscription_expiry"
	KindPaymentFailed      Kind = "payment_failed"
	KindPaymentSuccess     Kind = "payment_success"
	KindQuotaWarning       Kind = "quota_warning"
	KindSecurityAlert      Kind = "security_alert"
	KindSystemUpdate       Kind = "system_update"
	KindPasswordReset      Kind = "password_reset"
)

// Valid checks if the kind is part of the closed enumeration.
func (k Kind) Valid() bool {
	switch k {
	case KindWelcome, KindSubscriptionExpiry, KindPaymentFailed, KindPaymentSuccess,
		KindQuotaWarning, KindSecurityAlert, KindSystemUpdate, KindPasswordReset:
		return true
	}
	return false
}

// Channel represents a delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in_app"
)

// Valid checks if the channel is one of the supported delivery media.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp:
		return true
	}
	return false
}

// Priority represents the delivery priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
	PriorityDefault         = PriorityNormal
)

// Valid checks if the priority is one of the known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ContentOverride carries one-off content supplied by the caller,
// bypassing template resolution entirely.
type ContentOverride struct {
	Subject string `json:"subject,omitempty"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Request is the caller-constructed unit of work. It is never persisted
// directly; a deferred request becomes a queue item instead.
type Request struct {
	UserID      string           `json:"user_id"`
	Recipient   string           `json:"recipient"`
	Kind        Kind             `json:"type"`
	Channel     Channel          `json:"channel_type"`
	Priority    Priority         `json:"priority,omitempty"`
	Data        map[string]any   `json:"data,omitempty"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
	Override    *ContentOverride `json:"template_override,omitempty"`
}

// Validate reports the first business-rule violation in the request.
func (r Request) Validate() error {
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if r.Recipient == "" {
		return ErrRecipientRequired
	}
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if !r.Channel.Valid() {
		return ErrInvalidChannel
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// EffectivePriority returns the request priority, falling back to the default.
func (r Request) EffectivePriority() Priority {
	if r.Priority == "" {
		return PriorityDefault
	}
	return r.Priority
}

// RenderedContent is the channel-shaped output of template rendering.
// Email and in-app fill Subject/HTML/Text, push fills PushTitle/PushBody,
// SMS fills Text only.
type RenderedContent struct {
	Subject   string `json:"subject,omitempty"`
	HTML      string `json:"html,omitempty"`
	Text      string `json:"text,omitempty"`
	PushTitle string `json:"push_title,omitempty"`
	PushBody  string `json:"push_body,omitempty"`
}

// Preview returns the most representative text of the content,
// truncated to at most max runes.
func (c RenderedContent) Preview(max int) string {
	body := c.Text
	if body == "" {
		body = c.HTML
	}
	if body == "" {
		body = c.PushBody
	}
	runes := []rune(body)
	if max > 0 && len(runes) > max {
		return string(runes[:max])
	}
	return body
}
