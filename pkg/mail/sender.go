package mail

import (
	"context"
	"regexp"
)

// TransportSender is the outbound email transport contract.
// Implementations return the provider-assigned message id on success so the
// delivery log can correlate transport callbacks with the original send.
type TransportSender interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
}

// Message represents a single outbound email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html,omitempty"`
	BodyText string `json:"body_text,omitempty"`
	Tag      string `json:"tag,omitempty"` // Optional provider-side grouping tag
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate reports the first problem that would make the message unsendable.
func (m Message) Validate() error {
	if m.To == "" {
		return ErrRecipientRequired
	}
	if !emailRegex.MatchString(m.To) {
		return ErrInvalidRecipient
	}
	if m.Subject == "" {
		return ErrSubjectRequired
	}
	if m.BodyHTML == "" && m.BodyText == "" {
		return ErrBodyRequired
	}
	return nil
}
