package dispatch

import (
	"context"
	"errors"

	"github.com/subtrackhq/notify/pkg/mail"
	"github.com/subtrackhq/notify/pkg/notification"
)

// EmailSender delivers over the outbound mail transport.
type EmailSender struct {
	transport mail.TransportSender
}

// NewEmailSender creates the email channel sender.
func NewEmailSender(transport mail.TransportSender) *EmailSender {
	return &EmailSender{transport: transport}
}

func (s *EmailSender) Channel() notification.Channel {
	return notification.ChannelEmail
}

// Send hands the rendered content to the transport and returns the provider
// message id. Message validation failures (bad recipient, empty content) are
// permanent — the same input will fail the same way on every retry.
func (s *EmailSender) Send(ctx context.Context, req notification.Request, content notification.RenderedContent) (Result, error) {
	msg := mail.Message{
		To:       req.Recipient,
		Subject:  content.Subject,
		BodyHTML: content.HTML,
		BodyText: content.Text,
		Tag:      string(req.Kind),
	}

	if err := msg.Validate(); err != nil {
		return Result{}, Permanent(err)
	}

	messageID, err := s.transport.Send(ctx, msg)
	if err != nil {
		// Transport errors are transient by default: unreachable provider,
		// timeout, rate limit. The validation cases were handled above.
		if errors.Is(err, mail.ErrInvalidRecipient) || errors.Is(err, mail.ErrRecipientRequired) {
			return Result{}, Permanent(err)
		}
		return Result{}, err
	}

	return Result{Success: true, ExternalID: messageID}, nil
}
