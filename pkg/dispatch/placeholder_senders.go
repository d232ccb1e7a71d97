package dispatch

import (
	"context"
	"fmt"

	"github.com/subtrackhq/notify/pkg/notification"
)

// SMSSender is a placeholder for the not-yet-integrated SMS gateway.
// It fails deterministically and permanently so queued items do not burn
// retries waiting for a transport that does not exist.
type SMSSender struct{}

func NewSMSSender() *SMSSender {
	return &SMSSender{}
}

func (s *SMSSender) Channel() notification.Channel {
	return notification.ChannelSMS
}

func (s *SMSSender) Send(ctx context.Context, req notification.Request, content notification.RenderedContent) (Result, error) {
	return Result{}, Permanent(fmt.Errorf("%w: sms", ErrNotImplemented))
}

// PushSender is a placeholder for the not-yet-integrated push gateway.
type PushSender struct{}

func NewPushSender() *PushSender {
	return &PushSender{}
}

func (s *PushSender) Channel() notification.Channel {
	return notification.ChannelPush
}

func (s *PushSender) Send(ctx context.Context, req notification.Request, content notification.RenderedContent) (Result, error) {
	return Result{}, Permanent(fmt.Errorf("%w: push", ErrNotImplemented))
}
