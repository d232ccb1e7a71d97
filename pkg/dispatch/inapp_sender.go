package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/subtrackhq/notify/pkg/inbox"
	"github.com/subtrackhq/notify/pkg/notification"
)

// InAppSender writes directly into the user-visible inbox instead of calling
// an external transport. The insert succeeding is what "sent" means for the
// in_app channel.
type InAppSender struct {
	storage inbox.Storage
}

// NewInAppSender creates the in-app channel sender over the inbox storage.
func NewInAppSender(storage inbox.Storage) *InAppSender {
	return &InAppSender{storage: storage}
}

func (s *InAppSender) Channel() notification.Channel {
	return notification.ChannelInApp
}

func (s *InAppSender) Send(ctx context.Context, req notification.Request, content notification.RenderedContent) (Result, error) {
	body := content.Text
	if body == "" {
		body = content.HTML
	}

	entry := inbox.Entry{
		ID:       uuid.New(),
		UserID:   req.UserID,
		Kind:     req.Kind,
		Priority: req.EffectivePriority(),
		Subject:  content.Subject,
		Body:     body,
		Data:     req.Data,
	}

	if err := s.storage.Create(ctx, entry); err != nil {
		return Result{}, fmt.Errorf("insert inbox entry: %w", err)
	}

	return Result{Success: true, ExternalID: entry.ID.String()}, nil
}
