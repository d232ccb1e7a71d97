package dispatch

import (
	"context"
	"fmt"

	"github.com/subtrackhq/notify/pkg/notification"
)

// Registry routes send requests to the sender registered for the channel.
type Registry struct {
	senders map[notification.Channel]Sender
}

// NewRegistry creates a registry from the given senders. A later sender for
// the same channel replaces an earlier one, which lets tests swap in fakes.
func NewRegistry(senders ...Sender) *Registry {
	r := &Registry{senders: make(map[notification.Channel]Sender, len(senders))}
	for _, s := range senders {
		if s != nil {
			r.senders[s.Channel()] = s
		}
	}
	return r
}

// Register adds or replaces the sender for its channel.
func (r *Registry) Register(s Sender) {
	if s != nil {
		r.senders[s.Channel()] = s
	}
}

// Send dispatches to the sender for req.Channel. An unregistered channel is
// a permanent failure.
func (r *Registry) Send(ctx context.Context, req notification.Request, content notification.RenderedContent) (Result, error) {
	sender, ok := r.senders[req.Channel]
	if !ok {
		return Result{}, Permanent(fmt.Errorf("%w: %s", ErrUnknownChannel, req.Channel))
	}
	return sender.Send(ctx, req, content)
}
