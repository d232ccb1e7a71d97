package dispatch

import (
	"context"

	"github.com/subtrackhq/notify/pkg/notification"
)

// Result is the outcome of a single channel send.
type Result struct {
	Success bool `json:"success"`

	// ExternalID is the transport-assigned identifier (provider message id,
	// inbox entry id) used to correlate later delivery callbacks.
	ExternalID string `json:"external_id,omitempty"`
}

// Sender delivers rendered content over one channel. Implementations are
// registered per channel and must be swappable without touching the
// orchestration layer: adding a channel means adding a Sender, not editing
// a switch.
//
// Senders classify their own failures: errors wrapped with Permanent are
// never retried, anything else is treated as transient.
type Sender interface {
	Channel() notification.Channel
	Send(ctx context.Context, req notification.Request, content notification.RenderedContent) (Result, error)
}
