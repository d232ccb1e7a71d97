package engine

import (
	"time"

	"github.com/google/uuid"
)

// SendResult is the structured outcome of one send request. Callers always
// receive a result, never a bare error: a policy block reports success with
// an explanatory message, a scheduled request reports success with the
// queue id.
type SendResult struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	NotificationID *uuid.UUID `json:"notification_id,omitempty"`
	QueueID        *uuid.UUID `json:"queue_id,omitempty"`
	Error          string     `json:"error,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Scheduled reports whether the request was deferred to the queue.
func (r SendResult) Scheduled() bool {
	return r.QueueID != nil
}

// BatchResult aggregates the outcomes of a batch send. Results holds the
// per-item outcomes grouped by (channel, kind), preserving input order
// within each group.
type BatchResult struct {
	TotalSent      int          `json:"total_sent"`
	TotalFailed    int          `json:"total_failed"`
	TotalScheduled int          `json:"total_scheduled"`
	Results        []SendResult `json:"results"`
}

func (b *BatchResult) add(r SendResult) {
	switch {
	case r.Scheduled():
		b.TotalScheduled++
	case r.Success:
		b.TotalSent++
	default:
		b.TotalFailed++
	}
	b.Results = append(b.Results, r)
}
