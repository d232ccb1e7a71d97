package delivlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/subtrackhq/notify/pkg/notification"
)

// RecorderOption is a functional option for configuring a Recorder.
type RecorderOption func(*Recorder)

// WithPreviewLimit overrides the content preview bound in runes.
func WithPreviewLimit(limit int) RecorderOption {
	return func(r *Recorder) {
		if limit > 0 {
			r.previewLimit = limit
		}
	}
}

// Recorder writes delivery outcomes to the log. It never stores the full
// rendered body, only a bounded preview.
type Recorder struct {
	storage      Storage
	previewLimit int
}

// NewRecorder creates a Recorder over the given storage.
func NewRecorder(storage Storage, opts ...RecorderOption) (*Recorder, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	r := &Recorder{
		storage:      storage,
		previewLimit: DefaultPreviewLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record writes one entry for a send attempt. The preview is derived from
// the rendered content and capped; SentAt is stamped for successful sends.
func (r *Recorder) Record(ctx context.Context, req notification.Request, content notification.RenderedContent, outcome Outcome) (uuid.UUID, error) {
	if req.UserID == "" {
		return uuid.Nil, ErrUserIDRequired
	}

	entry := Entry{
		ID:           uuid.New(),
		UserID:       req.UserID,
		Kind:         req.Kind,
		Channel:      req.Channel,
		Recipient:    req.Recipient,
		Subject:      content.Subject,
		Preview:      content.Preview(r.previewLimit),
		Status:       StatusFailed,
		ExternalID:   outcome.ExternalID,
		ErrorMessage: outcome.ErrorMessage,
		Metadata:     outcome.Metadata,
	}
	if outcome.Sent {
		now := time.Now()
		entry.Status = StatusSent
		entry.SentAt = &now
	}

	if err := r.storage.Create(ctx, &entry); err != nil {
		return uuid.Nil, fmt.Errorf("record delivery: %w", err)
	}
	return entry.ID, nil
}

// AppendEvent applies a transport callback to an existing entry.
func (r *Recorder) AppendEvent(ctx context.Context, id uuid.UUID, event Event, at time.Time) error {
	if !event.Valid() {
		return ErrInvalidEvent
	}
	if at.IsZero() {
		at = time.Now()
	}
	return r.storage.AppendEvent(ctx, id, event, at)
}

// History returns the user's delivery log, newest first.
func (r *Recorder) History(ctx context.Context, userID string, limit, offset int) ([]Entry, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return r.storage.ListByUser(ctx, userID, limit, offset)
}

// Outcome describes how a send attempt ended.
type Outcome struct {
	Sent         bool
	ExternalID   string
	ErrorMessage string
	Metadata     map[string]any
}
