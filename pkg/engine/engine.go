package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/subtrackhq/notify/pkg/delivlog"
	"github.com/subtrackhq/notify/pkg/dispatch"
	"github.com/subtrackhq/notify/pkg/logger"
	"github.com/subtrackhq/notify/pkg/notification"
	"github.com/subtrackhq/notify/pkg/preferences"
	"github.com/subtrackhq/notify/pkg/queue"
	"github.com/subtrackhq/notify/pkg/templates"
)

// Option is a functional option for configuring the engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine orchestrates the notification pipeline: preference gate, template
// render, channel dispatch and delivery logging, with deferral to the queue
// for future send times.
type Engine struct {
	resolver *preferences.Resolver
	renderer *templates.Renderer
	registry *dispatch.Registry
	queue    queue.Storage
	recorder *delivlog.Recorder
	log      *slog.Logger
	now      func() time.Time
}

// New creates the engine over its collaborators.
func New(
	resolver *preferences.Resolver,
	renderer *templates.Renderer,
	registry *dispatch.Registry,
	queueStorage queue.Storage,
	recorder *delivlog.Recorder,
	opts ...Option,
) (*Engine, error) {
	if resolver == nil {
		return nil, ErrResolverNil
	}
	if renderer == nil {
		return nil, ErrRendererNil
	}
	if registry == nil {
		return nil, ErrRegistryNil
	}
	if queueStorage == nil {
		return nil, ErrQueueNil
	}
	if recorder == nil {
		return nil, ErrRecorderNil
	}

	e := &Engine{
		resolver: resolver,
		renderer: renderer,
		registry: registry,
		queue:    queueStorage,
		recorder: recorder,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Send runs one request through the pipeline. A policy block is reported as
// success with the block reason, not as a failure: the engine did its job,
// the user asked not to be notified.
func (e *Engine) Send(ctx context.Context, req notification.Request) SendResult {
	if err := req.Validate(); err != nil {
		return e.failure("invalid notification request", err)
	}

	decision := e.resolver.Allowed(ctx, req.UserID, req.Kind, req.Channel)
	if !decision.Allowed {
		e.log.Info("notification blocked by user preferences",
			logger.UserID(req.UserID),
			logger.Kind(req.Kind),
			logger.Channel(req.Channel),
			slog.String("reason", decision.Reason))
		return SendResult{
			Success:   true,
			Message:   "notification blocked: " + decision.Reason,
			Timestamp: e.now(),
		}
	}

	if req.ScheduledAt != nil && req.ScheduledAt.After(e.now()) {
		return e.schedule(ctx, req)
	}

	return e.deliver(ctx, req)
}

// SendBatch groups the requests by (channel, kind) and fans each group out
// through the pipeline. A failing item never aborts the remaining items;
// results keep input order within each group.
func (e *Engine) SendBatch(ctx context.Context, reqs []notification.Request) BatchResult {
	var batch BatchResult
	for _, group := range notification.Group(reqs) {
		for _, req := range group {
			batch.add(e.Send(ctx, req))
		}
	}
	return batch
}

// CancelScheduled cancels a pending queue item. Items already claimed or in
// a terminal state cannot be cancelled.
func (e *Engine) CancelScheduled(ctx context.Context, id uuid.UUID) error {
	if err := e.queue.Cancel(ctx, id); err != nil {
		return err
	}
	e.log.Info("scheduled notification cancelled", logger.QueueID(id.String()))
	return nil
}

// Process executes a claimed queue item through the same render, dispatch
// and logging path as an immediate send. It satisfies queue.Processor: a
// missing template or other permanent dispatch failure is returned wrapped
// so the worker skips the retry path.
func (e *Engine) Process(ctx context.Context, item queue.Item) error {
	req := item.Request()

	content, err := e.render(ctx, req)
	if err != nil {
		e.record(ctx, req, notification.RenderedContent{}, delivlog.Outcome{ErrorMessage: err.Error()})
		if errors.Is(err, templates.ErrTemplateNotFound) {
			// No active template cannot heal between retries without an
			// operator fixing it, and by then the send moment has passed.
			return dispatch.Permanent(err)
		}
		return err
	}

	res, err := e.registry.Send(ctx, req, content)
	if err != nil {
		e.record(ctx, req, content, delivlog.Outcome{ErrorMessage: err.Error()})
		return err
	}

	e.record(ctx, req, content, delivlog.Outcome{Sent: true, ExternalID: res.ExternalID})
	return nil
}

// schedule persists the request as a pending queue item.
func (e *Engine) schedule(ctx context.Context, req notification.Request) SendResult {
	item := queue.NewItem(req, templates.Key(req.Kind, req.Channel), *req.ScheduledAt)
	if err := e.queue.Enqueue(ctx, &item); err != nil {
		return e.failure("failed to schedule notification", err)
	}

	e.log.Info("notification scheduled",
		logger.UserID(req.UserID),
		logger.QueueID(item.ID.String()),
		slog.Time("scheduled_at", item.ScheduledAt))

	id := item.ID
	return SendResult{
		Success:   true,
		Message:   "notification scheduled",
		QueueID:   &id,
		Timestamp: e.now(),
	}
}

// deliver renders and dispatches the request synchronously.
func (e *Engine) deliver(ctx context.Context, req notification.Request) SendResult {
	content, err := e.render(ctx, req)
	if err != nil {
		e.record(ctx, req, notification.RenderedContent{}, delivlog.Outcome{ErrorMessage: err.Error()})
		return e.failure("failed to render notification", err)
	}

	res, err := e.registry.Send(ctx, req, content)
	if err != nil {
		logID := e.record(ctx, req, content, delivlog.Outcome{ErrorMessage: err.Error()})
		result := e.failure("failed to send notification", err)
		result.NotificationID = logID
		return result
	}

	// Fire and forget: the transport already has the message, a log write
	// failure must not turn a delivered notification into an error.
	logID := e.record(ctx, req, content, delivlog.Outcome{Sent: true, ExternalID: res.ExternalID})

	e.log.Info("notification sent",
		logger.UserID(req.UserID),
		logger.Kind(req.Kind),
		logger.Channel(req.Channel))

	return SendResult{
		Success:        true,
		Message:        "notification sent",
		NotificationID: logID,
		Timestamp:      e.now(),
	}
}

// render produces channel-shaped content from the caller override or the
// active template. Fails closed when no active template matches.
func (e *Engine) render(ctx context.Context, req notification.Request) (notification.RenderedContent, error) {
	if req.Override != nil {
		return overrideContent(req.Channel, req.Override), nil
	}
	return e.renderer.Render(ctx, templates.Key(req.Kind, req.Channel), req.Channel, req.Data)
}

// record writes the delivery log entry, logging instead of failing when the
// write goes wrong.
func (e *Engine) record(ctx context.Context, req notification.Request, content notification.RenderedContent, outcome delivlog.Outcome) *uuid.UUID {
	id, err := e.recorder.Record(ctx, req, content, outcome)
	if err != nil {
		e.log.Error("failed to record delivery log entry",
			logger.UserID(req.UserID),
			logger.Channel(req.Channel),
			logger.Error(err))
		return nil
	}
	return &id
}

func (e *Engine) failure(message string, err error) SendResult {
	return SendResult{
		Success:   false,
		Message:   message,
		Error:     err.Error(),
		Timestamp: e.now(),
	}
}

// overrideContent shapes one-off caller content for the channel the same
// way template rendering would.
func overrideContent(channel notification.Channel, ov *notification.ContentOverride) notification.RenderedContent {
	switch channel {
	case notification.ChannelPush:
		return notification.RenderedContent{PushTitle: ov.Subject, PushBody: ov.Text}
	case notification.ChannelSMS:
		return notification.RenderedContent{Text: ov.Text}
	default:
		return notification.RenderedContent{Subject: ov.Subject, HTML: ov.HTML, Text: ov.Text}
	}
}

var _ queue.Processor = (*Engine)(nil)
