package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrackhq/notify/pkg/delivlog"
	"github.com/subtrackhq/notify/pkg/dispatch"
	"github.com/subtrackhq/notify/pkg/engine"
	"github.com/subtrackhq/notify/pkg/inbox"
	"github.com/subtrackhq/notify/pkg/mail"
	"github.com/subtrackhq/notify/pkg/notification"
	"github.com/subtrackhq/notify/pkg/preferences"
	"github.com/subtrackhq/notify/pkg/queue"
	"github.com/subtrackhq/notify/pkg/templates"
)

type stubTransport struct {
	mu   sync.Mutex
	err  error
	sent []mail.Message
}

func (s *stubTransport) Send(ctx context.Context, msg mail.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if s.err != nil {
		return "", s.err
	}
	return "pm-123", nil
}

func (s *stubTransport) messages() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Message(nil), s.sent...)
}

type stack struct {
	engine    *engine.Engine
	transport *stubTransport
	prefs     *preferences.Resolver
	queue     *queue.MemoryStorage
	logs      *delivlog.MemoryStorage
	inbox     *inbox.MemoryStorage
	templates *templates.Store
	renderer  *templates.Renderer
	registry  *dispatch.Registry
}

func newStack(t *testing.T) *stack {
	t.Helper()

	prefStorage := preferences.NewMemoryStorage()
	resolver, err := preferences.NewResolver(prefStorage,
		preferences.WithResolverLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	tplStorage := templates.NewMemoryStorage()
	renderer, err := templates.NewRenderer(tplStorage)
	require.NoError(t, err)
	store := templates.NewStore(renderer)

	require.NoError(t, store.Save(context.Background(), templates.Template{
		Key:       "payment_failed_email",
		Kind:      notification.KindPaymentFailed,
		Channel:   notification.ChannelEmail,
		Subject:   "Payment failed",
		Text:      "Your payment of {{amount}} failed",
		Variables: []string{"amount"},
		Active:    true,
	}))

	transport := &stubTransport{}
	inboxStorage := inbox.NewMemoryStorage()
	registry := dispatch.NewRegistry(
		dispatch.NewEmailSender(transport),
		dispatch.NewSMSSender(),
		dispatch.NewPushSender(),
		dispatch.NewInAppSender(inboxStorage),
	)

	queueStorage := queue.NewMemoryStorage()
	logStorage := delivlog.NewMemoryStorage()
	recorder, err := delivlog.NewRecorder(logStorage)
	require.NoError(t, err)

	eng, err := engine.New(resolver, renderer, registry, queueStorage, recorder,
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	return &stack{
		engine:    eng,
		transport: transport,
		prefs:     resolver,
		queue:     queueStorage,
		logs:      logStorage,
		inbox:     inboxStorage,
		templates: store,
		renderer:  renderer,
		registry:  registry,
	}
}

func paymentFailedRequest() notification.Request {
	return notification.Request{
		UserID:    "U1",
		Recipient: "a@x.com",
		Kind:      notification.KindPaymentFailed,
		Channel:   notification.ChannelEmail,
		Data:      map[string]any{"amount": "9.99"},
	}
}

func TestEngineSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("renders and dispatches immediately", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		result := s.engine.Send(ctx, paymentFailedRequest())

		assert.True(t, result.Success)
		assert.Equal(t, "notification sent", result.Message)
		require.NotNil(t, result.NotificationID)
		assert.Nil(t, result.QueueID)

		sent := s.transport.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "a@x.com", sent[0].To)
		assert.Equal(t, "Payment failed", sent[0].Subject)
		assert.Equal(t, "Your payment of 9.99 failed", sent[0].BodyText)

		entry, err := s.logs.Get(ctx, *result.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, delivlog.StatusSent, entry.Status)
		assert.Equal(t, "pm-123", entry.ExternalID)
		assert.Equal(t, "Your payment of 9.99 failed", entry.Preview)
	})

	t.Run("disabled preference blocks without failing", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		require.NoError(t, s.prefs.Save(ctx, preferences.Preference{
			UserID:    "U1",
			Kind:      notification.KindPaymentFailed,
			Channel:   notification.ChannelEmail,
			Enabled:   false,
			Frequency: preferences.FrequencyImmediate,
		}))

		result := s.engine.Send(ctx, paymentFailedRequest())

		assert.True(t, result.Success, "a policy block is not an engine failure")
		assert.Contains(t, result.Message, "blocked")
		assert.Nil(t, result.NotificationID)
		assert.Empty(t, s.transport.messages(), "no transport call for a blocked send")

		entries, err := s.logs.ListByUser(ctx, "U1", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("missing template fails closed", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		req := paymentFailedRequest()
		req.Kind = notification.KindQuotaWarning // no template seeded

		result := s.engine.Send(ctx, req)

		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
		assert.Empty(t, s.transport.messages())

		entries, err := s.logs.ListByUser(ctx, "U1", 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1, "a failed attempt still produces a log entry")
		assert.Equal(t, delivlog.StatusFailed, entries[0].Status)
	})

	t.Run("content override bypasses templates", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		req := paymentFailedRequest()
		req.Kind = notification.KindQuotaWarning // no template, override supplies content
		req.Override = &notification.ContentOverride{
			Subject: "Storage almost full",
			Text:    "You are at 95% of your quota",
		}

		result := s.engine.Send(ctx, req)

		assert.True(t, result.Success)
		sent := s.transport.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "Storage almost full", sent[0].Subject)
		assert.Equal(t, "You are at 95% of your quota", sent[0].BodyText)
	})

	t.Run("transport failure reports the error", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		s.transport.err = errors.New("connection refused")

		result := s.engine.Send(ctx, paymentFailedRequest())

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "connection refused")

		entries, err := s.logs.ListByUser(ctx, "U1", 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, delivlog.StatusFailed, entries[0].Status)
	})

	t.Run("invalid request", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		req := paymentFailedRequest()
		req.Recipient = ""

		result := s.engine.Send(ctx, req)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("in-app send lands in the inbox", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		require.NoError(t, s.templates.Save(ctx, templates.Template{
			Key:     "payment_failed_in_app",
			Kind:    notification.KindPaymentFailed,
			Channel: notification.ChannelInApp,
			Subject: "Payment failed",
			Text:    "Your payment of {{amount}} failed",
			Active:  true,
		}))

		req := paymentFailedRequest()
		req.Channel = notification.ChannelInApp

		result := s.engine.Send(ctx, req)
		assert.True(t, result.Success)

		entries, err := s.inbox.List(ctx, "U1", inbox.ListOptions{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Your payment of 9.99 failed", entries[0].Body)
	})
}

func TestEngineScheduling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("future send time enqueues instead of dispatching", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		due := time.Now().Add(2 * time.Hour).Truncate(time.Second)
		req := paymentFailedRequest()
		req.ScheduledAt = &due

		result := s.engine.Send(ctx, req)

		assert.True(t, result.Success)
		require.NotNil(t, result.QueueID)
		assert.True(t, result.Scheduled())
		assert.Empty(t, s.transport.messages(), "scheduling must not touch any transport")

		item, err := s.queue.Get(ctx, *result.QueueID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusPending, item.Status)
		assert.True(t, item.ScheduledAt.Equal(due))
		assert.Equal(t, "payment_failed_email", item.TemplateKey)
	})

	t.Run("past send time dispatches immediately", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		past := time.Now().Add(-time.Minute)
		req := paymentFailedRequest()
		req.ScheduledAt = &past

		result := s.engine.Send(ctx, req)

		assert.True(t, result.Success)
		assert.Nil(t, result.QueueID)
		assert.Len(t, s.transport.messages(), 1)
	})

	t.Run("blocked preference wins over scheduling", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		require.NoError(t, s.prefs.Save(ctx, preferences.Preference{
			UserID:    "U1",
			Kind:      notification.KindPaymentFailed,
			Channel:   notification.ChannelEmail,
			Enabled:   false,
			Frequency: preferences.FrequencyImmediate,
		}))

		due := time.Now().Add(time.Hour)
		req := paymentFailedRequest()
		req.ScheduledAt = &due

		result := s.engine.Send(ctx, req)
		assert.True(t, result.Success)
		assert.Nil(t, result.QueueID, "blocked requests are not enqueued")
	})

	t.Run("cancel pending item", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		due := time.Now().Add(time.Hour)
		req := paymentFailedRequest()
		req.ScheduledAt = &due

		result := s.engine.Send(ctx, req)
		require.NotNil(t, result.QueueID)

		require.NoError(t, s.engine.CancelScheduled(ctx, *result.QueueID))

		item, err := s.queue.Get(ctx, *result.QueueID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusCancelled, item.Status)

		assert.ErrorIs(t, s.engine.CancelScheduled(ctx, *result.QueueID), queue.ErrInvalidTransition)
	})

	t.Run("cancel unknown item", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		assert.ErrorIs(t, s.engine.CancelScheduled(ctx, uuid.New()), queue.ErrItemNotFound)
	})
}

func TestEngineSendBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("totals always add up", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		due := time.Now().Add(time.Hour)

		reqs := []notification.Request{
			paymentFailedRequest(),
			func() notification.Request {
				r := paymentFailedRequest()
				r.UserID = "U2"
				r.Recipient = "b@x.com"
				r.ScheduledAt = &due
				return r
			}(),
			func() notification.Request {
				r := paymentFailedRequest()
				r.Kind = notification.KindQuotaWarning // no template: fails
				return r
			}(),
		}

		batch := s.engine.SendBatch(ctx, reqs)

		assert.Equal(t, 1, batch.TotalSent)
		assert.Equal(t, 1, batch.TotalScheduled)
		assert.Equal(t, 1, batch.TotalFailed)
		assert.Len(t, batch.Results, 3)
		assert.Equal(t, len(reqs), batch.TotalSent+batch.TotalFailed+batch.TotalScheduled)
	})

	t.Run("per item failure never aborts the rest", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		bad := paymentFailedRequest()
		bad.Recipient = ""

		batch := s.engine.SendBatch(ctx, []notification.Request{
			bad,
			paymentFailedRequest(),
		})

		assert.Equal(t, 1, batch.TotalFailed)
		assert.Equal(t, 1, batch.TotalSent)
		assert.Len(t, s.transport.messages(), 1)
	})

	t.Run("group order preserves input order", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)

		var reqs []notification.Request
		recipients := []string{"a@x.com", "b@x.com", "c@x.com"}
		for _, r := range recipients {
			req := paymentFailedRequest()
			req.Recipient = r
			reqs = append(reqs, req)
		}

		batch := s.engine.SendBatch(ctx, reqs)
		require.Len(t, batch.Results, 3)

		// One group, so transport calls follow input order.
		sent := s.transport.messages()
		require.Len(t, sent, 3)
		for i, r := range recipients {
			assert.Equal(t, r, sent[i].To)
		}
	})
}

func TestEngineProcess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	enqueue := func(t *testing.T, s *stack, req notification.Request, due time.Time) queue.Item {
		t.Helper()
		item := queue.NewItem(req, templates.Key(req.Kind, req.Channel), due)
		require.NoError(t, s.queue.Enqueue(ctx, &item))
		claimed, err := s.queue.ClaimDue(ctx, 1, due)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		return claimed[0]
	}

	t.Run("claimed item flows through dispatch and logging", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		item := enqueue(t, s, paymentFailedRequest(), time.Now())

		require.NoError(t, s.engine.Process(ctx, item))

		sent := s.transport.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "Your payment of 9.99 failed", sent[0].BodyText)

		entries, err := s.logs.ListByUser(ctx, "U1", 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, delivlog.StatusSent, entries[0].Status)
	})

	t.Run("missing template is permanent", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		req := paymentFailedRequest()
		req.Kind = notification.KindQuotaWarning
		item := enqueue(t, s, req, time.Now())

		err := s.engine.Process(ctx, item)
		require.Error(t, err)
		assert.True(t, dispatch.IsPermanent(err))
		assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	})

	t.Run("transport failure stays retryable", func(t *testing.T) {
		t.Parallel()

		s := newStack(t)
		s.transport.err = errors.New("connection refused")
		item := enqueue(t, s, paymentFailedRequest(), time.Now())

		err := s.engine.Process(ctx, item)
		require.Error(t, err)
		assert.False(t, dispatch.IsPermanent(err))

		entries, err := s.logs.ListByUser(ctx, "U1", 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, delivlog.StatusFailed, entries[0].Status)
	})
}

// failingLogStorage drops every write to prove log failures never fail sends.
type failingLogStorage struct {
	delivlog.Storage
}

func (f *failingLogStorage) Create(ctx context.Context, entry *delivlog.Entry) error {
	return errors.New("log storage down")
}

func TestEngineLoggingIsFireAndForget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStack(t)

	recorder, err := delivlog.NewRecorder(&failingLogStorage{})
	require.NoError(t, err)

	// Rebuild the engine with a recorder whose storage always fails.
	prefStorage := preferences.NewMemoryStorage()
	resolver, err := preferences.NewResolver(prefStorage)
	require.NoError(t, err)

	eng, err := engine.New(resolver, s.renderer, s.registry, queue.NewMemoryStorage(), recorder,
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	result := eng.Send(ctx, paymentFailedRequest())

	assert.True(t, result.Success, "the transport already has the message")
	assert.Nil(t, result.NotificationID)
	assert.Len(t, s.transport.messages(), 1)
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	resolver, err := preferences.NewResolver(preferences.NewMemoryStorage())
	require.NoError(t, err)
	renderer := s.renderer
	registry := s.registry
	recorder, err := delivlog.NewRecorder(delivlog.NewMemoryStorage())
	require.NoError(t, err)
	qs := queue.NewMemoryStorage()

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"nil resolver", func() error {
			_, err := engine.New(nil, renderer, registry, qs, recorder)
			return err
		}, engine.ErrResolverNil},
		{"nil renderer", func() error {
			_, err := engine.New(resolver, nil, registry, qs, recorder)
			return err
		}, engine.ErrRendererNil},
		{"nil registry", func() error {
			_, err := engine.New(resolver, renderer, nil, qs, recorder)
			return err
		}, engine.ErrRegistryNil},
		{"nil queue", func() error {
			_, err := engine.New(resolver, renderer, registry, nil, recorder)
			return err
		}, engine.ErrQueueNil},
		{"nil recorder", func() error {
			_, err := engine.New(resolver, renderer, registry, qs, nil)
			return err
		}, engine.ErrRecorderNil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tc.run(), tc.want)
		})
	}
}
