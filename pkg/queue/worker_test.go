package queue_test

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

	"github.com/subtrackhq/notify/pkg/dispatch"
	"github.com/subtrackhq/notify/pkg/queue"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingProcessor struct {
	mu    sync.Mutex
	err   error
	items []queue.Item
}

func (p *recordingProcessor) Process(ctx context.Context, item queue.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, item)
	return p.err
}

func (p *recordingProcessor) processed() []queue.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.Item(nil), p.items...)
}

func newTestWorker(t *testing.T, s queue.Storage, p queue.Processor) *queue.Worker {
	t.Helper()
	w, err := queue.NewWorker(s, p,
		queue.WithPollInterval(10*time.Millisecond),
		queue.WithMaxConcurrent(4),
		queue.WithWorkerLogger(quietLogger()),
	)
	require.NoError(t, err)
	return w
}

func waitForStatus(t *testing.T, s queue.Storage, id uuid.UUID, want queue.Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		item, err := s.Get(context.Background(), id)
		return err == nil && item.Status == want
	}, 2*time.Second, 10*time.Millisecond, "item never reached %s", want)
}

func TestNewWorker(t *testing.T) {
	t.Parallel()

	processor := queue.ProcessorFunc(func(ctx context.Context, item queue.Item) error { return nil })

	_, err := queue.NewWorker(nil, processor)
	assert.ErrorIs(t, err, queue.ErrStorageNil)

	_, err = queue.NewWorker(queue.NewMemoryStorage(), nil)
	assert.ErrorIs(t, err, queue.ErrProcessorNil)
}

func TestWorkerProcessesDueItems(t *testing.T) {
	t.Parallel()

	s := queue.NewMemoryStorage()
	item := enqueue(t, s, time.Now().Add(-time.Minute))

	processor := &recordingProcessor{}
	w := newTestWorker(t, s, processor)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop() //nolint:errcheck

	waitForStatus(t, s, item.ID, queue.StatusSent)

	processed := processor.processed()
	require.Len(t, processed, 1)
	assert.Equal(t, item.ID, processed[0].ID)
	assert.Equal(t, queue.StatusProcessing, processed[0].Status, "processor sees the claimed item")
}

func TestWorkerSkipsFutureItems(t *testing.T) {
	t.Parallel()

	s := queue.NewMemoryStorage()
	item := enqueue(t, s, time.Now().Add(time.Hour))

	processor := &recordingProcessor{}
	w := newTestWorker(t, s, processor)

	require.NoError(t, w.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Empty(t, processor.processed())

	stored, err := s.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusPending, stored.Status)
}

func TestWorkerRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	s := queue.NewMemoryStorage()
	item := enqueue(t, s, time.Now().Add(-time.Minute))

	processor := &recordingProcessor{err: errors.New("smtp timeout")}
	w := newTestWorker(t, s, processor)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop() //nolint:errcheck

	// Without backoff the item is re-claimed every sweep until retries run out.
	waitForStatus(t, s, item.ID, queue.StatusFailed)

	stored, err := s.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.DefaultMaxRetries, stored.RetryCount)
	assert.Equal(t, "smtp timeout", stored.LastError)
	assert.GreaterOrEqual(t, len(processor.processed()), queue.DefaultMaxRetries)
}

func TestWorkerPermanentFailureSkipsRetries(t *testing.T) {
	t.Parallel()

	s := queue.NewMemoryStorage()
	item := enqueue(t, s, time.Now().Add(-time.Minute))

	processor := &recordingProcessor{err: dispatch.Permanent(errors.New("channel not implemented"))}
	w := newTestWorker(t, s, processor)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop() //nolint:errcheck

	waitForStatus(t, s, item.ID, queue.StatusFailed)

	stored, err := s.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.RetryCount)
	require.Len(t, processor.processed(), 1, "permanent failure must not be retried")
}

func TestWorkerPanicIsFailure(t *testing.T) {
	t.Parallel()

	s := queue.NewMemoryStorage()
	item := enqueue(t, s, time.Now().Add(-time.Minute))

	processor := queue.ProcessorFunc(func(ctx context.Context, item queue.Item) error {
		panic("template blew up")
	})
	w := newTestWorker(t, s, processor)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop() //nolint:errcheck

	waitForStatus(t, s, item.ID, queue.StatusFailed)

	stored, err := s.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.LastError, "panic")
}

func TestWorkerGracefulStop(t *testing.T) {
	t.Parallel()

	s := queue.NewMemoryStorage()
	item := enqueue(t, s, time.Now().Add(-time.Minute))

	started := make(chan struct{})
	release := make(chan struct{})
	processor := queue.ProcessorFunc(func(ctx context.Context, it queue.Item) error {
		close(started)
		<-release
		return nil
	})
	w := newTestWorker(t, s, processor)

	require.NoError(t, w.Start(context.Background()))
	<-started

	stopped := make(chan struct{})
	go func() {
		_ = w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while an item was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the in-flight item finished")
	}

	waitForStatus(t, s, item.ID, queue.StatusSent)
}

func TestWorkerReleasesClaimedItemsOnStop(t *testing.T) {
	t.Parallel()

	s := queue.NewMemoryStorage()
	first := enqueue(t, s, time.Now().Add(-2*time.Minute))
	second := enqueue(t, s, time.Now().Add(-time.Minute))

	started := make(chan struct{})
	release := make(chan struct{})
	processor := queue.ProcessorFunc(func(ctx context.Context, it queue.Item) error {
		close(started)
		<-release
		return nil
	})

	// One slot: the first item occupies it while the second sits claimed
	// in the same sweep, waiting for capacity.
	w, err := queue.NewWorker(s, processor,
		queue.WithPollInterval(10*time.Millisecond),
		queue.WithMaxConcurrent(1),
		queue.WithWorkerLogger(quietLogger()),
	)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	<-started

	stopped := make(chan struct{})
	go func() {
		_ = w.Stop()
		close(stopped)
	}()

	// The item that never got a slot is requeued as soon as the stop
	// cancels the sweep, while the first is still in flight.
	waitForStatus(t, s, second.ID, queue.StatusPending)

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	waitForStatus(t, s, first.ID, queue.StatusSent)

	// Requeued at the cost of one retry.
	stored, err := s.Get(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Contains(t, stored.LastError, "shut down")
}

func TestWorkerLifecycle(t *testing.T) {
	t.Parallel()

	s := queue.NewMemoryStorage()
	processor := &recordingProcessor{}
	w := newTestWorker(t, s, processor)

	assert.Error(t, w.Stop(), "stop before start")

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "double start")
	require.NoError(t, w.Stop())

	// Restartable after a clean stop.
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
}
