package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/subtrackhq/notify/pkg/dispatch"
	"github.com/subtrackhq/notify/pkg/logger"
)

// Processor executes a claimed queue item. A nil return marks the item sent;
// an error marks it failed, with errors wrapped by dispatch.Permanent
// skipping the retry path entirely.
type Processor interface {
	Process(ctx context.Context, item Item) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, item Item) error

func (f ProcessorFunc) Process(ctx context.Context, item Item) error {
	return f(ctx, item)
}

// Worker periodically claims due queue items and hands them to the
// processor, bounding in-flight items with a semaphore.
type Worker struct {
	storage   Storage
	processor Processor
	workerID  uuid.UUID
	sem       chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	stopMu    sync.Mutex

	pollInterval   time.Duration
	claimBatchSize int
	processTimeout time.Duration
	log            *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// NewWorker creates a queue worker over the given storage and processor.
func NewWorker(storage Storage, processor Processor, opts ...WorkerOption) (*Worker, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if processor == nil {
		return nil, ErrProcessorNil
	}

	options := &workerOptions{
		pollInterval:   5 * time.Second,
		claimBatchSize: 10,
		maxConcurrent:  4,
		processTimeout: time.Minute,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		storage:        storage,
		processor:      processor,
		workerID:       uuid.New(),
		sem:            make(chan struct{}, options.maxConcurrent),
		pollInterval:   options.pollInterval,
		claimBatchSize: options.claimBatchSize,
		processTimeout: options.processTimeout,
		log:            options.log,
	}, nil
}

// Start begins claiming items in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return fmt.Errorf("queue worker already started")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.stopping.Store(false)
	go w.run()

	w.log.Info("queue worker started",
		logger.WorkerID(w.workerID.String()),
		slog.Int("max_concurrent", cap(w.sem)),
		slog.Duration("poll_interval", w.pollInterval))
	return nil
}

// Stop cancels the claim loop and waits for in-flight items to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return fmt.Errorf("queue worker not started")
	}

	w.stopMu.Lock()
	w.stopping.Store(true)
	w.stopMu.Unlock()

	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	w.log.Info("queue worker stopped", logger.WorkerID(w.workerID.String()))
	return nil
}

// Run returns a function suitable for errgroup: it starts the worker and
// stops it once ctx is cancelled.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep claims one batch of due items and fans them out to the semaphore.
func (w *Worker) sweep() {
	items, err := w.storage.ClaimDue(w.ctx, w.claimBatchSize, time.Now())
	if err != nil {
		if w.ctx.Err() == nil {
			w.log.Error("failed to claim due queue items",
				logger.WorkerID(w.workerID.String()), logger.Error(err))
		}
		return
	}

	for _, item := range items {
		select {
		case w.sem <- struct{}{}:
		case <-w.ctx.Done():
			// Release claimed but unprocessed items back to pending so the
			// next sweep picks them up. Costs one retry per item.
			if _, err := w.storage.MarkFailed(context.Background(), item.ID, "worker shut down before processing"); err != nil {
				w.log.Error("failed to release claimed item on shutdown",
					logger.QueueID(item.ID.String()), logger.Error(err))
			}
			continue
		}

		w.stopMu.Lock()
		if w.stopping.Load() {
			w.stopMu.Unlock()
			<-w.sem
			continue
		}
		w.wg.Add(1)
		w.stopMu.Unlock()

		go func(item Item) {
			defer w.wg.Done()
			defer func() { <-w.sem }()
			w.processItem(item)
		}(item)
	}
}

func (w *Worker) processItem(item Item) {
	start := time.Now()

	// Detached from the worker context so graceful shutdown lets in-flight
	// items finish.
	ctx, cancel := context.WithTimeout(context.Background(), w.processTimeout)
	defer cancel()

	err := w.safeProcess(ctx, item)
	duration := time.Since(start)

	if err == nil {
		if err := w.storage.MarkSent(ctx, item.ID); err != nil {
			w.log.Error("failed to mark queue item sent",
				logger.QueueID(item.ID.String()), logger.Error(err))
			return
		}
		w.log.Info("queue item sent",
			logger.QueueID(item.ID.String()),
			logger.UserID(item.UserID),
			logger.Channel(item.Channel),
			slog.Duration("duration", duration))
		return
	}

	if dispatch.IsPermanent(err) {
		if ferr := w.storage.FailPermanently(ctx, item.ID, err.Error()); ferr != nil {
			w.log.Error("failed to mark queue item permanently failed",
				logger.QueueID(item.ID.String()), logger.Error(ferr))
			return
		}
		w.log.Warn("queue item failed permanently",
			logger.QueueID(item.ID.String()),
			logger.Channel(item.Channel),
			logger.Error(err))
		return
	}

	retried, ferr := w.storage.MarkFailed(ctx, item.ID, err.Error())
	if ferr != nil {
		w.log.Error("failed to mark queue item failed",
			logger.QueueID(item.ID.String()), logger.Error(ferr))
		return
	}
	if retried {
		w.log.Warn("queue item failed, retry scheduled",
			logger.QueueID(item.ID.String()),
			slog.Int("retry_count", item.RetryCount+1),
			logger.Error(err))
	} else {
		w.log.Error("queue item exhausted retries",
			logger.QueueID(item.ID.String()),
			logger.Error(err))
	}
}

// safeProcess invokes the processor with panic recovery so one bad item
// cannot take down the worker.
func (w *Worker) safeProcess(ctx context.Context, item Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing queue item: %v", r)
		}
	}()
	return w.processor.Process(ctx, item)
}
