package queue

import (
	"log/slog"
	"time"
)

// WorkerOption is a functional option for configuring a worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pollInterval   time.Duration
	claimBatchSize int
	maxConcurrent  int
	processTimeout time.Duration
	log            *slog.Logger
}

// WithPollInterval sets how often the worker sweeps for due items.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithClaimBatchSize sets how many items one sweep claims at most.
func WithClaimBatchSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.claimBatchSize = n
		}
	}
}

// WithMaxConcurrent sets the maximum number of items processed in parallel.
func WithMaxConcurrent(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithProcessTimeout bounds how long a single item may take to process.
func WithProcessTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.processTimeout = d
		}
	}
}

// WithWorkerLogger sets the logger for the worker.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if log != nil {
			o.log = log
		}
	}
}
