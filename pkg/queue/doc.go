// Package queue persists deferred and retryable notification work.
//
// An Item starts at pending and only moves forward: pending to processing
// via an atomic claim, processing to sent on success, processing back to
// pending with an incremented retry count while retries remain, processing
// to failed once they are exhausted or the failure is permanent, and
// pending to cancelled while still unclaimed. ClaimDue selects due items
// and flips them to processing in one step, so two workers never process
// the same item concurrently.
//
// The Worker polls ClaimDue on a ticker, bounds in-flight items with a
// semaphore, and drains them on Stop:
//
//	storage := queue.NewMemoryStorage(queue.WithBackoff(queue.LinearBackoff(30 * time.Second)))
//
//	worker, err := queue.NewWorker(storage, processor,
//		queue.WithPollInterval(2*time.Second),
//		queue.WithMaxConcurrent(8),
//	)
//	if err != nil {
//		return err
//	}
//
//	g.Go(worker.Run(ctx))
//
// Retried items are immediately eligible at the next sweep unless a Backoff
// is configured on the storage.
package queue
