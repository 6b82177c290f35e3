// Package worker provides a generic, thread-safe worker pool whose jobs can run
// under a retry policy.
//
// # Overview
//
// A Pool runs a fixed number of goroutines that take jobs from a bounded
// queue. With WithRetrier each job is executed through a retry.Retrier, so a
// failed job is retried with exponential backoff on the same worker before the
// pool records its result:
//
//	r, _ := retry.New(retry.WithRetries(3), retry.WithTimeout(100*time.Millisecond))
//
//	pool := worker.NewPool(4, 100,
//	    func(ctx context.Context, cmd Command) error {
//	        return cmd.Run(ctx)
//	    },
//	    worker.WithRetrier[Command](r, "command"),
//	    worker.WithResultHandler(func(res worker.Result[Command]) {
//	        report(res.Job, res.Err)
//	    }),
//	)
//
// # Submitting Work
//
// Submit never blocks: when the queue is at capacity it returns ErrQueueFull,
// which classifies as transient, so callers can wrap Submit itself in a
// retrier. SubmitWait blocks until space frees up or its context ends.
//
// # Lifecycle
//
//	if err := pool.Start(ctx); err != nil { ... }
//	defer pool.Stop(30 * time.Second)
//
// The ctx passed to Start reaches every job and every retry wait. Cancelling it
// makes workers exit after their current job; Stop instead closes the queue and
// waits for queued jobs to settle, returning ErrStopTimeout if they do not
// finish in time.
//
// # Observability
//
// Stats are always tracked with atomic counters. WithMetricsRegistry adds
// Prometheus metrics (queue depth, busy workers, submitted, dropped, settled
// jobs by status and job duration) under the given prefix. Retry-level metrics
// come from the Retrier's own retry.WithMetrics option.
package worker
