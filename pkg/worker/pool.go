// Package worker provides a generic worker pool whose jobs run under a retry policy
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/retrywrap/metric"
	"github.com/c360/retrywrap/pkg/retry"
)

// Result reports how one submitted job settled
type Result[T any] struct {
	Job      T
	Err      error
	Duration time.Duration
}

// Pool processes jobs of type T on a fixed set of workers. When a Retrier is
// configured each job is executed through it, so a worker stays busy with a
// job until its retries settle.
type Pool[T any] struct {
	workers   int
	queueSize int
	process   func(context.Context, T) error

	retrier  *retry.Retrier
	name     string
	logger   *slog.Logger
	onResult func(Result[T])

	queue   chan T
	metrics *poolMetrics
	wg      *sync.WaitGroup

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool

	submitted int64
	succeeded int64
	failed    int64
	dropped   int64

	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
}

type poolMetrics struct {
	queueDepth  prometheus.Gauge
	busyWorkers prometheus.Gauge
	submitted   prometheus.Counter
	dropped     prometheus.Counter
	jobs        *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// Option configures a Pool
type Option[T any] func(*Pool[T])

// WithMetricsRegistry registers the pool's metrics under prefix
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// WithRetrier runs every job through r. name labels the retry log lines and
// metrics unless r already carries a name.
func WithRetrier[T any](r *retry.Retrier, name string) Option[T] {
	return func(p *Pool[T]) {
		p.retrier = r
		p.name = name
	}
}

// WithLogger logs each failed job
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(p *Pool[T]) { p.logger = logger }
}

// WithResultHandler is called from the worker goroutine once per settled job
func WithResultHandler[T any](fn func(Result[T])) Option[T] {
	return func(p *Pool[T]) { p.onResult = fn }
}

// NewPool creates a pool. Non-positive sizes fall back to 10 workers and a
// queue of 1000.
func NewPool[T any](workers, queueSize int, processor func(context.Context, T) error, opts ...Option[T]) *Pool[T] {
	if workers <= 0 {
		workers = 10
	}
	if queueSize <= 0 {
		queueSize = 1000
	}
	if processor == nil {
		panic(ErrNilProcessor)
	}

	p := &Pool[T]{
		workers:   workers,
		queueSize: queueSize,
		process:   processor,
		queue:     make(chan T, queueSize),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.retrier != nil {
		p.process = p.retrying(processor)
	}
	if p.metricsRegistry != nil && p.metricsPrefix != "" {
		p.initializeMetrics()
	}
	return p
}

// retrying turns processor into one that blocks until the retrier settles
func (p *Pool[T]) retrying(processor func(context.Context, T) error) func(context.Context, T) error {
	cfg := p.retrier.Config()
	call := func(ctx context.Context, _ struct{}, job T) (struct{}, error) {
		return struct{}{}, processor(ctx, job)
	}
	return func(ctx context.Context, job T) error {
		_, err := retry.Execute(ctx, cfg, retry.Invocation[struct{}, T, struct{}]{
			Fn:   call,
			Args: job,
			Name: p.name,
		})
		return err
	}
}

func (p *Pool[T]) initializeMetrics() {
	prefix := p.metricsPrefix
	m := &poolMetrics{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_queue_depth",
			Help: "Jobs waiting for a worker",
		}),
		busyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_busy_workers",
			Help: "Workers currently executing a job, including its backoff waits",
		}),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_submitted_total",
			Help: "Jobs accepted into the queue",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_dropped_total",
			Help: "Jobs rejected because the queue was full",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_jobs_total",
			Help: "Settled jobs by status",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_job_duration_seconds",
			Help:    "Time from job start to settlement, including retries",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"status"}),
	}

	const service = "worker_pool"
	register := []struct {
		name string
		err  error
	}{
		{"queue_depth", p.metricsRegistry.RegisterGauge(service, prefix+"_queue_depth", m.queueDepth)},
		{"busy_workers", p.metricsRegistry.RegisterGauge(service, prefix+"_busy_workers", m.busyWorkers)},
		{"submitted_total", p.metricsRegistry.RegisterCounter(service, prefix+"_submitted_total", m.submitted)},
		{"dropped_total", p.metricsRegistry.RegisterCounter(service, prefix+"_dropped_total", m.dropped)},
		{"jobs_total", p.metricsRegistry.RegisterCounterVec(service, prefix+"_jobs_total", m.jobs)},
		{"job_duration_seconds", p.metricsRegistry.RegisterHistogramVec(service, prefix+"_job_duration_seconds", m.jobDuration)},
	}
	for _, r := range register {
		if r.err != nil && p.logger != nil {
			p.logger.Warn("worker pool metric not registered", "metric", prefix+"_"+r.name, "error", r.err)
		}
	}

	p.metrics = m
}

// Submit queues a job without blocking. It returns ErrQueueFull when the
// queue is at capacity.
func (p *Pool[T]) Submit(job T) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if err := p.acceptingLocked(); err != nil {
		return err
	}

	select {
	case p.queue <- job:
		p.accepted()
		return nil
	default:
		atomic.AddInt64(&p.dropped, 1)
		if p.metrics != nil {
			p.metrics.dropped.Inc()
		}
		return ErrQueueFull
	}
}

// SubmitWait queues a job, waiting for space until ctx ends. Stop waits for a
// pending SubmitWait to return.
func (p *Pool[T]) SubmitWait(ctx context.Context, job T) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if err := p.acceptingLocked(); err != nil {
		return err
	}

	select {
	case p.queue <- job:
		p.accepted()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool[T]) acceptingLocked() error {
	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopped {
		return ErrPoolStopped
	}
	return nil
}

func (p *Pool[T]) accepted() {
	atomic.AddInt64(&p.submitted, 1)
	if p.metrics != nil {
		p.metrics.submitted.Inc()
		p.metrics.queueDepth.Set(float64(len(p.queue)))
	}
}

// Start launches the workers. ctx is handed to every job.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	p.wg = &sync.WaitGroup{}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	p.started = true
	return nil
}

// Stop closes the queue and waits up to timeout for queued jobs to settle
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started || p.stopped {
		return nil
	}
	close(p.queue)
	p.stopped = true

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// Stats returns a snapshot of the pool counters
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueSize:  p.queueSize,
		QueueDepth: len(p.queue),
		Submitted:  atomic.LoadInt64(&p.submitted),
		Succeeded:  atomic.LoadInt64(&p.succeeded),
		Failed:     atomic.LoadInt64(&p.failed),
		Dropped:    atomic.LoadInt64(&p.dropped),
	}
}

// PoolStats is a point-in-time view of a pool
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Succeeded  int64 `json:"succeeded"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
}

func (p *Pool[T]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(ctx, job)
		}
	}
}

func (p *Pool[T]) run(ctx context.Context, job T) {
	if p.metrics != nil {
		p.metrics.busyWorkers.Inc()
		p.metrics.queueDepth.Set(float64(len(p.queue)))
		defer p.metrics.busyWorkers.Dec()
	}

	start := time.Now()
	err := p.process(ctx, job)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		atomic.AddInt64(&p.failed, 1)
		if p.logger != nil {
			p.logger.Warn("job failed", "pool", p.metricsPrefix, "duration", duration, "error", err)
		}
	} else {
		atomic.AddInt64(&p.succeeded, 1)
	}

	if p.metrics != nil {
		p.metrics.jobs.WithLabelValues(status).Inc()
		p.metrics.jobDuration.WithLabelValues(status).Observe(duration.Seconds())
	}
	if p.onResult != nil {
		p.onResult(Result[T]{Job: job, Err: err, Duration: duration})
	}
}
