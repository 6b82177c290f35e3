package retry

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/c360/retrywrap/metric"
)

// Invocation binds a function to the receiver and arguments it is called
// with. The same receiver and arguments are passed on every attempt.
type Invocation[R, A, T any] struct {
	Fn       func(ctx context.Context, recv R, args A) (T, error)
	Receiver R
	Args     A
	Name     string
}

// call runs one attempt. A panic becomes a *PanicError so it takes the same
// path as a returned error.
func (inv Invocation[R, A, T]) call(ctx context.Context) (result T, err error) {
	defer func() {
		if v := recover(); v != nil {
			var zero T
			result = zero
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return inv.Fn(ctx, inv.Receiver, inv.Args)
}

// PanicError is returned in place of a panic raised by the wrapped function
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// CancelledError is returned when ctx ends during the initial delay or a
// backoff wait. Attempts already made are not interrupted.
type CancelledError struct {
	Attempts int   // attempts completed before cancellation
	Last     error // failure that scheduled the interrupted wait; nil before the first attempt
	Cause    error // ctx.Err()
}

func (e *CancelledError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("retry cancelled before first attempt: %v", e.Cause)
	}
	return fmt.Sprintf("retry cancelled during backoff after %d attempts: %v (last error: %v)",
		e.Attempts, e.Cause, e.Last)
}

func (e *CancelledError) Unwrap() []error {
	if e.Last == nil {
		return []error{e.Cause}
	}
	return []error{e.Cause, e.Last}
}

// Execute runs inv under cfg until it succeeds, the retry budget is spent, or
// cfg.ShouldRetry rejects a failure. Terminal failures are returned exactly as
// the function produced them.
func Execute[R, A, T any](ctx context.Context, cfg Config, inv Invocation[R, A, T]) (T, error) {
	var zero T

	cfg = cfg.withDefaults()
	st := newAttemptState(cfg, displayName(cfg.Name, inv.Name))

	if cfg.InitialDelay > 0 {
		if err := cfg.Sleep(ctx, cfg.InitialDelay); err != nil {
			return zero, st.cancelled(nil, err)
		}
	}

	for {
		st.attempted()
		result, err := inv.call(ctx)
		if err == nil {
			st.settle(metric.OutcomeSuccess, nil)
			return result, nil
		}

		if st.retries >= cfg.MaxRetries {
			st.settle(metric.OutcomeExhausted, err)
			return zero, err
		}
		if !cfg.ShouldRetry(err) {
			st.settle(metric.OutcomeRejected, err)
			return zero, err
		}

		delay := st.policy.NextBackOff()
		if delay == backoff.Stop {
			st.settle(metric.OutcomeExhausted, err)
			return zero, err
		}

		st.retrying(delay, err)
		if serr := cfg.Sleep(ctx, delay); serr != nil {
			return zero, st.cancelled(err, serr)
		}
		st.retries++
	}
}

// attemptState is created per invocation and never shared
type attemptState struct {
	cfg      Config
	name     string
	id       string
	policy   backoff.BackOff
	retries  int
	attempts int
	started  time.Time
}

func newAttemptState(cfg Config, name string) *attemptState {
	st := &attemptState{
		cfg:     cfg,
		name:    name,
		id:      uuid.NewString(),
		policy:  cfg.newBackOff(),
		started: time.Now(),
	}
	if cfg.Metrics != nil {
		cfg.Metrics.RecordStarted(name)
	}
	return st
}

func (st *attemptState) attempted() {
	st.attempts++
	if st.cfg.Metrics != nil {
		st.cfg.Metrics.RecordAttempt(st.name)
	}
}

func (st *attemptState) retrying(delay time.Duration, err error) {
	st.cfg.Log(RetryMessage(st.name, delay, st.retries+1))

	if st.cfg.Logger != nil {
		st.cfg.Logger.Info("retrying function",
			"function", st.name,
			"delay", delay,
			"attempt", st.retries+1,
			"invocation_id", st.id,
			"error", err)
	}
	if st.cfg.Metrics != nil {
		st.cfg.Metrics.RecordRetry(st.name, delay)
	}
}

func (st *attemptState) settle(outcome string, err error) {
	if st.cfg.Logger != nil {
		st.cfg.Logger.Debug("retry settled",
			"function", st.name,
			"outcome", outcome,
			"attempts", st.attempts,
			"invocation_id", st.id,
			"error", err)
	}
	if st.cfg.Metrics != nil {
		st.cfg.Metrics.RecordOutcome(st.name, outcome, time.Since(st.started))
	}
}

func (st *attemptState) cancelled(last, cause error) error {
	st.settle(metric.OutcomeCancelled, cause)
	return &CancelledError{Attempts: st.attempts, Last: last, Cause: cause}
}

// RetryMessage formats the message passed to the Log observer, e.g.
// "retrying function fetch in 7.5 ms : attempts: 2".
func RetryMessage(name string, delay time.Duration, attempt int) string {
	ms := strconv.FormatFloat(float64(delay)/float64(time.Millisecond), 'f', -1, 64)
	return fmt.Sprintf("retrying function %s in %s ms : attempts: %d", name, ms, attempt)
}
