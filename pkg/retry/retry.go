// Package retry provides exponential backoff retry logic for wrapped functions
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	errs "github.com/c360/retrywrap/errors"
	"github.com/c360/retrywrap/metric"
)

// Sleeper suspends for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// NonRetryableError wraps errors that should not be retried
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable wraps an error to indicate it should not be retried.
// Combine with Not(IsNonRetryable) to honour the marker.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable checks if an error is marked as non-retryable
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Config is the resolved, immutable retry configuration of a Retrier.
type Config struct {
	MaxRetries   int           // Additional attempts after the first (0 = run once)
	InitialDelay time.Duration // Pause before the very first attempt
	Timeout      time.Duration // Delay before the first retry
	Factor       float64       // Growth of the delay per retry
	MaxDelay     time.Duration // Cap on a single delay (0 = uncapped)
	Jitter       float64       // Randomization factor in [0, 1) (0 = exact delays)

	ShouldRetry Predicate    // Decides whether a failure may be retried
	Log         func(string) // Receives one message per retry taken
	Logger      *slog.Logger // Optional structured sink
	Metrics     *metric.Metrics
	Name        string // Overrides the derived function name in logs and metrics

	BackOff func() backoff.BackOff // Replaces the exponential policy; called once per invocation
	Sleep   Sleeper
}

// DefaultConfig returns the defaults every Retrier starts from
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 0,
		Timeout:      300 * time.Millisecond,
		Factor:       2.0,
		ShouldRetry:  Always,
	}
}

// Quick returns a config for fast retries (useful during startup)
func Quick() Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = 9
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxDelay = 1 * time.Second
	cfg.Factor = 1.5
	cfg.Jitter = 0.25
	return cfg
}

// Persistent returns a config for long-running retries (useful for critical resources)
func Persistent() Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = 29
	cfg.Timeout = 200 * time.Millisecond
	cfg.MaxDelay = 10 * time.Second
	cfg.Jitter = 0.25
	return cfg
}

// Validate reports every invalid field at once
func (c Config) Validate() error {
	var problems []string

	if c.MaxRetries < 0 {
		problems = append(problems, "retries cannot be negative")
	}
	if c.InitialDelay < 0 {
		problems = append(problems, "initial delay cannot be negative")
	}
	if c.Timeout < 0 {
		problems = append(problems, "timeout cannot be negative")
	}
	if !(c.Factor > 0) || math.IsInf(c.Factor, 0) {
		problems = append(problems, fmt.Sprintf("factor must be a positive finite number, got %v", c.Factor))
	}
	if c.MaxDelay < 0 {
		problems = append(problems, "max delay cannot be negative")
	}
	if c.MaxDelay > 0 && c.MaxDelay < c.Timeout {
		problems = append(problems, "max delay must be >= timeout")
	}
	if c.Jitter < 0 || c.Jitter >= 1 {
		problems = append(problems, fmt.Sprintf("jitter must be in [0, 1), got %v", c.Jitter))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", errs.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// inherit fills the backoff fields of a partial Config literal from
// DefaultConfig. A zero Factor is never valid, so it marks a literal that did
// not start from DefaultConfig; only then is a zero Timeout replaced too.
func (c Config) inherit() Config {
	if c.Factor != 0 {
		return c
	}
	def := DefaultConfig()
	c.Factor = def.Factor
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	return c
}

func (c Config) withDefaults() Config {
	if c.ShouldRetry == nil {
		c.ShouldRetry = Always
	}
	if c.Log == nil {
		c.Log = func(string) {}
	}
	if c.Sleep == nil {
		c.Sleep = sleepContext
	}
	return c
}

func (c Config) newBackOff() backoff.BackOff {
	if c.BackOff != nil {
		b := c.BackOff()
		b.Reset()
		return b
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.Timeout
	b.Multiplier = c.Factor
	b.RandomizationFactor = c.Jitter
	b.MaxInterval = time.Duration(math.MaxInt64)
	if c.MaxDelay > 0 {
		b.MaxInterval = c.MaxDelay
	}
	b.Reset()
	return b
}

// configError classifies a construction-time failure as invalid
func configError(method string, err error) error {
	return errs.WrapInvalid(err, "retry", method, "validate options")
}

// sleepContext waits for d with context cancellation support
func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes fn with exponential backoff retry
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	_, err := DoWithResult(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithResult executes fn with retry and returns both result and error.
// Zero Factor and Timeout in cfg take their DefaultConfig values.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.inherit()
	if err := cfg.Validate(); err != nil {
		var zero T
		return zero, configError("Do", err)
	}
	return Execute(ctx, cfg, Invocation[struct{}, struct{}, T]{
		Fn: func(ctx context.Context, _ struct{}, _ struct{}) (T, error) {
			return fn(ctx)
		},
		Name: funcName(fn),
	})
}
