package retry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/cenkalti/backoff/v5"

	errs "github.com/c360/retrywrap/errors"
	"github.com/c360/retrywrap/metric"
)

// Option overrides one field of a Config
type Option func(*Config)

// WithRetries sets the number of retries after the first attempt
func WithRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithInitialDelay sets the pause before the first attempt
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) { c.InitialDelay = d }
}

// WithTimeout sets the delay before the first retry
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithFactor sets the multiplicative growth of the delay
func WithFactor(f float64) Option {
	return func(c *Config) { c.Factor = f }
}

// WithMaxDelay caps any single delay
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) { c.MaxDelay = d }
}

// WithJitter randomizes each delay by up to ±factor of its value
func WithJitter(factor float64) Option {
	return func(c *Config) { c.Jitter = factor }
}

// WithShouldRetry sets the retry predicate. A nil predicate retries everything.
func WithShouldRetry(p Predicate) Option {
	return func(c *Config) { c.ShouldRetry = p }
}

// WithErrors retries only failures matching one of targets (errors.Is).
// No targets means every failure is retryable.
func WithErrors(targets ...error) Option {
	p := OnErrors(targets...)
	return func(c *Config) { c.ShouldRetry = p }
}

// WithLog sets the observer that receives one message per retry taken
func WithLog(log func(msg string)) Option {
	return func(c *Config) { c.Log = log }
}

// WithLogger emits a structured record for each retry and each settled invocation
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithMetrics records attempts, retries and outcomes
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithName overrides the function name used in logs and metrics
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithBackOff replaces the exponential delay policy. newBackOff is called once
// per invocation so no state leaks between calls. Returning backoff.Stop ends
// the retries and surfaces the last failure.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Config) { c.BackOff = newBackOff }
}

// WithSleeper replaces the timer-based sleep
func WithSleeper(s Sleeper) Option {
	return func(c *Config) { c.Sleep = s }
}

// Retrier holds an immutable Config and wraps functions with it.
// A Retrier is safe for concurrent use.
type Retrier struct {
	cfg Config
}

// New builds a Retrier from DefaultConfig with opts applied in order
func New(opts ...Option) (*Retrier, error) {
	cfg, err := apply(DefaultConfig(), opts)
	if err != nil {
		return nil, configError("New", err)
	}
	return &Retrier{cfg: cfg}, nil
}

// MustNew is like New but panics on an invalid configuration
func MustNew(opts ...Option) *Retrier {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// NewFrom builds a Retrier from a dynamically typed options value: nil, Config,
// *Config, Option, []Option or an existing *Retrier. Any other function value
// is rejected; that is almost always the operation itself passed where the
// options belong.
func NewFrom(v any) (*Retrier, error) {
	switch o := v.(type) {
	case nil:
		return New()
	case *Retrier:
		if o == nil {
			return New()
		}
		return o, nil
	case Config:
		return fromConfig(o)
	case *Config:
		if o == nil {
			return New()
		}
		return fromConfig(*o)
	case Option:
		return New(o)
	case func(*Config):
		return New(o)
	case []Option:
		return New(o...)
	}

	if reflect.ValueOf(v).Kind() == reflect.Func {
		return nil, configError("NewFrom", fmt.Errorf(
			"%w: got function %T where retry options were expected; build a Retrier with New and wrap the function with it",
			errs.ErrInvalidConfig, v))
	}
	return nil, configError("NewFrom", fmt.Errorf("%w: unsupported options type %T", errs.ErrInvalidConfig, v))
}

func fromConfig(cfg Config) (*Retrier, error) {
	cfg, err := apply(cfg.inherit(), nil)
	if err != nil {
		return nil, configError("NewFrom", err)
	}
	return &Retrier{cfg: cfg}, nil
}

// With returns a new Retrier whose config is this one's with opts applied.
// The receiver is left unchanged.
func (r *Retrier) With(opts ...Option) (*Retrier, error) {
	cfg, err := apply(r.Config(), opts)
	if err != nil {
		return nil, configError("With", err)
	}
	return &Retrier{cfg: cfg}, nil
}

// Config returns a copy of the resolved configuration
func (r *Retrier) Config() Config {
	if r == nil {
		return DefaultConfig().withDefaults()
	}
	return r.cfg
}

// Do runs fn under the retrier's policy and blocks until it settles
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Execute(ctx, r.Config(), Invocation[struct{}, struct{}, struct{}]{
		Fn: func(ctx context.Context, _ struct{}, _ struct{}) (struct{}, error) {
			return struct{}{}, fn(ctx)
		},
		Name: funcName(fn),
	})
	return err
}

// resolve merges call-site overrides over the retrier's config
func (r *Retrier) resolve(method string, overrides []Option) (Config, error) {
	if len(overrides) == 0 {
		return r.Config(), nil
	}
	cfg, err := apply(r.Config(), overrides)
	if err != nil {
		return Config{}, configError(method, err)
	}
	return cfg, nil
}

func apply(cfg Config, opts []Option) (Config, error) {
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}
