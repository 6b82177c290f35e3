package retry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/c360/retrywrap/errors"
	"github.com/c360/retrywrap/metric"
)

// sleepRecorder replaces the timer so delays can be asserted exactly
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type logRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (l *logRecorder) log(msg string) {
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
}

func (l *logRecorder) recorded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

// flakyAdder fails a fixed number of times before adding its arguments
type flakyAdder struct {
	failures int
	calls    int
	seen     []*flakyAdder
	args     [][3]int
}

func (f *flakyAdder) sum(_ context.Context, args [3]int) (int, error) {
	f.calls++
	f.seen = append(f.seen, f)
	f.args = append(f.args, args)
	if f.calls <= f.failures {
		return 0, fmt.Errorf("not yet (call %d)", f.calls)
	}
	return args[0] + args[1] + args[2], nil
}

func TestWrapMethod_EventuallySucceeds(t *testing.T) {
	sleeps := &sleepRecorder{}
	logs := &logRecorder{}
	r, err := New(
		WithRetries(2),
		WithTimeout(5*time.Millisecond),
		WithFactor(1.5),
		WithLog(logs.log),
		WithSleeper(sleeps.sleep),
	)
	require.NoError(t, err)

	sum, err := WrapMethod(r, (*flakyAdder).sum)
	require.NoError(t, err)

	adder := &flakyAdder{failures: 2}
	result, err := sum(adder, context.Background(), [3]int{1, 2, 3}).Get()

	require.NoError(t, err)
	assert.Equal(t, 6, result)
	assert.Equal(t, 3, adder.calls)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 7500 * time.Microsecond}, sleeps.recorded())
	assert.Equal(t, []string{
		"retrying function flakyAdder.sum in 5 ms : attempts: 1",
		"retrying function flakyAdder.sum in 7.5 ms : attempts: 2",
	}, logs.recorded())

	// Same receiver and arguments on every attempt
	for i := range adder.seen {
		assert.Same(t, adder, adder.seen[i])
		assert.Equal(t, [3]int{1, 2, 3}, adder.args[i])
	}
}

func TestWrap_FinalFailureSurfacedVerbatim(t *testing.T) {
	r, err := New(WithRetries(2), WithSleeper((&sleepRecorder{}).sleep))
	require.NoError(t, err)

	var calls int
	var last error
	fail, err := Wrap(r, func(_ context.Context, _ struct{}) (string, error) {
		calls++
		last = errors.New("Fail!")
		return "", last
	})
	require.NoError(t, err)

	_, err = fail(context.Background(), struct{}{}).Get()

	require.Error(t, err)
	assert.Equal(t, "Fail!", err.Error())
	assert.Same(t, last, err)
	assert.Equal(t, 3, calls)
}

func TestNewFrom_RejectsFunction(t *testing.T) {
	var calls int
	op := func(_ context.Context, n int) (int, error) {
		calls++
		return n, nil
	}

	r, err := NewFrom(op)

	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
	assert.True(t, errs.IsInvalid(err))
	assert.Contains(t, err.Error(), "where retry options were expected")
	assert.Zero(t, calls)
}

func TestExecute_AttemptsEqualRetriesPlusOne(t *testing.T) {
	for retries := 0; retries <= 4; retries++ {
		t.Run(fmt.Sprintf("retries_%d", retries), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MaxRetries = retries
			cfg.Sleep = (&sleepRecorder{}).sleep

			calls := 0
			_, err := Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
				Fn: func(context.Context, struct{}, struct{}) (int, error) {
					calls++
					return 0, fmt.Errorf("attempt %d", calls)
				},
			})

			require.Error(t, err)
			assert.Equal(t, retries+1, calls)
			assert.Equal(t, fmt.Sprintf("attempt %d", retries+1), err.Error())
		})
	}
}

func TestExecute_ZeroRetriesRunsOnce(t *testing.T) {
	for _, fail := range []bool{true, false} {
		sleeps := &sleepRecorder{}
		logs := &logRecorder{}
		cfg := DefaultConfig()
		cfg.MaxRetries = 0
		cfg.Sleep = sleeps.sleep
		cfg.Log = logs.log

		calls := 0
		_, err := Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
			Fn: func(context.Context, struct{}, struct{}) (int, error) {
				calls++
				if fail {
					return 0, errors.New("boom")
				}
				return 1, nil
			},
		})

		assert.Equal(t, fail, err != nil)
		assert.Equal(t, 1, calls)
		assert.Empty(t, sleeps.recorded())
		assert.Empty(t, logs.recorded())
	}
}

func TestExecute_DelaysGrowGeometrically(t *testing.T) {
	sleeps := &sleepRecorder{}
	cfg := DefaultConfig()
	cfg.MaxRetries = 4
	cfg.Timeout = 10 * time.Millisecond
	cfg.Factor = 3
	cfg.Sleep = sleeps.sleep

	_, _ = Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			return 0, errors.New("down")
		},
	})

	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		30 * time.Millisecond,
		90 * time.Millisecond,
		270 * time.Millisecond,
	}, sleeps.recorded())
}

func TestExecute_MaxDelayCapsBackoff(t *testing.T) {
	sleeps := &sleepRecorder{}
	cfg := DefaultConfig()
	cfg.MaxRetries = 3
	cfg.Timeout = 10 * time.Millisecond
	cfg.Factor = 10
	cfg.MaxDelay = 25 * time.Millisecond
	cfg.Sleep = sleeps.sleep

	_, _ = Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			return 0, errors.New("down")
		},
	})

	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		25 * time.Millisecond,
		25 * time.Millisecond,
	}, sleeps.recorded())
}

func TestExecute_JitterStaysInRange(t *testing.T) {
	sleeps := &sleepRecorder{}
	cfg := DefaultConfig()
	cfg.MaxRetries = 50
	cfg.Timeout = 100 * time.Millisecond
	cfg.Factor = 1
	cfg.Jitter = 0.2
	cfg.Sleep = sleeps.sleep

	_, _ = Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			return 0, errors.New("down")
		},
	})

	delays := sleeps.recorded()
	require.Len(t, delays, 50)
	distinct := map[time.Duration]bool{}
	for _, d := range delays {
		distinct[d] = true
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
	assert.Greater(t, len(distinct), 1, "jitter should vary the delays")
}

func TestExecute_PredicateRejectionStopsImmediately(t *testing.T) {
	errPermanent := errors.New("permanent")
	logs := &logRecorder{}
	cfg := DefaultConfig()
	cfg.MaxRetries = 10
	cfg.ShouldRetry = Not(OnErrors(errPermanent))
	cfg.Sleep = (&sleepRecorder{}).sleep
	cfg.Log = logs.log

	calls := 0
	_, err := Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			calls++
			if calls == 2 {
				return 0, errPermanent
			}
			return 0, errors.New("transient")
		},
	})

	assert.Same(t, errPermanent, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, logs.recorded(), 1)
}

func TestExecute_PredicateCheckedOnEveryFailure(t *testing.T) {
	var checked []error
	cfg := DefaultConfig()
	cfg.MaxRetries = 3
	cfg.Sleep = (&sleepRecorder{}).sleep
	cfg.ShouldRetry = func(err error) bool {
		checked = append(checked, err)
		return true
	}

	calls := 0
	_, _ = Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			calls++
			return 0, fmt.Errorf("failure %d", calls)
		},
	})

	// The final failure is terminal on budget alone
	assert.Len(t, checked, 3)
}

func TestExecute_InitialDelay(t *testing.T) {
	r, err := New(WithRetries(0), WithInitialDelay(80*time.Millisecond))
	require.NoError(t, err)

	var called atomic.Bool
	op, err := Wrap(r, func(context.Context, struct{}) (bool, error) {
		called.Store(true)
		return true, nil
	})
	require.NoError(t, err)

	future := op(context.Background(), struct{}{})

	time.Sleep(40 * time.Millisecond)
	assert.False(t, called.Load(), "no attempt before the initial delay elapsed")

	select {
	case <-future.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("call did not settle")
	}
	assert.True(t, called.Load())
}

func TestExecute_SucceedsOnKthAttempt(t *testing.T) {
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("k_%d", k), func(t *testing.T) {
			logs := &logRecorder{}
			cfg := DefaultConfig()
			cfg.MaxRetries = 3
			cfg.Sleep = (&sleepRecorder{}).sleep
			cfg.Log = logs.log

			calls := 0
			result, err := Execute(context.Background(), cfg, Invocation[struct{}, int, int]{
				Args: k,
				Fn: func(_ context.Context, _ struct{}, k int) (int, error) {
					calls++
					if calls < k {
						return 0, errors.New("not yet")
					}
					return calls * 10, nil
				},
			})

			require.NoError(t, err)
			assert.Equal(t, k*10, result)
			assert.Len(t, logs.recorded(), k-1)
		})
	}
}

func TestExecute_PanicBecomesFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sleep = (&sleepRecorder{}).sleep

	calls := 0
	result, err := Execute(context.Background(), cfg, Invocation[struct{}, struct{}, string]{
		Fn: func(context.Context, struct{}, struct{}) (string, error) {
			calls++
			if calls == 1 {
				panic("first attempt explodes")
			}
			return "recovered", nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)

	cfg.ShouldRetry = Never
	_, err = Execute(context.Background(), cfg, Invocation[struct{}, struct{}, string]{
		Fn: func(context.Context, struct{}, struct{}) (string, error) {
			panic(errors.New("wrapped cause"))
		},
	})

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "panic: wrapped cause", pe.Error())
	assert.NotEmpty(t, pe.Stack)
	assert.EqualError(t, errors.Unwrap(err), "wrapped cause")
}

func TestExecute_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultConfig()
	cfg.MaxRetries = 5
	cfg.Timeout = time.Second

	errDown := errors.New("down")
	calls := 0
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Execute(ctx, cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			calls++
			return 0, errDown
		},
	})

	var ce *CancelledError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, 1, ce.Attempts)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestExecute_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.InitialDelay = time.Second

	calls := 0
	_, err := Execute(ctx, cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			calls++
			return 0, nil
		},
	})

	var ce *CancelledError
	require.ErrorAs(t, err, &ce)
	assert.Nil(t, ce.Last)
	assert.Zero(t, calls)
	assert.Contains(t, err.Error(), "before first attempt")
}

func TestExecute_CustomBackOffStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackOff = func() backoff.BackOff { return &backoff.StopBackOff{} }

	calls := 0
	_, err := Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			calls++
			return 0, errors.New("down")
		},
	})

	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, calls)
}

func TestExecute_CustomConstantBackOff(t *testing.T) {
	sleeps := &sleepRecorder{}
	cfg := DefaultConfig()
	cfg.MaxRetries = 3
	cfg.Sleep = sleeps.sleep
	cfg.BackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(7 * time.Millisecond) }

	_, _ = Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			return 0, errors.New("down")
		},
	})

	assert.Equal(t, []time.Duration{7 * time.Millisecond, 7 * time.Millisecond, 7 * time.Millisecond}, sleeps.recorded())
}

func TestWrap_ConcurrentCallsAreIndependent(t *testing.T) {
	logs := &logRecorder{}
	r, err := New(
		WithRetries(3),
		WithTimeout(time.Millisecond),
		WithLog(logs.log),
	)
	require.NoError(t, err)

	var attempts sync.Map
	op, err := Wrap(r, func(_ context.Context, id int) (int, error) {
		v, _ := attempts.LoadOrStore(id, new(int32))
		n := atomic.AddInt32(v.(*int32), 1)
		if n == 1 {
			return 0, errors.New("cold start")
		}
		return id * 2, nil
	})
	require.NoError(t, err)

	const calls = 20
	futures := make([]*Future[int], calls)
	for i := range futures {
		futures[i] = op(context.Background(), i)
	}

	for i, f := range futures {
		v, err := f.Get()
		require.NoError(t, err)
		assert.Equal(t, i*2, v)

		n, _ := attempts.Load(i)
		assert.Equal(t, int32(2), atomic.LoadInt32(n.(*int32)), "call %d should take exactly two attempts", i)
	}
	assert.Len(t, logs.recorded(), calls)
	for _, msg := range logs.recorded() {
		assert.Equal(t, "retrying function anonymous in 1 ms : attempts: 1", msg)
	}
}

func TestWrapAsync_WaitsForEachFuture(t *testing.T) {
	r, err := New(WithRetries(2), WithSleeper((&sleepRecorder{}).sleep))
	require.NoError(t, err)

	var calls atomic.Int32
	op, err := WrapAsync(r, func(ctx context.Context, word string) *Future[string] {
		return Go(ctx, func(context.Context) (string, error) {
			if calls.Add(1) < 3 {
				return "", errors.New("still warming up")
			}
			return word + "!", nil
		})
	})
	require.NoError(t, err)

	v, err := op(context.Background(), "ready").Get()
	require.NoError(t, err)
	assert.Equal(t, "ready!", v)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWrapAsync_NilFutureIsAFailure(t *testing.T) {
	r, err := New(WithRetries(1), WithSleeper((&sleepRecorder{}).sleep))
	require.NoError(t, err)

	op, err := WrapAsync(r, func(context.Context, int) *Future[int] { return nil })
	require.NoError(t, err)

	_, err = op(context.Background(), 1).Get()
	assert.EqualError(t, err, "retry: async function returned a nil future")
}

func TestWrap_OverridesShadowDefaults(t *testing.T) {
	r, err := New(WithRetries(5), WithSleeper((&sleepRecorder{}).sleep))
	require.NoError(t, err)

	calls := 0
	op, err := Wrap(r, func(context.Context, struct{}) (int, error) {
		calls++
		return 0, errors.New("down")
	}, WithRetries(1))
	require.NoError(t, err)

	_, _ = op(context.Background(), struct{}{}).Get()
	assert.Equal(t, 2, calls)
	assert.Equal(t, 5, r.Config().MaxRetries, "overrides must not leak into the retrier")
}

func TestWrap_InvalidOverride(t *testing.T) {
	r := MustNew()
	op, err := Wrap(r, func(context.Context, int) (int, error) { return 0, nil }, WithFactor(0))
	assert.Nil(t, op)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestWrap_NilFunction(t *testing.T) {
	_, err := Wrap[int, int](MustNew(), nil)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = WrapMethod[*flakyAdder, [3]int, int](MustNew(), nil)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = WrapAsync[int, int](MustNew(), nil)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestWrap_NilRetrierUsesDefaults(t *testing.T) {
	sleeps := &sleepRecorder{}
	op, err := Wrap(nil, func(context.Context, struct{}) (int, error) {
		return 0, errors.New("down")
	}, WithSleeper(sleeps.sleep))
	require.NoError(t, err)

	_, _ = op(context.Background(), struct{}{}).Get()
	assert.Equal(t, []time.Duration{
		300 * time.Millisecond,
		600 * time.Millisecond,
		1200 * time.Millisecond,
	}, sleeps.recorded())
}

func TestExecute_RecordsMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	m := registry.CoreMetrics()

	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	cfg.Metrics = m
	cfg.Name = "charge"
	cfg.Sleep = (&sleepRecorder{}).sleep

	_, err := Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			return 0, errors.New("declined")
		},
	})
	require.Error(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("charge")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RetriesTotal.WithLabelValues("charge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutcomesTotal.WithLabelValues("charge", metric.OutcomeExhausted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight.WithLabelValues("charge")))

	cfg.ShouldRetry = Never
	_, _ = Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			return 0, errors.New("declined")
		},
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutcomesTotal.WithLabelValues("charge", metric.OutcomeRejected)))
}

func TestExecute_StructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	cfg.Logger = logger
	cfg.Name = "lookup"
	cfg.Sleep = (&sleepRecorder{}).sleep

	calls := 0
	_, err := Execute(context.Background(), cfg, Invocation[struct{}, struct{}, int]{
		Fn: func(context.Context, struct{}, struct{}) (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("miss")
			}
			return 1, nil
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"retrying function"`)
	assert.Contains(t, out, `"function":"lookup"`)
	assert.Contains(t, out, `"attempt":1`)
	assert.Contains(t, out, `"invocation_id":`)
	assert.Contains(t, out, `"outcome":"success"`)
}

func TestRetryMessage(t *testing.T) {
	assert.Equal(t, "retrying function f in 300 ms : attempts: 1", RetryMessage("f", 300*time.Millisecond, 1))
	assert.Equal(t, "retrying function f in 11.25 ms : attempts: 3", RetryMessage("f", 11250*time.Microsecond, 3))
	assert.Equal(t, "retrying function f in 0 ms : attempts: 2", RetryMessage("f", 0, 2))
}

func TestDo_Helpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = time.Millisecond

	attempts := 0
	err := Do(context.Background(), cfg, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	result, err := DoWithResult(context.Background(), cfg, func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("not ready")
		}
		return "success", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "success", result)

	cfg.Factor = -1
	err = Do(context.Background(), cfg, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestDo_PartialConfigInheritsDefaults(t *testing.T) {
	rec := &sleepRecorder{}
	calls := 0
	err := Do(context.Background(), Config{MaxRetries: 2, Sleep: rec.sleep}, func(context.Context) error {
		calls++
		return errors.New("still down")
	})
	assert.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 600 * time.Millisecond}, rec.recorded())

	// An explicit factor keeps an explicit zero timeout
	rec = &sleepRecorder{}
	_, err = DoWithResult(context.Background(), Config{MaxRetries: 1, Factor: 3, Sleep: rec.sleep},
		func(context.Context) (int, error) { return 0, errors.New("nope") })
	assert.Error(t, err)
	assert.Equal(t, []time.Duration{0}, rec.recorded())
}

func TestRetrier_Do(t *testing.T) {
	r := MustNew(WithRetries(1), WithSleeper((&sleepRecorder{}).sleep))

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("persistent error")
	})
	assert.EqualError(t, err, "persistent error")
	assert.Equal(t, 2, attempts)
}

func BenchmarkExecute_Success(b *testing.B) {
	cfg := DefaultConfig()
	inv := Invocation[struct{}, int, int]{
		Args: 1,
		Fn: func(_ context.Context, _ struct{}, n int) (int, error) {
			return n, nil
		},
	}

	for i := 0; i < b.N; i++ {
		_, _ = Execute(context.Background(), cfg, inv)
	}
}
