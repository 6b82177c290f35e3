package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_ResolvesWithResult(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	select {
	case <-f.Done():
	default:
		t.Fatal("Done should be closed after Get returns")
	}
}

func TestGo_RecoversPanic(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (string, error) {
		panic("boom")
	})

	_, err := f.Get()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
}

func TestResolved(t *testing.T) {
	errDone := errors.New("done")
	f := Resolved("value", errDone)

	v, err := f.Get()
	assert.Equal(t, "value", v)
	assert.Same(t, errDone, err)
}

func TestFuture_WaitAbandonsWithoutAborting(t *testing.T) {
	r := MustNew(WithRetries(2), WithTimeout(20*time.Millisecond))

	attempts := make(chan struct{}, 3)
	op, err := Wrap(r, func(context.Context, struct{}) (int, error) {
		attempts <- struct{}{}
		if len(attempts) < 3 {
			return 0, errors.New("slow start")
		}
		return 7, nil
	})
	require.NoError(t, err)

	future := op(context.Background(), struct{}{})

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = future.Wait(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The call keeps retrying after the caller gave up waiting
	v, err := future.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Len(t, attempts, 3)
}

func TestWrap_CallContextStopsRetries(t *testing.T) {
	r := MustNew(WithRetries(5), WithTimeout(time.Second))

	var calls atomic.Int32
	op, err := Wrap(r, func(context.Context, struct{}) (int, error) {
		calls.Add(1)
		return 0, errors.New("down")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = op(ctx, struct{}{}).Get()
	var ce *CancelledError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAwait_NilFuture(t *testing.T) {
	_, err := await[int](context.Background(), nil)
	assert.EqualError(t, err, "retry: async function returned a nil future")
}
