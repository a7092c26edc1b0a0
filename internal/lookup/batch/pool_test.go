package batch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PreservesInputOrder(t *testing.T) {
	items := []string{"c", "a", "b", "d"}
	out := Run(context.Background(), items, func(_ context.Context, s string) (string, error) {
		if s == "a" {
			time.Sleep(5 * time.Millisecond)
		}
		return strings.ToUpper(s), nil
	}, Options{Workers: 3})

	require.Len(t, out, 4)
	for i, r := range out {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, items[i], r.Input)
		assert.Equal(t, strings.ToUpper(items[i]), r.Output)
		assert.NoError(t, r.Err)
	}
}

func TestRun_ItemErrorsDoNotStopOthers(t *testing.T) {
	boom := errors.New("boom")
	out := Run(context.Background(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n * 10, nil
	}, Options{Workers: 2})

	assert.Equal(t, 10, out[0].Output)
	assert.ErrorIs(t, out[1].Err, boom)
	assert.Equal(t, 30, out[2].Output)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 12)
	Run(context.Background(), items, func(_ context.Context, _ int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	}, Options{Workers: 3})

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRun_RateLimit(t *testing.T) {
	start := time.Now()
	Run(context.Background(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		return n, nil
	}, Options{Workers: 3, RatePerSecond: 20})

	// burst of one, then 50ms between starts
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRun_CancelledContextMarksPendingItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := Run(ctx, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		return n, nil
	}, Options{Workers: 1, RatePerSecond: 1})

	require.Len(t, out, 3)
	for _, r := range out {
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
	}
}

func TestRun_SlotsPastTheDeadlineAreNotStarted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	start := time.Now()
	out := Run(ctx, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	}, Options{Workers: 1, RatePerSecond: 1})

	assert.Less(t, time.Since(start), 500*time.Millisecond, "the limiter gives up instead of sleeping past the deadline")
	assert.Equal(t, int32(1), calls.Load())
	require.NoError(t, out[0].Err)
	for _, r := range out[1:] {
		assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
	}
}

func TestRun_Empty(t *testing.T) {
	out := Run(context.Background(), nil, func(_ context.Context, n int) (int, error) {
		return n, nil
	}, Options{})
	assert.Empty(t, out)
}
