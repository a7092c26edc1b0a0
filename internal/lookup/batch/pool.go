// Package batch runs many lookups through a bounded, rate-limited worker pool.
package batch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Options bounds a run.
type Options struct {
	Workers int
	// RatePerSecond is a global start rate across all workers; <=0 disables it.
	RatePerSecond float64
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// Result holds the output for one input item.
type Result[In any, Out any] struct {
	Index  int
	Input  In
	Output Out
	Err    error
}

// Run applies fn to every item and returns results in input order. A failing
// item does not stop the others. Items that never started because ctx ended,
// or because their start slot falls after ctx's deadline, carry an error
// matching context.Canceled or context.DeadlineExceeded.
func Run[In any, Out any](
	ctx context.Context,
	items []In,
	fn func(context.Context, In) (Out, error),
	opts Options,
) []Result[In, Out] {
	opts = opts.withDefaults()

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	out := make([]Result[In, Out], len(items))
	for i, item := range items {
		out[i] = Result[In, Out]{Index: i, Input: item}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(opts.Workers, max(len(items), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						out[idx].Err = waitError(ctx, err)
						continue
					}
				}
				out[idx].Output, out[idx].Err = fn(ctx, items[idx])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(items); next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for ; next < len(items); next++ {
		out[next].Err = ctx.Err()
	}
	return out
}

// waitError reports a limiter refusal. Wait gives up before the deadline when
// the next slot is already past it.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
}
