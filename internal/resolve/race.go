package resolve

import (
	"context"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

type result[T any] struct {
	val T
	err error
}

// raceDeadline runs fn against a timer of d. Whichever settles first decides
// the outcome; the loser's context is cancelled on return and a late result
// is dropped into a buffered channel nobody reads.
func raceDeadline[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- result[T]{val: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-ch:
		return r.val, r.err
	case <-timer.C:
		return zero, geo.ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// future is a value being computed in the background.
type future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func startFuture[T any](ctx context.Context, fn func(context.Context) (T, error)) *future[T] {
	f := &future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Wait blocks until the value is ready or ctx ends.
func (f *future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
