// Package async provides the deferred-completion primitive the gateway
// wraps its operations in. Each operation runs on its own goroutine
// after a simulated network delay and carries a cancellation token, so
// a caller that navigates away can abandon in-flight reads instead of
// receiving stale completions.
package async

import (
	"context"
	"time"
)

// Deferred is the eventual result of a gateway operation.
type Deferred[T any] struct {
	done   chan struct{}
	value  T
	err    error
	cancel context.CancelFunc
}

// Defer schedules fn to run after the given latency. The latency wait
// and fn itself observe cancellation, both from the parent context and
// from Cancel on the returned Deferred.
func Defer[T any](ctx context.Context, latency time.Duration, fn func(context.Context) (T, error)) *Deferred[T] {
	ctx, cancel := context.WithCancel(ctx)
	d := &Deferred[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(d.done)
		defer cancel()
		if err := Sleep(ctx, latency); err != nil {
			d.err = err
			return
		}
		d.value, d.err = fn(ctx)
	}()
	return d
}

// Await blocks until the operation completes or ctx is done. A caller
// abandoning the wait does not stop the operation; use Cancel for that.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel aborts the operation. A Deferred cancelled before its latency
// elapses completes with context.Canceled and never runs its work.
func (d *Deferred[T]) Cancel() {
	d.cancel()
}

// Done is closed once the operation has completed or been cancelled.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// Sleep waits for the duration or until ctx is done, returning the
// context error in the latter case. A zero duration returns immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
