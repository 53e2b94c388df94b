// Package task runs timer-driven callbacks behind a cancellable handle.
package task

import (
	"context"
	"sync"
	"time"
)

// Handle controls a scheduled task. Cancel stops it and waits for an
// in-flight callback to return, so no callback runs after Cancel returns.
// Cancel must not be called from inside the task's own callback.
type Handle struct {
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
}

func newHandle() *Handle {
	return &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Cancel stops the task and blocks until its goroutine has exited. Safe to
// call more than once and on a nil handle.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		close(h.stop)
		if h.cancel != nil {
			h.cancel()
		}
	})
	<-h.done
}

// Done is closed once the task has finished, either cancelled or because the
// callback asked to stop.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Finished reports whether the task goroutine has exited.
func (h *Handle) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Every calls fn once per period until fn returns false or the handle is
// cancelled. The first call happens one period after scheduling.
func Every(period time.Duration, fn func() bool) *Handle {
	h := newHandle()
	go func() {
		defer close(h.done)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
			}

			// A cancel racing with the tick wins.
			select {
			case <-h.stop:
				return
			default:
			}

			if !fn() {
				return
			}
		}
	}()
	return h
}

// Loop runs fn right away and then again interval after each run completes,
// until ctx is done or the handle is cancelled. The context passed to fn is
// cancelled by Cancel so a slow run can be abandoned.
func Loop(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) *Handle {
	h := newHandle()
	ctx, h.cancel = context.WithCancel(ctx)
	go func() {
		defer close(h.done)

		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stop:
				return
			case <-timer.C:
			}

			fn(ctx)
			timer.Reset(interval)
		}
	}()
	return h
}
