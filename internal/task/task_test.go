package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryRunsUntilFalse(t *testing.T) {
	var n atomic.Int32
	h := Every(time.Millisecond, func() bool {
		return n.Add(1) < 3
	})

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
	assert.Equal(t, int32(3), n.Load())
	assert.True(t, h.Finished())
}

func TestCancelStopsFurtherCalls(t *testing.T) {
	var n atomic.Int32
	h := Every(time.Millisecond, func() bool {
		n.Add(1)
		return true
	})

	assert.Eventually(t, func() bool { return n.Load() > 2 }, 2*time.Second, time.Millisecond)
	h.Cancel()
	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, n.Load(), "callback ran after Cancel returned")
}

func TestCancelWaitsForInFlight(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	h := Every(time.Millisecond, func() bool {
		close(started)
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
		return false
	})

	<-started
	h.Cancel()
	assert.True(t, finished.Load())
}

func TestCancelIdempotent(t *testing.T) {
	h := Every(time.Hour, func() bool { return true })
	h.Cancel()
	h.Cancel()

	var nilHandle *Handle
	nilHandle.Cancel()
}

func TestLoopReschedulesAfterRun(t *testing.T) {
	var n atomic.Int32
	h := Loop(context.Background(), time.Millisecond, func(ctx context.Context) {
		n.Add(1)
	})
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, 2*time.Second, time.Millisecond)
	h.Cancel()

	after := n.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, n.Load())
}

func TestLoopRunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	h := Loop(context.Background(), time.Hour, func(ctx context.Context) {
		ran <- struct{}{}
	})
	defer h.Cancel()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first run did not happen right away")
	}
}

func TestLoopCancelAbortsRunContext(t *testing.T) {
	entered := make(chan struct{})
	h := Loop(context.Background(), time.Hour, func(ctx context.Context) {
		close(entered)
		<-ctx.Done()
	})
	<-entered

	done := make(chan struct{})
	go func() {
		h.Cancel()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Cancel did not abort the running callback")
	}
}

func TestLoopStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := Loop(ctx, time.Millisecond, func(ctx context.Context) {})
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Loop did not stop after parent context cancel")
	}
}
