package live

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/sonigraph/internal/task"
)

// DefaultInterval is the time between live updates.
const DefaultInterval = 60 * time.Second

// Poller fetches the latest value from a feed on an interval and hands it to
// a callback. Failed fetches are logged and the next fetch is still
// scheduled.
type Poller struct {
	feed     Feed
	interval time.Duration
	onValue  func(float64)

	mu      sync.Mutex
	handle  *task.Handle
	lastErr error
	lastAt  time.Time
	fetches int
	fails   int
}

// NewPoller creates a stopped poller.
func NewPoller(feed Feed, interval time.Duration, onValue func(float64)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{feed: feed, interval: interval, onValue: onValue}
}

// Start begins polling. The first fetch happens one interval after Start
// because the initial history already holds the current value. Calling
// Start on a running poller restarts it.
func (p *Poller) Start(ctx context.Context) {
	p.Stop()

	first := true
	h := task.Loop(ctx, p.interval, func(ctx context.Context) {
		if first {
			first = false
			return
		}
		p.poll(ctx)
	})

	p.mu.Lock()
	p.handle = h
	p.mu.Unlock()
	log.Printf("Live updates every %s", p.interval)
}

// Stop cancels polling. No callback runs after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	h := p.handle
	p.handle = nil
	p.mu.Unlock()
	h.Cancel()
}

// Interval returns the time between fetches.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Running reports whether the poller is scheduled.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle != nil && !p.handle.Finished()
}

// PollerStats summarizes poller activity.
type PollerStats struct {
	Fetches    int
	Failures   int
	LastUpdate time.Time
	LastError  error
}

// Stats returns counters for status display.
func (p *Poller) Stats() PollerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PollerStats{
		Fetches:    p.fetches,
		Failures:   p.fails,
		LastUpdate: p.lastAt,
		LastError:  p.lastErr,
	}
}

func (p *Poller) poll(ctx context.Context) {
	v, err := p.feed.Latest(ctx)

	p.mu.Lock()
	p.fetches++
	if err != nil {
		p.fails++
		p.lastErr = err
		p.mu.Unlock()
		if ctx.Err() == nil {
			log.Printf("Continuous update failed: %v", err)
		}
		return
	}
	p.lastErr = nil
	p.lastAt = time.Now()
	p.mu.Unlock()

	p.onValue(v)
}
