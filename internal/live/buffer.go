// Package live keeps a bounded window of recently fetched values and the
// feeds and poller that fill it.
package live

import "sync"

// DefaultCapacity is the number of points kept when none is configured.
const DefaultCapacity = 150

// Buffer is a fixed-capacity FIFO of values. Pushing past capacity evicts the
// oldest value. Safe for concurrent use.
type Buffer struct {
	mu   sync.RWMutex
	ring []float64
	head int // index of the oldest value
	size int
}

// NewBuffer creates an empty buffer. A capacity below 1 uses DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{ring: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value when full.
func (b *Buffer) Push(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.push(v)
}

// Fill replaces the contents with values. Only the newest Cap values are
// kept.
func (b *Buffer) Fill(values []float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head, b.size = 0, 0
	if len(values) > len(b.ring) {
		values = values[len(values)-len(b.ring):]
	}
	for _, v := range values {
		b.push(v)
	}
}

func (b *Buffer) push(v float64) {
	capacity := len(b.ring)
	if b.size < capacity {
		b.ring[(b.head+b.size)%capacity] = v
		b.size++
		return
	}
	b.ring[b.head] = v
	b.head = (b.head + 1) % capacity
}

// Values returns a copy of the contents, oldest first.
func (b *Buffer) Values() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]float64, b.size)
	for i := range out {
		out[i] = b.ring[(b.head+i)%len(b.ring)]
	}
	return out
}

// Latest returns the newest value, or false when empty.
func (b *Buffer) Latest() (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.size == 0 {
		return 0, false
	}
	return b.ring[(b.head+b.size-1)%len(b.ring)], true
}

// Len returns the number of values held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the maximum number of values held.
func (b *Buffer) Cap() int {
	return len(b.ring)
}

// Reset discards every value.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.head, b.size = 0, 0
	b.mu.Unlock()
}
