// Package sleep batches small delays so callers can queue back-off from several
// places and pay it once.
package sleep

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Batcher accumulates second and microsecond delays and sleeps their sum on
// Execute. It is safe for concurrent use.
type Batcher struct {
	clock clock.Clock

	mu      sync.Mutex
	seconds int64
	micros  int64
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithClock swaps the time source, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(b *Batcher) {
		b.clock = c
	}
}

// NewBatcher returns an empty Batcher on the wall clock unless overridden.
func NewBatcher(opts ...Option) *Batcher {
	b := &Batcher{clock: clock.New()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add queues whole seconds. Non-positive values are ignored.
func (b *Batcher) Add(seconds int64) {
	if seconds <= 0 {
		return
	}
	b.mu.Lock()
	b.seconds += seconds
	b.mu.Unlock()
}

// AddMicro queues microseconds. Non-positive values are ignored.
func (b *Batcher) AddMicro(micros int64) {
	if micros <= 0 {
		return
	}
	b.mu.Lock()
	b.micros += micros
	b.mu.Unlock()
}

// Pending returns the delay Execute would sleep right now.
func (b *Batcher) Pending() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingLocked()
}

func (b *Batcher) pendingLocked() time.Duration {
	return time.Duration(b.seconds)*time.Second + time.Duration(b.micros)*time.Microsecond
}

// Reset drops any queued delay.
func (b *Batcher) Reset() {
	b.mu.Lock()
	b.seconds, b.micros = 0, 0
	b.mu.Unlock()
}

// Execute sleeps the queued total and resets the batch. The queue is cleared
// before sleeping, so delays added meanwhile belong to the next batch. A
// cancelled context cuts the sleep short and returns ctx.Err().
func (b *Batcher) Execute(ctx context.Context) error {
	b.mu.Lock()
	d := b.pendingLocked()
	b.seconds, b.micros = 0, 0
	b.mu.Unlock()

	if d <= 0 {
		return nil
	}

	timer := b.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
