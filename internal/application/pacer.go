package application

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum gap between live provider calls across the whole
// process. Concurrent callers queue behind each other.
type Pacer struct {
	interval time.Duration
	clock    Clock

	mu   sync.Mutex
	next time.Time
}

func NewPacer(interval time.Duration, clock Clock) *Pacer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Pacer{interval: interval, clock: clock}
}

// Wait blocks until the caller's slot comes up or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return ctx.Err()
	}
	p.mu.Lock()
	now := p.clock.Now()
	at := p.next
	if at.Before(now) {
		at = now
	}
	p.next = at.Add(p.interval)
	p.mu.Unlock()
	return SleepContext(ctx, at.Sub(now))
}

// Touch records a call made without waiting.
func (p *Pacer) Touch() {
	if p == nil || p.interval <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if next := p.clock.Now().Add(p.interval); next.After(p.next) {
		p.next = next
	}
}
