package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer pauses between consecutive remote calls for a base delay plus a
// uniformly random jitter in [0, Jitter).
type Pacer struct {
	Base   time.Duration
	Jitter time.Duration

	// rnd returns a value in [0, n); swapped out in tests.
	rnd   func(n int64) int64
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a Pacer with the given base delay and jitter range.
func NewPacer(base, jitter time.Duration) *Pacer {
	return &Pacer{
		Base:   base,
		Jitter: jitter,
		rnd:    rand.Int64N,
		sleep:  sleepContext,
	}
}

// Next returns the duration of the next pause.
func (p *Pacer) Next() time.Duration {
	d := p.Base
	if p.Jitter > 0 {
		d += time.Duration(p.rnd(int64(p.Jitter)))
	}
	return d
}

// Pause blocks for Next() or until ctx is done.
func (p *Pacer) Pause(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
