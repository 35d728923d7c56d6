package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Backoff paces a bounded series of retries: Base, 2*Base, 4*Base, ...
// capped at Max, each with up to Jitter of random spread added.
type Backoff struct {
	Base     time.Duration
	Max      time.Duration
	Jitter   float64
	Attempts int
}

func DefaultBackoff(attempts int) Backoff {
	return Backoff{
		Base:     2 * time.Second,
		Max:      15 * time.Second,
		Jitter:   0.2,
		Attempts: attempts,
	}
}

// Delay returns the pause before retry n (1-based: Delay(1) follows the first
// failure).
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 || b.Base <= 0 {
		return 0
	}
	d := b.Base
	for i := 1; i < n; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			d = b.Max
			break
		}
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	if b.Jitter > 0 {
		d += time.Duration(rand.Float64() * b.Jitter * float64(d))
	}
	return d
}

// Retry calls fn until it succeeds, Attempts is exhausted, or ctx ends. It
// returns the last error from fn, or ctx.Err() if cancelled while waiting.
// onFail, when set, sees every failed attempt.
func (b Backoff) Retry(ctx context.Context, fn func(attempt int) error, onFail func(attempt int, err error)) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if onFail != nil {
			onFail(attempt, err)
		}
		if attempt == attempts {
			break
		}
		if serr := Sleep(ctx, b.Delay(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

// Sleep waits for d or until ctx is done, whichever is first.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
