package core

import (
	"context"
	"time"
)

const (
	defaultBackoffBase = time.Second
	defaultBackoffMax  = 30 * time.Second
)

// BackoffScheduler yields the delay before retry number attempt (1-based).
type BackoffScheduler interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoffScheduler doubles the base delay per attempt, capped at
// Max: base, 2*base, 4*base, ...
type ExponentialBackoffScheduler struct {
	Base time.Duration
	Max  time.Duration
}

func (s ExponentialBackoffScheduler) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := s.Base
	if base <= 0 {
		base = defaultBackoffBase
	}
	max := s.Max
	if max <= 0 {
		max = defaultBackoffMax
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
