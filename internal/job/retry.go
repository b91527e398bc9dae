package job

import (
	"context"
	"fmt"
	"time"
)

// Policy is an explicit retry budget wrapping a whole pipeline phase: a fixed
// delay and a fixed attempt count, applied only to transient failures.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy retries transient failures exactly once after a fixed delay.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 2, Delay: 10 * time.Second}
}

// Do runs fn until it succeeds, the attempt budget is spent, or the failure
// class rules out a retry.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if ClassOf(err) != ClassTransient || attempt == attempts {
			return err
		}

		fmt.Printf("attempt %d failed (%v), retrying in %s\n", attempt, err, p.Delay)
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
