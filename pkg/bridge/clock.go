package bridge

import (
	"context"
	"time"
)

// Clock abstracts time for the poll loop so tests can run without
// wall-clock waits.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is canceled, in which case it
	// returns the context error.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// NewClock returns a Clock backed by the system clock
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
