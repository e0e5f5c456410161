package notifier

import (
	"context"
	"time"
)

// Config holds the pacing between outbound posts.
type Config struct {
	// GroupDelay is waited before every group except the first.
	GroupDelay time.Duration
	// ReplyDelay is waited before each post that replies to an earlier one.
	ReplyDelay time.Duration
}

// Sleeper waits for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Report summarizes one Publish call.
type Report struct {
	Groups int
	Posted int
	Failed int
	// Errors holds one *PostError per failed post, in order.
	Errors []error
}

// PostError is a single notification that could not be published.
// It is reported to the operator and does not stop the run.
type PostError struct {
	Text string
	Err  error
}

func (e *PostError) Error() string {
	return "post failed: " + e.Err.Error()
}

func (e *PostError) Unwrap() error { return e.Err }
