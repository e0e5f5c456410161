package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logx "stnbot/pkg/logx"
)

func TestServiceRunNowAndReschedule(t *testing.T) {
	t.Parallel()
	var runs atomic.Int32
	s := New(time.UTC, logx.Nop())

	spec, err := ParseSchedule("6h")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background(), spec, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.RunNow()
	if got := runs.Load(); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}

	next, _ := ParseSchedule("@daily")
	if err := s.Reschedule(next); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if err := s.Reschedule(ParsedSpec{Kind: SpecCron, Cron: "not a cron"}); err == nil {
		t.Fatal("expected error for invalid cron")
	}
	if err := s.Start(context.Background(), spec, nil); err == nil {
		t.Fatal("expected error on double start")
	}
}

func TestServiceSkipsOverlappingRuns(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, logx.Nop())
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	var runs atomic.Int32

	spec, _ := ParseSchedule("6h")
	if err := s.Start(context.Background(), spec, func(ctx context.Context) error {
		runs.Add(1)
		entered <- struct{}{}
		<-release
		return nil
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunNow()
	}()
	<-entered

	// Second trigger while the first is still running is dropped.
	s.RunNow()
	close(release)
	<-done
	s.Stop()

	if got := runs.Load(); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}
}

func TestServiceRecoversPanics(t *testing.T) {
	t.Parallel()
	s := New(nil, logx.Nop())
	spec, _ := ParseSchedule("6h")
	if err := s.Start(context.Background(), spec, func(ctx context.Context) error {
		panic("kaboom")
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	s.RunNow() // must not crash the test binary
}
