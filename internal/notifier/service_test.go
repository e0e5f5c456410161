package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stnbot/internal/transport/transporttest"
	logx "stnbot/pkg/logx"
)

// recordingSleeper records requested delays without waiting.
type recordingSleeper struct{ delays []time.Duration }

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestService(p *transporttest.Recorder, sl Sleeper) *Service {
	return New(Config{GroupDelay: 30 * time.Minute, ReplyDelay: 30 * time.Second}, p, logx.Nop(), WithSleeper(sl))
}

func TestPublishThreadsAndPacing(t *testing.T) {
	t.Parallel()
	rec := &transporttest.Recorder{}
	sl := &recordingSleeper{}
	groups := [][]string{
		{"a1", "a2", "a3"},
		{"b1"},
		{"c1", "c2"},
	}

	rep, err := newTestService(rec, sl).Publish(context.Background(), groups)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if rep.Groups != 3 || rep.Posted != 6 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}

	posts, dms := rec.Snapshot()
	want := []transporttest.Post{
		{ID: "1", Text: "a1"},
		{ID: "2", Text: "a2", ReplyTo: "1"},
		{ID: "3", Text: "a3", ReplyTo: "2"},
		{ID: "4", Text: "b1"},
		{ID: "5", Text: "c1"},
		{ID: "6", Text: "c2", ReplyTo: "5"},
	}
	if diff := cmp.Diff(want, posts); diff != "" {
		t.Fatalf("posts mismatch (-want +got):\n%s", diff)
	}
	if len(dms) != 0 {
		t.Fatalf("unexpected operator messages: %q", dms)
	}

	wantDelays := []time.Duration{
		30 * time.Second, 30 * time.Second, // a2, a3
		30 * time.Minute,                   // before b
		30 * time.Minute, 30 * time.Second, // before c, c2
	}
	if diff := cmp.Diff(wantDelays, sl.delays); diff != "" {
		t.Fatalf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishNothingChanged(t *testing.T) {
	t.Parallel()
	rec := &transporttest.Recorder{}
	sl := &recordingSleeper{}
	rep, err := newTestService(rec, sl).Publish(context.Background(), nil)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	posts, dms := rec.Snapshot()
	if len(posts) != 0 {
		t.Fatalf("public posts = %d, want 0", len(posts))
	}
	if len(dms) != 1 || !strings.Contains(dms[0], "nothing changed") {
		t.Fatalf("dms = %q", dms)
	}
	if rep.Posted != 0 || len(sl.delays) != 0 {
		t.Fatalf("report = %+v, delays = %v", rep, sl.delays)
	}
}

func TestPublishIsolatesFailures(t *testing.T) {
	t.Parallel()
	boom := errors.New("rate limited")
	rec := &transporttest.Recorder{FailPost: func(text string) error {
		if text == "a2" || text == "b1" {
			return boom
		}
		return nil
	}}
	sl := &recordingSleeper{}
	rep, err := newTestService(rec, sl).Publish(context.Background(), [][]string{{"a1", "a2", "a3"}, {"b1", "b2"}})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if rep.Posted != 3 || rep.Failed != 2 || len(rep.Errors) != 2 {
		t.Fatalf("report = %+v", rep)
	}
	var pe *PostError
	if !errors.As(rep.Errors[0], &pe) || pe.Text != "a2" || !errors.Is(pe, boom) {
		t.Fatalf("first error = %v", rep.Errors[0])
	}

	posts, dms := rec.Snapshot()
	want := []transporttest.Post{
		{ID: "1", Text: "a1"},
		// a2 failed: a3 replies to the last successful post.
		{ID: "2", Text: "a3", ReplyTo: "1"},
		// b1 failed: b2 starts the thread.
		{ID: "3", Text: "b2"},
	}
	if diff := cmp.Diff(want, posts); diff != "" {
		t.Fatalf("posts mismatch (-want +got):\n%s", diff)
	}
	if len(dms) != 2 {
		t.Fatalf("dms = %q, want 2 reports", dms)
	}
	if !strings.Contains(dms[0], "I tried to post a2") || !strings.Contains(dms[0], "rate limited") {
		t.Fatalf("report text = %q", dms[0])
	}
}

func TestPublishOperatorFailureIsIgnored(t *testing.T) {
	t.Parallel()
	rec := &transporttest.Recorder{
		FailPost: func(string) error { return errors.New("down") },
		FailDM:   errors.New("dm down too"),
	}
	rep, err := newTestService(rec, &recordingSleeper{}).Publish(context.Background(), [][]string{{"a"}, {"b"}})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if rep.Failed != 2 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestPublishStopsOnCancel(t *testing.T) {
	t.Parallel()
	rec := &transporttest.Recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	sl := SleeperFunc(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})
	rep, err := newTestService(rec, sl).Publish(ctx, [][]string{{"a"}, {"b"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if rep.Posted != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestTimerSleeper(t *testing.T) {
	t.Parallel()
	var ts timerSleeper
	if err := ts.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ts.Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep = %v, want context.Canceled", err)
	}
}
