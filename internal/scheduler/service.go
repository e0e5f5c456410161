package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "stnbot/pkg/logx"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Service triggers a single Job on a schedule. A trigger that fires while
// the previous run is still going is skipped, so runs never overlap.
type Service struct {
	log    logx.Logger
	parser cron.Parser
	loc    *time.Location

	mu      sync.Mutex
	c       *cron.Cron
	entryID cron.EntryID
	spec    ParsedSpec
	job     Job
	runCtx  context.Context
	cancel  context.CancelFunc

	// runMu serializes runs started by cron and by RunNow.
	runMu sync.Mutex
}

func New(loc *time.Location, log logx.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log: log,
		loc: loc,
		parser: cronParser,
	}
}

// Start registers job under spec and starts the cron loop.
func (s *Service) Start(ctx context.Context, spec ParsedSpec, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return errors.New("scheduler already started")
	}

	clog := cronLogger{log: s.log}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.job = job

	if err := s.addLocked(spec); err != nil {
		s.cancel()
		s.c = nil
		return err
	}
	s.c.Start()
	s.log.Info("scheduler started", logx.String("schedule", spec.CronSpec()), logx.Time("next", s.nextLocked()))
	return nil
}

// Reschedule swaps the active schedule. Unchanged specs are a no-op.
func (s *Service) Reschedule(spec ParsedSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return errors.New("scheduler not started")
	}
	if spec.CronSpec() == s.spec.CronSpec() {
		return nil
	}
	old := s.entryID
	if err := s.addLocked(spec); err != nil {
		return err
	}
	s.c.Remove(old)
	s.log.Info("schedule changed", logx.String("schedule", spec.CronSpec()), logx.Time("next", s.nextLocked()))
	return nil
}

func (s *Service) addLocked(spec ParsedSpec) error {
	runCtx := s.runCtx
	job := s.job
	id, err := s.c.AddFunc(spec.CronSpec(), func() { s.runOnce(runCtx, job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec.CronSpec(), err)
	}
	s.entryID = id
	s.spec = spec
	return nil
}

func (s *Service) nextLocked() time.Time {
	return s.c.Entry(s.entryID).Next
}

// RunNow executes the job synchronously on the caller's goroutine.
func (s *Service) RunNow() {
	s.mu.Lock()
	ctx, job := s.runCtx, s.job
	s.mu.Unlock()
	if job == nil {
		return
	}
	s.runOnce(ctx, job)
}

func (s *Service) runOnce(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	if !s.runMu.TryLock() {
		s.log.Warn("previous run still in progress; skipping trigger")
		return
	}
	defer s.runMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in scheduled run", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()
	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.Error("scheduled run failed", logx.Err(err), logx.Duration("took", time.Since(start)))
		return
	}
	s.log.Debug("scheduled run finished", logx.Duration("took", time.Since(start)))
}

// Stop cancels the running job (if any) and waits for it to return.
func (s *Service) Stop() {
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
}

// cronLogger routes robfig/cron's logging through logx.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
