// Package notifier publishes notification groups as reply threads.
package notifier

import (
	"context"

	kit "stnbot/internal/transport"
	logx "stnbot/pkg/logx"
)

const nothingChangedText = "I would've sent a message, but nothing changed!"

// Service posts groups sequentially: each group is its own thread, each
// post in a group replies to the previous successful one.
//
// It is not safe for concurrent use; one run owns it.
type Service struct {
	cfg    Config
	poster kit.Poster
	sleep  Sleeper
	log    logx.Logger
}

type Option func(*Service)

// WithSleeper replaces the real timer (tests).
func WithSleeper(sl Sleeper) Option {
	return func(s *Service) {
		if sl != nil {
			s.sleep = sl
		}
	}
}

func New(cfg Config, poster kit.Poster, log logx.Logger, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.GroupDelay < 0 {
		cfg.GroupDelay = 0
	}
	if cfg.ReplyDelay < 0 {
		cfg.ReplyDelay = 0
	}
	s := &Service{
		cfg:    cfg,
		poster: poster,
		sleep:  timerSleeper{},
		log:    log.With(logx.String("comp", "notifier")),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Publish posts every group. Individual post failures are reported to the
// operator and counted; only context cancellation aborts the loop, in which
// case the partial report is returned with ctx's error.
//
// With no groups, a single "nothing changed" message goes to the operator
// and nothing is posted publicly.
func (s *Service) Publish(ctx context.Context, groups [][]string) (Report, error) {
	rep := Report{Groups: len(groups)}

	if len(groups) == 0 {
		s.log.Info("nothing changed")
		s.report(ctx, nothingChangedText)
		return rep, ctx.Err()
	}

	for gi, group := range groups {
		if gi > 0 {
			if err := s.sleep.Sleep(ctx, s.cfg.GroupDelay); err != nil {
				return rep, err
			}
		}

		var parent *kit.PostRef
		for _, text := range group {
			if parent != nil {
				if err := s.sleep.Sleep(ctx, s.cfg.ReplyDelay); err != nil {
					return rep, err
				}
			}

			ref, err := s.poster.Post(ctx, text, parent)
			if err != nil {
				if ctx.Err() != nil {
					return rep, ctx.Err()
				}
				pe := &PostError{Text: text, Err: err}
				rep.Failed++
				rep.Errors = append(rep.Errors, pe)
				s.log.Warn("post failed", logx.Int("group", gi), logx.Err(err))
				s.report(ctx, "I tried to post "+text+" but got the error "+err.Error())
				continue
			}

			rep.Posted++
			r := ref
			parent = &r
			s.log.Info("posted", logx.Int("group", gi), logx.String("id", ref.ID))
		}
	}
	return rep, nil
}

// report sends text to the operator; a failure here is only logged.
func (s *Service) report(ctx context.Context, text string) {
	if err := s.poster.DirectMessage(ctx, text); err != nil {
		s.log.Error("operator report failed", logx.Err(err), logx.String("text", text))
	}
}
