// Package dryrun is a Poster that only logs what it would have sent.
package dryrun

import (
	"context"
	"strconv"
	"sync/atomic"

	kit "stnbot/internal/transport"
	logx "stnbot/pkg/logx"
)

type Poster struct {
	log logx.Logger
	seq atomic.Int64
}

var _ kit.Poster = (*Poster)(nil)

func New(log logx.Logger) *Poster {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Poster{log: log.With(logx.String("comp", "dryrun"))}
}

func (p *Poster) Post(ctx context.Context, text string, replyTo *kit.PostRef) (kit.PostRef, error) {
	if err := ctx.Err(); err != nil {
		return kit.PostRef{}, err
	}
	ref := kit.PostRef{ID: strconv.FormatInt(p.seq.Add(1), 10)}
	parent := ""
	if replyTo != nil {
		parent = replyTo.ID
	}
	p.log.Info("would post", logx.String("id", ref.ID), logx.String("reply_to", parent), logx.String("text", text))
	return ref, nil
}

func (p *Poster) DirectMessage(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info("would message operator", logx.String("text", text))
	return nil
}
