// Package app ties one poll run together: fetch, load the previous
// snapshot, diff, publish, persist.
package app

import (
	"context"
	"errors"
	"time"

	"stnbot/internal/notifier"
	"stnbot/internal/site"
	"stnbot/internal/source"
	"stnbot/internal/storage"
	logx "stnbot/pkg/logx"
)

// Result describes a finished (or aborted) run.
type Result struct {
	// Baseline is true when no previous snapshot existed; nothing was posted.
	Baseline bool
	Sites    int
	Groups   [][]string
	Report   notifier.Report
	Took     time.Duration
}

// Runner executes poll runs. It holds no state between runs besides what
// the store persists.
type Runner struct {
	src   source.Source
	store storage.Store
	notif *notifier.Service
	log   logx.Logger
}

// NewRunner wires a runner from its parts. notif may be nil for a runner
// that is only used for Preview.
func NewRunner(src source.Source, store storage.Store, notif *notifier.Service, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{src: src, store: store, notif: notif, log: log.With(logx.String("comp", "runner"))}
}

// Close releases the store.
func (r *Runner) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// Run performs one full pass.
//
// A fetch or load failure aborts before anything is posted or written.
// Publishing failures of single posts do not stop the run; the new snapshot
// is saved afterwards regardless. If ctx is canceled while publishing, the
// run stops without saving so the next run diffs against the old snapshot.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.notif == nil {
		return Result{}, errors.New("runner has no notifier")
	}
	start := time.Now()

	cur, prev, hadPrev, err := r.fetchAndLoad(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Sites: len(cur)}

	if !hadPrev {
		if err := r.store.Save(ctx, cur); err != nil {
			return res, err
		}
		res.Baseline = true
		res.Took = time.Since(start)
		r.log.Info("created a new baseline", logx.Int("sites", len(cur)))
		return res, nil
	}

	res.Groups = site.Changes(prev, cur)
	r.log.Info("diffed snapshots", logx.Int("sites", len(cur)), logx.Int("previous", len(prev)), logx.Int("groups", len(res.Groups)))

	res.Report, err = r.notif.Publish(ctx, res.Groups)
	if err != nil {
		r.log.Warn("publishing interrupted; snapshot not saved", logx.Err(err), logx.Int("posted", res.Report.Posted))
		return res, err
	}

	if err := r.store.Save(ctx, cur); err != nil {
		r.log.Error("saving snapshot failed", logx.Err(err))
		return res, err
	}
	res.Took = time.Since(start)
	r.log.Info("run finished",
		logx.Int("posted", res.Report.Posted),
		logx.Int("failed", res.Report.Failed),
		logx.Duration("took", res.Took),
	)
	return res, nil
}

// Preview fetches and diffs like Run but posts and writes nothing.
// With no stored snapshot it reports a baseline and no groups.
func (r *Runner) Preview(ctx context.Context) (Result, error) {
	start := time.Now()
	cur, prev, hadPrev, err := r.fetchAndLoad(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Sites: len(cur), Baseline: !hadPrev}
	if hadPrev {
		res.Groups = site.Changes(prev, cur)
	}
	res.Took = time.Since(start)
	return res, nil
}

// fetchAndLoad returns the current scorecard with the previous records of
// temporarily unscanned sites carried forward, and the stored snapshot.
func (r *Runner) fetchAndLoad(ctx context.Context) (cur, prev site.Snapshot, hadPrev bool, err error) {
	card, err := r.src.Fetch(ctx)
	if err != nil {
		r.log.Error("fetch failed", logx.Err(err))
		return nil, nil, false, err
	}
	prev, hadPrev, err = r.store.Load(ctx)
	if err != nil {
		r.log.Error("loading previous snapshot failed", logx.Err(err))
		return nil, nil, false, err
	}
	cur = site.CarryForward(prev, card.Sites, card.Unscanned)
	if n := len(cur) - len(card.Sites); n > 0 {
		r.log.Info("kept previous records for unscanned sites", logx.Int("count", n))
	}
	return cur, prev, hadPrev, nil
}
