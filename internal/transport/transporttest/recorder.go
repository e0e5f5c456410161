// Package transporttest provides an in-memory Poster for tests.
package transporttest

import (
	"context"
	"strconv"
	"sync"

	kit "stnbot/internal/transport"
)

// Post is one recorded public post.
type Post struct {
	ID      string
	Text    string
	ReplyTo string // "" when the post started a thread
}

// Recorder records every call. FailPost, when set, decides per text whether
// the post fails with the returned error.
type Recorder struct {
	mu       sync.Mutex
	Posts    []Post
	DMs      []string
	FailPost func(text string) error
	FailDM   error
}

var _ kit.Poster = (*Recorder)(nil)

func (r *Recorder) Post(ctx context.Context, text string, replyTo *kit.PostRef) (kit.PostRef, error) {
	if err := ctx.Err(); err != nil {
		return kit.PostRef{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailPost != nil {
		if err := r.FailPost(text); err != nil {
			return kit.PostRef{}, err
		}
	}
	p := Post{ID: strconv.Itoa(len(r.Posts) + 1), Text: text}
	if replyTo != nil {
		p.ReplyTo = replyTo.ID
	}
	r.Posts = append(r.Posts, p)
	return kit.PostRef{ID: p.ID}, nil
}

func (r *Recorder) DirectMessage(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DMs = append(r.DMs, text)
	return r.FailDM
}

// Snapshot returns copies of the recorded posts and DMs.
func (r *Recorder) Snapshot() ([]Post, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Post(nil), r.Posts...), append([]string(nil), r.DMs...)
}
