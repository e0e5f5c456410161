package transport

import "context"

// PostRef identifies a published post so later posts can reply to it.
type PostRef struct {
	ID string
}

// Poster is the outbound notification channel.
//
// Post publishes text on the public channel. A nil replyTo starts a new
// thread; otherwise the post is a reply to replyTo.
// DirectMessage sends text privately to the configured operator.
type Poster interface {
	Post(ctx context.Context, text string, replyTo *PostRef) (PostRef, error)
	DirectMessage(ctx context.Context, text string) error
}
