package notifier

import (
	"context"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/ratelimiter"
)

// Throttled wraps a Sink with per-recipient-kind rate limiting.
type Throttled struct {
	next    Sink
	limiter *ratelimiter.KindLimiters
}

func NewThrottled(next Sink, limiter *ratelimiter.KindLimiters) *Throttled {
	return &Throttled{next: next, limiter: limiter}
}

func (t *Throttled) Deliver(ctx context.Context, d Delivery) error {
	kind := domain.RecipientGroup
	if d.Direct {
		kind = domain.RecipientDirect
	}
	if err := t.limiter.Wait(ctx, kind); err != nil {
		return err
	}
	return t.next.Deliver(ctx, d)
}
