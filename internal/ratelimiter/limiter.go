package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// KindLimiters holds one token bucket per recipient kind so a burst of group
// deliveries cannot starve direct messages (and vice versa).
// Burst equals the rate: no saved-up capacity above the per-second maximum.
type KindLimiters struct {
	limiters map[domain.RecipientKind]*rate.Limiter
}

// New creates a KindLimiters with ratePerSec tokens per second per kind.
// A non-positive rate disables limiting.
func New(ratePerSec int) *KindLimiters {
	r, burst := rate.Limit(ratePerSec), ratePerSec
	if ratePerSec <= 0 {
		r, burst = rate.Inf, 1
	}

	return &KindLimiters{
		limiters: map[domain.RecipientKind]*rate.Limiter{
			domain.RecipientDirect: rate.NewLimiter(r, burst),
			domain.RecipientGroup:  rate.NewLimiter(r, burst),
		},
	}
}

// Wait blocks until the kind's limiter grants a token.
// Returns a non-nil error only if ctx is cancelled while waiting.
// Unknown kinds are not limited.
func (kl *KindLimiters) Wait(ctx context.Context, kind domain.RecipientKind) error {
	l, ok := kl.limiters[kind]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}

// PerMinute builds a limiter for an outbound client allowing n requests per
// minute with a burst of one. n <= 0 disables limiting.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(n)/60), 1)
}
