package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/ratelimiter"
)

func TestKindLimiters_Disabled(t *testing.T) {
	kl := ratelimiter.New(0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 100; i++ {
		if err := kl.Wait(ctx, domain.RecipientDirect); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestKindLimiters_CancelledContext(t *testing.T) {
	kl := ratelimiter.New(1)
	ctx, cancel := context.WithCancel(context.Background())

	// Spend the only token, then a cancelled wait must fail.
	if err := kl.Wait(ctx, domain.RecipientGroup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()
	if err := kl.Wait(ctx, domain.RecipientGroup); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestPerMinute(t *testing.T) {
	l := ratelimiter.PerMinute(30)
	if got := float64(l.Limit()); got != 0.5 {
		t.Fatalf("expected 0.5 tokens/sec, got %v", got)
	}
	if !ratelimiter.PerMinute(0).Allow() {
		t.Fatal("expected disabled limiter to allow")
	}
}
