package fetcher

import (
	"context"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// Snapshot is one fetched wishlist. Success=false means the source answered
// but could not produce a reliable list.
type Snapshot struct {
	Success bool
	Items   []domain.Item
}

// Fetcher retrieves a streamer's current wishlist from the catalog source.
// Rate-limit rejections are reported as errors wrapping domain.ErrRateLimited
// so callers can back off instead of giving up.
type Fetcher interface {
	Fetch(ctx context.Context, nickname string) (Snapshot, error)
}
