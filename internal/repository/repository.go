package repository

import (
	"context"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// StreamerRepository exposes the set of streamers that someone tracks.
type StreamerRepository interface {
	ListTracked(ctx context.Context) ([]domain.Streamer, error)
	// SetPriority changes a streamer's tier; ErrNotFound if the id is unknown.
	SetPriority(ctx context.Context, streamerID string, p domain.Priority) error
}

// ItemRepository persists the last-known wishlist per streamer.
// The pgx implementation is in pg_item_repo.go; tests use MockItemRepository.
type ItemRepository interface {
	GetStored(ctx context.Context, streamerID string) ([]domain.Item, error)
	// PersistSnapshot replaces the stored list: items absent from the new
	// snapshot are deleted, unseen ones inserted, unchanged rows left alone.
	PersistSnapshot(ctx context.Context, streamerID string, items []domain.Item) error
}

// RecipientRepository resolves who hears about a streamer and how.
// Get*Settings return domain.ErrNotFound when no record exists; callers
// then apply the kind-specific default.
type RecipientRepository interface {
	ListDirect(ctx context.Context, streamerID string) ([]domain.Recipient, error)
	ListGroups(ctx context.Context, streamerID string) ([]domain.Recipient, error)
	GetUserSettings(ctx context.Context, userID, streamerID string) (domain.UserSettings, error)
	GetGroupSettings(ctx context.Context, groupID, streamerID string) (domain.GroupSettings, error)
	SetUserSettings(ctx context.Context, userID, streamerID string, s domain.UserSettings) error
	SetGroupSettings(ctx context.Context, groupID, streamerID string, s domain.GroupSettings) error
}

// LockRepository is the persistent single-row scheduler lock.
type LockRepository interface {
	// TryAcquire takes the lock when it is free, stale, or already ours.
	TryAcquire(ctx context.Context, instanceID string) (bool, error)
	// Renew refreshes the heartbeat. It returns false when instanceID no
	// longer owns the row.
	Renew(ctx context.Context, instanceID string) (bool, error)
	// Release deletes the row if instanceID owns it; otherwise a no-op.
	Release(ctx context.Context, instanceID string) error
	Get(ctx context.Context) (*domain.SchedulerLock, error)
}

// snapshotChanges splits a snapshot transition into rows to delete and rows
// to insert. Unchanged items appear in neither list.
func snapshotChanges(stored, next []domain.Item) (removed, added []domain.Item) {
	for _, it := range stored {
		if !domain.ContainsMatch(next, it.Key) {
			removed = append(removed, it)
		}
	}
	added = domain.NewItems(stored, next)
	return removed, added
}
