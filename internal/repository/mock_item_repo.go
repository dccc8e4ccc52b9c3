package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// MockItemRepository is a hand-written, in-memory ItemRepository used in
// unit tests. It applies the same snapshot transition as the pgx version.
type MockItemRepository struct {
	mu     sync.RWMutex
	items  map[string][]domain.Item
	nextID int

	// Optional error overrides; set in tests to simulate failure paths.
	GetStoredErr error
	PersistErr   error

	// PersistCalls counts PersistSnapshot invocations per streamer.
	PersistCalls map[string]int
}

func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{
		items:        make(map[string][]domain.Item),
		PersistCalls: make(map[string]int),
	}
}

// Seed stores items for a streamer as if a previous check persisted them.
func (m *MockItemRepository) Seed(streamerID string, items ...domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.items[streamerID] = append(m.items[streamerID], m.stamp(streamerID, it))
	}
}

func (m *MockItemRepository) GetStored(_ context.Context, streamerID string) ([]domain.Item, error) {
	if m.GetStoredErr != nil {
		return nil, m.GetStoredErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Item, len(m.items[streamerID]))
	copy(out, m.items[streamerID])
	return out, nil
}

func (m *MockItemRepository) PersistSnapshot(_ context.Context, streamerID string, items []domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistCalls[streamerID]++
	if m.PersistErr != nil {
		return m.PersistErr
	}

	stored := m.items[streamerID]
	removed, added := snapshotChanges(stored, items)

	gone := make(map[string]struct{}, len(removed))
	for _, it := range removed {
		gone[it.ID] = struct{}{}
	}
	kept := make([]domain.Item, 0, len(stored)+len(added))
	for _, it := range stored {
		if _, ok := gone[it.ID]; !ok {
			kept = append(kept, it)
		}
	}
	for _, it := range added {
		kept = append(kept, m.stamp(streamerID, it))
	}
	m.items[streamerID] = kept
	return nil
}

// stamp assigns storage fields. Caller holds mu.
func (m *MockItemRepository) stamp(streamerID string, it domain.Item) domain.Item {
	m.nextID++
	it.ID = strconv.Itoa(m.nextID)
	it.StreamerID = streamerID
	it.CreatedAt = time.Now().UTC()
	return it
}
