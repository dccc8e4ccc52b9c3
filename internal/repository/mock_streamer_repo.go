package repository

import (
	"context"
	"sync"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// MockStreamerRepository is a hand-written, in-memory StreamerRepository
// used in unit tests.
type MockStreamerRepository struct {
	mu        sync.RWMutex
	streamers []domain.Streamer

	ListErr error
}

func NewMockStreamerRepository(streamers ...domain.Streamer) *MockStreamerRepository {
	return &MockStreamerRepository{streamers: streamers}
}

// Set replaces the tracked list.
func (m *MockStreamerRepository) Set(streamers ...domain.Streamer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamers = streamers
}

func (m *MockStreamerRepository) ListTracked(_ context.Context) ([]domain.Streamer, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Streamer, len(m.streamers))
	copy(out, m.streamers)
	return out, nil
}

func (m *MockStreamerRepository) SetPriority(_ context.Context, streamerID string, p domain.Priority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.streamers {
		if m.streamers[i].ID == streamerID {
			m.streamers[i].Priority = p
			return nil
		}
	}
	return domain.ErrNotFound
}
