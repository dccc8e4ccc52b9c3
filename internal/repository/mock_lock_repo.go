package repository

import (
	"context"
	"sync"
	"time"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// MockLockRepository is an in-memory LockRepository with an injectable
// clock, so staleness can be tested without waiting.
type MockLockRepository struct {
	mu         sync.Mutex
	lock       *domain.SchedulerLock
	staleAfter time.Duration

	Now func() time.Time

	// Optional error overrides; set them before handing the mock to
	// concurrent code.
	AcquireErr error
	RenewErr   error
	ReleaseErr error
}

func NewMockLockRepository(staleAfter time.Duration) *MockLockRepository {
	return &MockLockRepository{staleAfter: staleAfter, Now: time.Now}
}

// Force installs a lock row directly, bypassing acquisition rules.
func (m *MockLockRepository) Force(l domain.SchedulerLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = domain.SchedulerLockID
	m.lock = &l
}

func (m *MockLockRepository) TryAcquire(_ context.Context, instanceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireErr != nil {
		return false, m.AcquireErr
	}
	now := m.Now()

	switch {
	case m.lock == nil, m.lock.IsStale(now, m.staleAfter):
		m.lock = &domain.SchedulerLock{
			ID:          domain.SchedulerLockID,
			InstanceID:  instanceID,
			AcquiredAt:  now,
			HeartbeatAt: now,
		}
		return true, nil
	case m.lock.InstanceID == instanceID:
		m.lock.HeartbeatAt = now
		return true, nil
	}
	return false, nil
}

func (m *MockLockRepository) Renew(_ context.Context, instanceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RenewErr != nil {
		return false, m.RenewErr
	}
	if m.lock == nil || m.lock.InstanceID != instanceID {
		return false, nil
	}
	m.lock.HeartbeatAt = m.Now()
	return true, nil
}

func (m *MockLockRepository) Release(_ context.Context, instanceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReleaseErr != nil {
		return m.ReleaseErr
	}
	if m.lock != nil && m.lock.InstanceID == instanceID {
		m.lock = nil
	}
	return nil
}

func (m *MockLockRepository) Get(_ context.Context) (*domain.SchedulerLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lock == nil {
		return nil, domain.ErrNotFound
	}
	clone := *m.lock
	return &clone, nil
}
