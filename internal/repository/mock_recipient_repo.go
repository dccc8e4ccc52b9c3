package repository

import (
	"context"
	"sync"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

type settingsKey struct{ recipientID, streamerID string }

// MockRecipientRepository is a hand-written, in-memory RecipientRepository
// used in unit tests.
type MockRecipientRepository struct {
	mu            sync.RWMutex
	direct        map[string][]domain.Recipient
	groups        map[string][]domain.Recipient
	userSettings  map[settingsKey]domain.UserSettings
	groupSettings map[settingsKey]domain.GroupSettings

	ListDirectErr  error
	ListGroupsErr  error
	SettingsErr    error
	ListDirectCall int
}

func NewMockRecipientRepository() *MockRecipientRepository {
	return &MockRecipientRepository{
		direct:        make(map[string][]domain.Recipient),
		groups:        make(map[string][]domain.Recipient),
		userSettings:  make(map[settingsKey]domain.UserSettings),
		groupSettings: make(map[settingsKey]domain.GroupSettings),
	}
}

// AddDirect registers a user tracking streamerID.
func (m *MockRecipientRepository) AddDirect(streamerID string, r domain.Recipient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Kind = domain.RecipientDirect
	m.direct[streamerID] = append(m.direct[streamerID], r)
}

// AddGroup registers a group linked to streamerID.
func (m *MockRecipientRepository) AddGroup(streamerID string, r domain.Recipient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Kind = domain.RecipientGroup
	m.groups[streamerID] = append(m.groups[streamerID], r)
}

func (m *MockRecipientRepository) ListDirect(_ context.Context, streamerID string) ([]domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListDirectCall++
	if m.ListDirectErr != nil {
		return nil, m.ListDirectErr
	}
	return append([]domain.Recipient(nil), m.direct[streamerID]...), nil
}

func (m *MockRecipientRepository) ListGroups(_ context.Context, streamerID string) ([]domain.Recipient, error) {
	if m.ListGroupsErr != nil {
		return nil, m.ListGroupsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Recipient(nil), m.groups[streamerID]...), nil
}

func (m *MockRecipientRepository) GetUserSettings(_ context.Context, userID, streamerID string) (domain.UserSettings, error) {
	if m.SettingsErr != nil {
		return domain.UserSettings{}, m.SettingsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.userSettings[settingsKey{userID, streamerID}]
	if !ok {
		return domain.UserSettings{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *MockRecipientRepository) GetGroupSettings(_ context.Context, groupID, streamerID string) (domain.GroupSettings, error) {
	if m.SettingsErr != nil {
		return domain.GroupSettings{}, m.SettingsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.groupSettings[settingsKey{groupID, streamerID}]
	if !ok {
		return domain.GroupSettings{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *MockRecipientRepository) SetUserSettings(_ context.Context, userID, streamerID string, s domain.UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userSettings[settingsKey{userID, streamerID}] = s
	return nil
}

func (m *MockRecipientRepository) SetGroupSettings(_ context.Context, groupID, streamerID string, s domain.GroupSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groupSettings[settingsKey{groupID, streamerID}] = s
	return nil
}
