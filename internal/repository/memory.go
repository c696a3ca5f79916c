package repository

import (
	"context"
	"sort"
	"sync"

	"campus/companion/internal/model"
)

// MemoryStore keeps users, settings and history in process memory. Its
// contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]model.User
	emails   map[string]string
	settings map[string]model.TimerSettings
	records  map[string][]model.SessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]model.User),
		emails:   make(map[string]string),
		settings: make(map[string]model.TimerSettings),
		records:  make(map[string][]model.SessionRecord),
	}
}

func (m *MemoryStore) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.emails[user.Email]; ok {
		return ErrDuplicate
	}
	if _, ok := m.users[user.ID]; ok {
		return ErrDuplicate
	}
	m.users[user.ID] = *user
	m.emails[user.Email] = user.ID
	return nil
}

func (m *MemoryStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	id, ok := m.emails[email]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) GetSettings(_ context.Context, userID string) (*model.TimerSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	settings, ok := m.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &settings, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, settings *model.TimerSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.UserID] = *settings
	return nil
}

func (m *MemoryStore) InsertRecord(_ context.Context, record *model.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.records[record.UserID] {
		if existing.ID == record.ID {
			return ErrDuplicate
		}
	}
	m.records[record.UserID] = append(m.records[record.UserID], *record)
	return nil
}

func (m *MemoryStore) ListRecords(_ context.Context, userID string, limit int) ([]model.SessionRecord, error) {
	m.mu.RLock()
	stored := m.records[userID]
	records := make([]model.SessionRecord, len(stored))
	copy(records, stored)
	m.mu.RUnlock()

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
