package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

// Document keys used by the application.
const (
	KeyReminders       = "reminders"
	KeyAlarms          = "alarms"
	KeyDailyQuests     = "dailyQuests"
	KeyPlayerStats     = "playerStats"
	KeyLastQuestDate   = "lastQuestDate"
	KeyLastCloudSync   = "lastCloudSync"
	KeyLastLocalChange = "lastLocalChange"
)

type Document struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// Repository is a flat key/value store of JSON documents.
type Repository interface {
	Get(ctx context.Context, key string) (Document, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryRepository keeps documents in process memory. It backs sessions that
// run without a storage path.
type MemoryRepository struct {
	mu    sync.RWMutex
	docs  map[string]Document
	clock func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: map[string]Document{}, clock: time.Now}
}

func (m *MemoryRepository) Get(_ context.Context, key string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Value = append([]byte(nil), doc.Value...)
	return doc, nil
}

func (m *MemoryRepository) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = Document{Key: key, Value: append([]byte(nil), value...), UpdatedAt: m.clock().UTC()}
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *MemoryRepository) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.docs))
	for key := range m.docs {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}
