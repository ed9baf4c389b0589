package session

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"sync"
	"time"
)

// ErrNotFound is returned by Store.Get for unknown or expired sessions.
var ErrNotFound = errors.New("session: not found")

// Store persists session records. Set applies only the given key changes and
// must be atomic for a single call.
type Store interface {
	Get(ctx context.Context, id string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, id string, set map[string]json.RawMessage, del []string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[string]*memoryRecord
}

type memoryRecord struct {
	values    map[string]json.RawMessage
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, records: map[string]*memoryRecord{}}
}

func (m *MemoryStore) Get(_ context.Context, id string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || !m.now().Before(rec.expiresAt) {
		return nil, ErrNotFound
	}
	return maps.Clone(rec.values), nil
}

func (m *MemoryStore) Set(_ context.Context, id string, set map[string]json.RawMessage, del []string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		rec = &memoryRecord{values: map[string]json.RawMessage{}}
		m.records[id] = rec
	}
	for k, v := range set {
		rec.values[k] = v
	}
	for _, k := range del {
		delete(rec.values, k)
	}
	rec.expiresAt = expiresAt
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// PurgeExpired drops expired records and returns how many were removed.
func (m *MemoryStore) PurgeExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for id, rec := range m.records {
		if !now.Before(rec.expiresAt) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}
