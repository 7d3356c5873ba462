package store

import (
	"context"
	"sync"
	"time"
)

type memoryBrowser struct {
	items   map[string]string
	touched time.Time
}

// MemoryStore keeps browser storage in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	browsers map[string]*memoryBrowser
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{browsers: map[string]*memoryBrowser{}, ttl: ttl, now: time.Now}
}

func (m *MemoryStore) GetItems(_ context.Context, browserID string, keys ...string) (map[string]string, error) {
	if browserID == "" {
		return nil, ErrEmptyBrowserID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	b, ok := m.browsers[browserID]
	if !ok {
		return out, nil
	}
	b.touched = m.now()
	if len(keys) == 0 {
		for k, v := range b.items {
			out[k] = v
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := b.items[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryStore) SetItems(_ context.Context, browserID string, items map[string]string) error {
	if browserID == "" {
		return ErrEmptyBrowserID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.browsers[browserID]
	if !ok {
		b = &memoryBrowser{items: map[string]string{}}
		m.browsers[browserID] = b
	}
	for k, v := range items {
		b.items[k] = v
	}
	b.touched = m.now()
	return nil
}

func (m *MemoryStore) RemoveItems(_ context.Context, browserID string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.browsers[browserID]; ok {
		for _, k := range keys {
			delete(b.items, k)
		}
		b.touched = m.now()
	}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, browserID string) error {
	m.mu.Lock()
	delete(m.browsers, browserID)
	m.mu.Unlock()
	return nil
}

// PurgeStale drops browsers untouched for longer than the TTL.
func (m *MemoryStore) PurgeStale(_ context.Context, now time.Time) (int64, error) {
	if m.ttl <= 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.browsers {
		if now.Sub(b.touched) > m.ttl {
			delete(m.browsers, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error               { return nil }
