package analysis

import (
	"context"
	"sync"
	"time"
)

// memStore is a development-only in-memory store used when no Redis is
// configured. Expired entries are dropped on read and swept on write so
// the map does not grow without bound under distinct positions.
type memStore struct {
	mu  sync.Mutex
	ttl time.Duration

	reports map[string]memEntry
}

type memEntry struct {
	report  Report
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) Store {
	return &memStore{
		ttl:     ttl,
		reports: make(map[string]memEntry),
	}
}

func (m *memStore) key(fen, preset string) string {
	return preset + "|" + fen
}

func (m *memStore) Get(ctx context.Context, fen, preset string) (*Report, error) {
	key := m.key(fen, preset)
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.reports[key]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expires) {
		delete(m.reports, key)
		return nil, nil
	}
	r := entry.report
	return &r, nil
}

func (m *memStore) Put(ctx context.Context, report *Report) error {
	if report == nil {
		return nil
	}
	now := time.Now()
	m.mu.Lock()
	for key, entry := range m.reports {
		if now.After(entry.expires) {
			delete(m.reports, key)
		}
	}
	m.reports[m.key(report.FEN, report.Preset)] = memEntry{
		report:  *report,
		expires: now.Add(m.ttl),
	}
	m.mu.Unlock()
	return nil
}
