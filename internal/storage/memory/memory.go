// Package memory is an in-process Storage used by tests and by the
// "memory" catalog driver.
package memory

import (
	"context"
	"sync"

	"github.com/freeplay/yourleague-service/internal/types/media"
)

type Memory struct {
	mu      sync.RWMutex
	records []media.VideoRecord
}

func New() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, rec media.VideoRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) ListByMatch(_ context.Context, matchID string) ([]media.VideoRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]media.VideoRecord, 0)
	for _, rec := range m.records {
		if rec.MatchID == matchID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) All(_ context.Context) ([]media.VideoRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]media.VideoRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory) Close() error { return nil }
