package repositories

import (
	"context"
	"sync"
	"transfer-tracking-service/internal/domain"
)

// In-memory RecordRepository used by tests and demos.
type MemoryRecordRepository struct {
	mu      sync.Mutex
	records []domain.Record
	exists  bool
	// Rewrites counts RewriteAll calls.
	Rewrites int
}

// Create a repository. With no records the table is treated as absent.
func NewMemoryRecordRepository(records ...domain.Record) *MemoryRecordRepository {
	m := &MemoryRecordRepository{}
	if len(records) > 0 {
		m.records = cloneAll(records)
		m.exists = true
	}
	return m
}

func (m *MemoryRecordRepository) Exists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exists, nil
}

func (m *MemoryRecordRepository) LoadAll(ctx context.Context) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.records), nil
}

func (m *MemoryRecordRepository) RewriteAll(ctx context.Context, records []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = cloneAll(records)
	m.exists = true
	m.Rewrites++
	return nil
}

func cloneAll(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
