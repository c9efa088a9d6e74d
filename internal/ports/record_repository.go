package ports

import (
	"context"
	"transfer-tracking-service/internal/domain"
)

// Port: the tabular persistence medium holding every Record.
//
// The medium has no row-level updates. Every save replaces the whole table.
type RecordRepository interface {
	// Report whether the table exists yet.
	Exists(ctx context.Context) (bool, error)
	// Read all rows in insertion order. Columns missing from older tables
	// are returned as empty values. An absent table yields no records.
	LoadAll(ctx context.Context) ([]domain.Record, error)
	// Replace the whole table with records, preserving their order.
	RewriteAll(ctx context.Context, records []domain.Record) error
}
