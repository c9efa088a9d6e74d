package ports

import (
	"context"
	"transfer-tracking-service/internal/domain"
)

// Port: pushes a snapshot of the whole record table to a hosted repository
// after a local save.
type RemoteSync interface {
	Push(ctx context.Context, records []domain.Record, message string) error
}
