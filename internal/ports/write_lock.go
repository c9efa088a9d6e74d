package ports

import "context"

// WriteLock serializes load -> mutate -> rewrite cycles on the record table.
type WriteLock interface {
	// Block until the lock is held or ctx ends. The returned func releases it.
	Acquire(ctx context.Context) (release func(), err error)
}
