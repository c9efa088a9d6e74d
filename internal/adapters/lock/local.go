// Package lock provides WriteLock implementations that serialize record
// table rewrites.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when the lock could not be taken in time.
var ErrLockTimeout = errors.New("write lock: timed out waiting for lock")

// Local serializes writers inside one process.
type Local struct {
	ch      chan struct{}
	timeout time.Duration
}

// NewLocal returns an in-process lock. A zero timeout waits as long as ctx allows.
func NewLocal(timeout time.Duration) *Local {
	return &Local{ch: make(chan struct{}, 1), timeout: timeout}
}

func (l *Local) Acquire(ctx context.Context) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() { once.Do(func() { <-l.ch }) }, nil
}
