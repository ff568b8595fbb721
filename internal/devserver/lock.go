package devserver

import (
	"context"
	"sync"

	redisclient "github.com/auralis-health/clinical-console/internal/redis"
)

// mutexLocker serializes booking checks in-process. It is the default when
// no Redis is configured; a single devserver instance needs nothing more.
type mutexLocker struct {
	mu sync.Mutex
}

func NewMutexLocker() redisclient.Locker {
	return &mutexLocker{}
}

func (l *mutexLocker) WithBookingLock(ctx context.Context, _, _, _ string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}
