package redis

import (
	"context"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
)

// Guard hands out per-name leases so that work on one name never overlaps
// across processes.
type Guard struct {
	client *Client
	ttl    time.Duration
}

// NewGuard returns a guard whose leases expire after ttl unless renewed by
// the holder's watchdog.
func NewGuard(client *Client, ttl time.Duration) *Guard {
	return &Guard{client: client, ttl: ttl}
}

// TryAcquire takes the lease on name without waiting. ok is false when another
// holder has it. release is safe to call once.
func (g *Guard) TryAcquire(ctx context.Context, name string) (release func(), ok bool, err error) {
	m := g.client.NewMutex(name, g.ttl)
	ok, err = m.TryLock(ctx)
	if err != nil || !ok {
		return func() {}, ok, err
	}
	return func() {
		// The caller's context may already be cancelled when releasing.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Unlock(ctx); err != nil {
			g.client.logger.Warn("failed to release guard", logging.String("name", name), logging.Err(err))
		}
	}, true, nil
}

//Personal.AI order the ending
