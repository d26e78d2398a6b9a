package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

var ErrLockNotHeld = errors.New(errors.ErrCodeConflict, "lock not held by this owner")

// Mutex is a single-owner lease on a key: SET NX PX with a random token,
// released only by the holder. While held, a watchdog extends the lease so
// that long sweeps do not lose it.
type Mutex struct {
	client   *Client
	key      string
	token    string
	ttl      time.Duration
	interval time.Duration
	logger   logging.Logger

	watchdogCancel context.CancelFunc
	watchdogDone   chan struct{}
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// NewMutex returns an unlocked mutex on lock:<name>.
func (c *Client) NewMutex(name string, ttl time.Duration) *Mutex {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Mutex{
		client:   c,
		key:      c.Key("lock", name),
		token:    uuid.NewString(),
		ttl:      ttl,
		interval: ttl / 3,
		logger:   c.logger,
	}
}

// TryLock acquires the lease without waiting.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	if m.client.isClosed() {
		return false, ErrClientClosed
	}
	ok, err := m.client.rdb.SetNX(ctx, m.key, m.token, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	if ok {
		m.startWatchdog()
	}
	return ok, nil
}

// Unlock releases the lease if still held by this mutex.
func (m *Mutex) Unlock(ctx context.Context) error {
	m.stopWatchdog()
	res, err := unlockScript.Run(ctx, m.client.rdb, []string{m.key}, m.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend pushes the lease expiry to now+ttl.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, m.client.rdb, []string{m.key}, m.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// TTL returns the remaining lease.
func (m *Mutex) TTL(ctx context.Context) (time.Duration, error) {
	return m.client.rdb.PTTL(ctx, m.key).Result()
}

func (m *Mutex) startWatchdog() {
	ctx, cancel := context.WithCancel(context.Background())
	m.watchdogCancel = cancel
	m.watchdogDone = make(chan struct{})
	go m.runWatchdog(ctx)
}

func (m *Mutex) stopWatchdog() {
	if m.watchdogCancel != nil {
		m.watchdogCancel()
		<-m.watchdogDone
		m.watchdogCancel = nil
	}
}

func (m *Mutex) runWatchdog(ctx context.Context) {
	defer close(m.watchdogDone)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := m.Extend(ctx, m.ttl)
			if err != nil {
				if ctx.Err() == nil {
					m.logger.Error("Watchdog failed to extend lock", logging.String("key", m.key), logging.Err(err))
				}
				return
			}
			if !ok {
				m.logger.Warn("Watchdog lost lock", logging.String("key", m.key))
				return
			}
		}
	}
}

//Personal.AI order the ending
