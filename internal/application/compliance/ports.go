// Package compliance orchestrates the deadline engine: aggregation, scoring,
// alert reconciliation, notification dispatch and delivery.
package compliance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

// EventPublisher emits domain events. The Kafka event publisher satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType, organizationID string, payload interface{}) error
}

// JobQueue hands persisted jobs to an asynchronous deliverer.
type JobQueue interface {
	Submit(ctx context.Context, job *notification.Job) error
}

// Sender delivers one job over its channel. Errors should be dispatch errors
// so that transient failures can be told apart.
type Sender interface {
	Send(ctx context.Context, job *notification.Job) error
}

// Guard grants exclusive per-name leases.
type Guard interface {
	TryAcquire(ctx context.Context, name string) (release func(), ok bool, err error)
}

// ScoreCache caches computed scores. The redis cache satisfies it.
type ScoreCache interface {
	GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ObjectStore receives exported registers.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Clock returns the current instant.
type Clock func() time.Time

// IDGenerator returns a fresh identifier.
type IDGenerator func() string

func defaultClock() time.Time { return time.Now().UTC() }

func defaultID() string { return uuid.NewString() }

type nopPublisher struct{}

func (nopPublisher) PublishEvent(context.Context, string, string, string, interface{}) error { return nil }

// NewNopPublisher returns a publisher that drops every event.
func NewNopPublisher() EventPublisher { return nopPublisher{} }

// LocalGuard serializes work per name within one process.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalGuard returns an empty in-process guard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]bool)}
}

// TryAcquire takes name if free.
func (g *LocalGuard) TryAcquire(_ context.Context, name string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[name] {
		return func() {}, false, nil
	}
	g.held[name] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, name)
			g.mu.Unlock()
		})
	}, true, nil
}

// PolicySource holds the active policy and lets the worker swap it on config
// reload while sweeps are running.
type PolicySource struct {
	mu     sync.RWMutex
	policy obligation.Policy
}

// NewPolicySource starts from p.
func NewPolicySource(p obligation.Policy) *PolicySource {
	return &PolicySource{policy: p}
}

// Get returns the current policy.
func (s *PolicySource) Get() obligation.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Set replaces the policy after validating it.
func (s *PolicySource) Set(p obligation.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
	return nil
}

//Personal.AI order the ending
