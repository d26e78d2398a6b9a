// Package notify routes notification jobs to channel senders.
package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// ChannelSender delivers jobs of one channel. Failures must be dispatch
// errors so the deliverer can tell transient from permanent.
type ChannelSender interface {
	Channel() notification.Channel
	Send(ctx context.Context, job *notification.Job) error
}

// Registry dispatches by job channel.
type Registry struct {
	mu      sync.RWMutex
	senders map[notification.Channel]ChannelSender
}

func NewRegistry(senders ...ChannelSender) *Registry {
	r := &Registry{senders: make(map[notification.Channel]ChannelSender)}
	for _, s := range senders {
		r.Register(s)
	}
	return r
}

// Register adds or replaces the sender for its channel.
func (r *Registry) Register(s ChannelSender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[s.Channel()] = s
}

// Channels lists the channels that have a sender.
func (r *Registry) Channels() []notification.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]notification.Channel, 0, len(r.senders))
	for ch := range r.senders {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Send delivers job through its channel's sender. A channel without a
// sender is a permanent failure.
func (r *Registry) Send(ctx context.Context, job *notification.Job) error {
	r.mu.RLock()
	s, ok := r.senders[job.Channel]
	r.mu.RUnlock()
	if !ok {
		return errors.NewDispatchError(string(job.Channel), false,
			errors.New(errors.ErrCodeChannelUnsupported, "no sender configured for channel"))
	}
	return s.Send(ctx, job)
}

//Personal.AI order the ending
