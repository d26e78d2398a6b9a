package notification

import (
	"context"
	"time"
)

// JobFilter narrows delivery-log listings.
type JobFilter struct {
	AlertID  string
	Statuses []Status
	Channel  Channel
	Limit    int
	Offset   int
}

// JobRepository persists notification jobs. Enqueue must fail with a
// duplicate-notification error when the dedup key already exists; that
// constraint lives in storage so that concurrent dispatchers cannot both win.
type JobRepository interface {
	Enqueue(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, organizationID string, f JobFilter) ([]*Job, int64, error)
	// ListDue returns pending jobs with NotBefore <= now, most severe first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)
	// Claim takes job for one delivery attempt. It succeeds only while the
	// stored job is still pending, due at now and at job.Attempt; it then
	// increments the attempt and hides the job from ListDue until
	// now+lease. A false return means another deliverer owns the job.
	Claim(ctx context.Context, job *Job, now time.Time, lease time.Duration) (bool, error)
	// UpdateStatus persists status, attempt, not_before, last_error and
	// sent_at, provided the stored job is still pending at job.Attempt.
	// Otherwise it fails with a conflict error and changes nothing.
	UpdateStatus(ctx context.Context, job *Job) error
}

// MemberRepository resolves the recipients of an organization.
type MemberRepository interface {
	ListActive(ctx context.Context, organizationID string) ([]Member, error)
}

//Personal.AI order the ending
