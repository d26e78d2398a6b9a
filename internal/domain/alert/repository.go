package alert

import (
	"context"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

// ListFilter narrows alert listings. Zero values mean "any".
type ListFilter struct {
	Statuses    []Status
	MinSeverity *obligation.Tier
	Kind        obligation.Kind
	Limit       int
	Offset      int
}

// Repository persists alerts. Implementations must enforce the single live
// alert per (organization, entity) rule with a storage-level constraint.
type Repository interface {
	// ListLive returns active and acknowledged alerts of an organization.
	ListLive(ctx context.Context, organizationID string) ([]*Alert, error)
	// LatestDismissed returns, per entity, the severity of its most recent
	// dismissed alert.
	LatestDismissed(ctx context.Context, organizationID string) (map[obligation.EntityRef]obligation.Tier, error)
	List(ctx context.Context, organizationID string, f ListFilter) ([]*Alert, int64, error)
	Get(ctx context.Context, organizationID, id string) (*Alert, error)

	Create(ctx context.Context, a *Alert) error
	// Update writes a only if the stored version equals expectedVersion.
	Update(ctx context.Context, a *Alert, expectedVersion int) error
	// MarkNotified records the dispatched severity without bumping the version.
	MarkNotified(ctx context.Context, id string, severity obligation.Tier) error
}

//Personal.AI order the ending
