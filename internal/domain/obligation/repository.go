package obligation

import (
	"context"
	"time"
)

// Repository loads tracked entities from the data store and writes back the
// computed caches.
type Repository interface {
	// ListByOrganization returns every entity of every kind for the
	// organization, including soft-deleted ones and those of inactive owners;
	// filtering is the aggregator's job.
	ListByOrganization(ctx context.Context, organizationID string) ([]TrackedEntity, error)

	// SaveComputed writes the computed due date and severity caches back to
	// the source rows.
	SaveComputed(ctx context.Context, organizationID string, computed []Computed) error
}

// Computed is one due-date/severity cache row.
type Computed struct {
	Ref         EntityRef
	DueDate     *time.Time
	Severity    Tier
	Unscheduled bool
	ComputedAt  time.Time
}

// Organization is a tenant subject to sweeps.
type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Active   bool   `json:"active"`
}

// OrganizationRepository lists the tenants a sweep fans out to.
type OrganizationRepository interface {
	ListActive(ctx context.Context) ([]Organization, error)
	Get(ctx context.Context, id string) (*Organization, error)
}

//Personal.AI order the ending
