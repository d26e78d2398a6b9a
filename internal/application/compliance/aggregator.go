package compliance

import (
	"context"
	"sort"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// EntityFailure is one entity skipped because its due date could not be
// computed.
type EntityFailure struct {
	Ref    obligation.EntityRef `json:"entity_ref"`
	Reason string               `json:"reason"`
}

// AggregateResult is one consistent snapshot set of an organization.
type AggregateResult struct {
	OrganizationID string                `json:"organization_id"`
	AsOf           time.Time             `json:"as_of"`
	Snapshots      []obligation.Snapshot `json:"snapshots"`
	Failures       []EntityFailure       `json:"failures,omitempty"`
	// Policy is the policy the snapshots were classified under. Scoring
	// the result must use it, not a later reload.
	Policy obligation.Policy `json:"-"`
}

// Held lists the refs whose alerts must be left alone this pass.
func (r *AggregateResult) Held() []obligation.EntityRef {
	out := make([]obligation.EntityRef, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.Ref
	}
	return out
}

// Unscheduled lists refs without a computable due date.
func (r *AggregateResult) Unscheduled() []obligation.EntityRef {
	var out []obligation.EntityRef
	for _, s := range r.Snapshots {
		if s.Unscheduled {
			out = append(out, s.Ref)
		}
	}
	return out
}

// Aggregator loads an organization's trackable entities and classifies them.
type Aggregator struct {
	entities obligation.Repository
	policy   *PolicySource
	metrics  *prometheus.ComplianceMetrics
	logger   logging.Logger
}

func NewAggregator(entities obligation.Repository, policy *PolicySource, metrics *prometheus.ComplianceMetrics, logger logging.Logger) *Aggregator {
	return &Aggregator{entities: entities, policy: policy, metrics: metrics, logger: logger}
}

// Aggregate produces the snapshots of organizationID as of asOf, sorted by
// entity ref. Entities that fail calculation are reported in Failures and
// never abort the run; only a load failure does.
func (a *Aggregator) Aggregate(ctx context.Context, organizationID string, asOf time.Time) (*AggregateResult, error) {
	entities, err := a.entities.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load tracked entities").WithDetail(organizationID)
	}

	policy := a.policy.Get()
	res := &AggregateResult{OrganizationID: organizationID, AsOf: asOf, Policy: policy}
	for _, e := range entities {
		if !e.IsTrackable() {
			continue
		}
		snap, err := obligation.Snap(e, asOf, policy)
		if err != nil {
			ref := e.Ref()
			a.logger.Warn("skipping entity with invalid schedule",
				logging.OrgID(organizationID),
				logging.EntityRef(ref.String()),
				logging.Stage("aggregate"),
				logging.Err(err))
			a.metrics.RecordCalculationError(string(e.Kind))
			res.Failures = append(res.Failures, EntityFailure{Ref: ref, Reason: errors.Reason(err)})
			continue
		}
		res.Snapshots = append(res.Snapshots, snap)
	}

	sort.Slice(res.Snapshots, func(i, j int) bool { return res.Snapshots[i].Ref.Less(res.Snapshots[j].Ref) })
	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].Ref.Less(res.Failures[j].Ref) })
	return res, nil
}

// WriteBack stores the computed due dates and tiers on the source rows.
func (a *Aggregator) WriteBack(ctx context.Context, res *AggregateResult) error {
	if len(res.Snapshots) == 0 {
		return nil
	}
	rows := make([]obligation.Computed, len(res.Snapshots))
	for i, s := range res.Snapshots {
		rows[i] = obligation.Computed{
			Ref:         s.Ref,
			DueDate:     s.DueDate,
			Severity:    s.Severity,
			Unscheduled: s.Unscheduled,
			ComputedAt:  res.AsOf,
		}
	}
	return a.entities.SaveComputed(ctx, res.OrganizationID, rows)
}

//Personal.AI order the ending
