package compliance

import (
	"context"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/domain/score"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
)

// Overview is the read model of an organization's compliance state.
type Overview struct {
	Score        score.ComplianceScore  `json:"score"`
	ActiveAlerts []*alert.Alert         `json:"active_alerts"`
	Unscheduled  []obligation.EntityRef `json:"unscheduled"`
}

// QueryService serves the read API.
type QueryService struct {
	orgs       obligation.OrganizationRepository
	alerts     alert.Repository
	jobs       notification.JobRepository
	aggregator *Aggregator
	cache      ScoreCache
	scoreTTL   time.Duration
	location   *time.Location
	clock      Clock
	logger     logging.Logger
}

// NewQueryService builds the read side. cache may be nil.
func NewQueryService(orgs obligation.OrganizationRepository, alerts alert.Repository, jobs notification.JobRepository,
	aggregator *Aggregator, cache ScoreCache, scoreTTL time.Duration, location *time.Location,
	logger logging.Logger) *QueryService {
	if location == nil {
		location = time.UTC
	}
	return &QueryService{
		orgs: orgs, alerts: alerts, jobs: jobs, aggregator: aggregator,
		cache: cache, scoreTTL: scoreTTL, location: location, clock: defaultClock, logger: logger,
	}
}

// localNow is the current instant in the organization's timezone, falling
// back to def.
func localNow(now time.Time, org *obligation.Organization, def *time.Location) time.Time {
	if org.Timezone != "" {
		if loc, err := time.LoadLocation(org.Timezone); err == nil {
			return now.In(loc)
		}
	}
	return now.In(def)
}

// Snapshots aggregates the organization as of now.
func (q *QueryService) Snapshots(ctx context.Context, organizationID string) (*AggregateResult, error) {
	org, err := q.orgs.Get(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return q.aggregator.Aggregate(ctx, org.ID, localNow(q.clock(), org, q.location))
}

// Score returns the organization's score, from cache when available.
func (q *QueryService) Score(ctx context.Context, organizationID string) (*score.ComplianceScore, error) {
	load := func(ctx context.Context) (interface{}, error) {
		res, err := q.Snapshots(ctx, organizationID)
		if err != nil {
			return nil, err
		}
		return score.NewScorer(res.Policy).Score(organizationID, res.Snapshots, q.clock()), nil
	}

	var sc score.ComplianceScore
	if q.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		sc = v.(score.ComplianceScore)
		return &sc, nil
	}
	if err := q.cache.GetOrLoad(ctx, scoreKey(organizationID), &sc, q.scoreTTL, load); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Overview returns the live score, the live alerts and the unscheduled refs
// from a single aggregation.
func (q *QueryService) Overview(ctx context.Context, organizationID string) (*Overview, error) {
	res, err := q.Snapshots(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return q.overview(ctx, organizationID, res)
}

func (q *QueryService) overview(ctx context.Context, organizationID string, res *AggregateResult) (*Overview, error) {
	live, err := q.alerts.ListLive(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	unscheduled := res.Unscheduled()
	if unscheduled == nil {
		unscheduled = []obligation.EntityRef{}
	}
	if live == nil {
		live = []*alert.Alert{}
	}
	return &Overview{
		Score:        score.NewScorer(res.Policy).Score(organizationID, res.Snapshots, q.clock()),
		ActiveAlerts: live,
		Unscheduled:  unscheduled,
	}, nil
}

// ListAlerts pages through alerts.
func (q *QueryService) ListAlerts(ctx context.Context, organizationID string, f alert.ListFilter) ([]*alert.Alert, int64, error) {
	return q.alerts.List(ctx, organizationID, f)
}

// GetAlert returns one alert.
func (q *QueryService) GetAlert(ctx context.Context, organizationID, id string) (*alert.Alert, error) {
	return q.alerts.Get(ctx, organizationID, id)
}

// ListNotifications pages through the delivery log.
func (q *QueryService) ListNotifications(ctx context.Context, organizationID string, f notification.JobFilter) ([]*notification.Job, int64, error) {
	return q.jobs.List(ctx, organizationID, f)
}

//Personal.AI order the ending
