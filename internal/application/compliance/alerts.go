package compliance

import (
	"context"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
)

// AlertService applies operator transitions through the status guard.
type AlertService struct {
	alerts  alert.Repository
	events  EventPublisher
	metrics *prometheus.ComplianceMetrics
	clock   Clock
	logger  logging.Logger
}

func NewAlertService(alerts alert.Repository, events EventPublisher, metrics *prometheus.ComplianceMetrics, logger logging.Logger) *AlertService {
	if events == nil {
		events = NewNopPublisher()
	}
	if metrics == nil {
		metrics = prometheus.NewNopMetrics()
	}
	return &AlertService{alerts: alerts, events: events, metrics: metrics, clock: defaultClock, logger: logger}
}

// Acknowledge marks a live alert as seen. It stays live and keeps escalating.
func (s *AlertService) Acknowledge(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error) {
	return s.transition(ctx, organizationID, id, alert.StatusAcknowledged, actor)
}

// Dismiss closes an alert without the obligation being fulfilled.
func (s *AlertService) Dismiss(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error) {
	return s.transition(ctx, organizationID, id, alert.StatusDismissed, actor)
}

// Resolve closes an alert as handled.
func (s *AlertService) Resolve(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error) {
	return s.transition(ctx, organizationID, id, alert.StatusResolved, actor)
}

func (s *AlertService) transition(ctx context.Context, organizationID, id string, to alert.Status, actor string) (*alert.Alert, error) {
	a, err := s.alerts.Get(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	version := a.Version
	if err := a.Transition(to, actor, s.clock()); err != nil {
		return nil, err
	}
	if err := s.alerts.Update(ctx, a, version); err != nil {
		return nil, err
	}

	// Operator transitions are reported under the target status name.
	kind := alert.TransitionKind(to)
	s.metrics.RecordTransition(string(kind))
	s.logger.Info("alert transitioned",
		logging.OrgID(organizationID), logging.AlertID(id),
		logging.String("status", string(to)), logging.String("actor", actor))
	ev := AlertTransitionEvent{Kind: kind, Previous: a.Severity, Alert: a}
	if err := s.events.PublishEvent(ctx, kafka.TopicAlertTransitioned, kafka.EventAlertTransitioned, organizationID, ev); err != nil {
		s.logger.Warn("failed to publish alert transition", logging.AlertID(id), logging.Err(err))
	}
	return a, nil
}

//Personal.AI order the ending
