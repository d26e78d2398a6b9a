package kafka

import (
	"context"

	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
	"github.com/turtacn/ComplianceSentinel/pkg/types/common"
)

// EventPublisher wraps payloads in an EventEnvelope and publishes them.
type EventPublisher struct {
	producer Publisher
	logger   logging.Logger
}

func NewEventPublisher(producer Publisher, logger logging.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, logger: logger}
}

// PublishEvent publishes payload on topic keyed by organization.
func (p *EventPublisher) PublishEvent(ctx context.Context, topic, eventType, organizationID string, payload interface{}) error {
	env, err := NewEventEnvelope(eventType, organizationID, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(topic)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// DeliveryRequest is the record on the delivery topic. It carries only the
// job identity; the worker reloads the job before delivering.
type DeliveryRequest struct {
	JobID          string `json:"job_id"`
	OrganizationID string `json:"organization_id"`
	Channel        string `json:"channel"`
}

// DeliveryQueue hands persisted jobs to the worker through Kafka.
type DeliveryQueue struct {
	events *EventPublisher
}

func NewDeliveryQueue(producer Publisher, logger logging.Logger) *DeliveryQueue {
	return &DeliveryQueue{events: NewEventPublisher(producer, logger)}
}

// Submit enqueues job for delivery.
func (q *DeliveryQueue) Submit(ctx context.Context, job *notification.Job) error {
	req := DeliveryRequest{JobID: job.ID, OrganizationID: job.OrganizationID, Channel: string(job.Channel)}
	return q.events.PublishEvent(ctx, TopicDeliveryJobs, EventDeliveryRequested, job.OrganizationID, req)
}

// DeliveryHandler adapts a job-delivery function to a consumer handler.
// Malformed records are dropped rather than retried.
func DeliveryHandler(deliver func(ctx context.Context, jobID string) error, logger logging.Logger) common.MessageHandler {
	return func(ctx context.Context, msg *common.Message) error {
		env, err := MessageToEventEnvelope(msg)
		if err != nil {
			logger.Warn("dropping malformed delivery record", logging.Int64("offset", msg.Offset), logging.Err(err))
			return nil
		}
		var req DeliveryRequest
		if err := env.DecodePayload(&req); err != nil || req.JobID == "" {
			logger.Warn("dropping delivery record without job id", logging.Int64("offset", msg.Offset))
			return nil
		}
		if err := deliver(ctx, req.JobID); err != nil {
			if errors.IsNotFound(err) {
				logger.Warn("delivery job no longer exists", logging.String("job_id", req.JobID))
				return nil
			}
			return err
		}
		return nil
	}
}

//Personal.AI order the ending
