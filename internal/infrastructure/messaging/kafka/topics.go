package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
	"github.com/turtacn/ComplianceSentinel/pkg/types/common"
)

const (
	TopicAlertTransitioned     = "compliance.alert.transitioned"
	TopicScoreComputed         = "compliance.score.computed"
	TopicNotificationDelivered = "compliance.notification.delivered"
	TopicDeliveryJobs          = "compliance.delivery.jobs"
	TopicDeadLetter            = "compliance.dead_letter"
)

const (
	EventAlertTransitioned  = "alert.transitioned"
	EventScoreComputed      = "score.computed"
	EventNotificationResult = "notification.result"
	EventDeliveryRequested  = "delivery.requested"
)

const sourceService = "compliance-sentinel"

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID        string            `json:"event_id"`
	EventType      string            `json:"event_type"`
	Source         string            `json:"source"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	SchemaVersion  string            `json:"schema_version"`
	Payload        json.RawMessage   `json:"payload"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope marshals payload into a fresh envelope.
func NewEventEnvelope(eventType, organizationID string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		Source:         sourceService,
		OrganizationID: organizationID,
		Timestamp:      time.Now().UTC(),
		SchemaVersion:  "v1",
		Payload:        data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "empty event payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ToMessage renders the envelope keyed by organization so per-organization
// events keep their order.
func (e *EventEnvelope) ToMessage(topic string) (*common.ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	return &common.ProducerMessage{
		Topic: topic,
		Key:   []byte(e.OrganizationID),
		Value: val,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"source_service": e.Source,
			"schema_version": e.SchemaVersion,
		},
		Timestamp: e.Timestamp,
	}, nil
}

// MessageToEventEnvelope decodes a consumed record.
func MessageToEventEnvelope(msg *common.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager provisions topics at startup.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to dial kafka")
	}
	return &TopicManager{conn: conn, logger: logger}, nil
}

// CreateTopic creates cfg unless it already exists.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg common.TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "partitions and replication factor must be > 0")
	}
	if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
		return nil
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	if err := m.conn.CreateTopics(kCfg); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to create topic").WithDetail(cfg.Name)
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

// TopicExists reports whether the broker knows name.
func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every topic in topics.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []common.TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

const day = int64(24 * 3600 * 1000)

// DefaultTopics lists the topics the engine publishes to.
func DefaultTopics() []common.TopicConfig {
	return []common.TopicConfig{
		{Name: TopicAlertTransitioned, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 90 * day},
		{Name: TopicScoreComputed, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 30 * day},
		{Name: TopicNotificationDelivered, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 30 * day},
		{Name: TopicDeliveryJobs, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 7 * day},
		{Name: TopicDeadLetter, NumPartitions: 1, ReplicationFactor: 1, RetentionMs: 30 * day},
	}
}

//Personal.AI order the ending
