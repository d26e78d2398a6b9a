// Package mqtt delivers push notifications over an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// pahoClient is the subset of paho.Client used here.
type pahoClient interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// PushSender publishes alert notifications to the member's push topic under
// the configured prefix.
type PushSender struct {
	client         pahoClient
	qos            byte
	topicPrefix    string
	publishTimeout time.Duration
	logger         logging.Logger
}

// NewPushSender connects to the broker. The client reconnects on its own;
// publishes while disconnected fail as transient.
func NewPushSender(cfg config.MQTTConfig, log logging.Logger) (*PushSender, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(durationOr(cfg.ConnectTimeout, 10*time.Second))
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn("MQTT connection lost", logging.Err(err))
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(durationOr(cfg.ConnectTimeout, 10*time.Second)) {
		return nil, errors.New(errors.ErrCodeExternalService, "mqtt connect timed out").WithDetail(cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to connect to MQTT broker")
	}
	log.Info("MQTT push sender connected", logging.String("broker", cfg.BrokerURL))

	return newPushSender(client, cfg, log), nil
}

func newPushSender(client pahoClient, cfg config.MQTTConfig, log logging.Logger) *PushSender {
	return &PushSender{
		client:         client,
		qos:            byte(cfg.QoS),
		topicPrefix:    strings.TrimSuffix(cfg.TopicPrefix, "/"),
		publishTimeout: durationOr(cfg.PublishTimeout, 5*time.Second),
		logger:         log,
	}
}

func durationOr(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

// pushPayload is the JSON document received by the mobile client.
type pushPayload struct {
	JobID          string `json:"job_id"`
	AlertID        string `json:"alert_id"`
	OrganizationID string `json:"organization_id"`
	EntityRef      string `json:"entity_ref"`
	Severity       string `json:"severity"`
	Trigger        string `json:"trigger"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	DedupKey       string `json:"dedup_key"`
}

// Channel implements the sender contract.
func (s *PushSender) Channel() notification.Channel { return notification.ChannelPush }

// Send publishes job to <prefix>/<address>.
func (s *PushSender) Send(ctx context.Context, job *notification.Job) error {
	if job.Address == "" {
		return errors.NewDispatchError(string(notification.ChannelPush), false, errors.InvalidParam("member has no push topic"))
	}
	if !s.client.IsConnected() {
		return errors.NewDispatchError(string(notification.ChannelPush), true, errors.New(errors.ErrCodeServiceUnavailable, "mqtt broker not connected"))
	}

	msg := notification.Render(job)
	payload, err := json.Marshal(pushPayload{
		JobID:          job.ID,
		AlertID:        job.AlertID,
		OrganizationID: job.OrganizationID,
		EntityRef:      job.Ref.String(),
		Severity:       job.Severity.String(),
		Trigger:        string(job.Trigger),
		Subject:        msg.Subject,
		Body:           msg.Body,
		DedupKey:       job.DedupKey,
	})
	if err != nil {
		return errors.NewDispatchError(string(notification.ChannelPush), false, err)
	}

	topic := s.topicPrefix + "/" + strings.TrimPrefix(job.Address, "/")
	token := s.client.Publish(topic, s.qos, false, payload)

	timeout := s.publishTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if !token.WaitTimeout(timeout) {
		return errors.NewDispatchError(string(notification.ChannelPush), true, errors.New(errors.ErrCodeTimeout, "mqtt publish timed out"))
	}
	if err := token.Error(); err != nil {
		return errors.NewDispatchError(string(notification.ChannelPush), true, err)
	}

	s.logger.Debug("push notification published", logging.String("topic", topic), logging.String("job_id", job.ID))
	return nil
}

// Close disconnects from the broker.
func (s *PushSender) Close() {
	s.client.Disconnect(250)
}

//Personal.AI order the ending
