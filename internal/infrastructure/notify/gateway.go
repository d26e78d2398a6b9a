package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// gatewayRequest is the body POSTed to every HTTP gateway.
type gatewayRequest struct {
	Channel   string `json:"channel"`
	To        string `json:"to"`
	From      string `json:"from,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
	Reference string `json:"reference"`
}

type gatewayResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// GatewaySender delivers email, SMS or WhatsApp messages through an HTTP
// gateway. The job's dedup key is sent as the idempotency reference so that
// a gateway that already accepted it can drop a redelivery.
type GatewaySender struct {
	channel notification.Channel
	http    *resty.Client
	from    string
	logger  logging.Logger
}

// NewGatewaySender builds a sender for channel. Retries are left to the
// deliverer, so the client itself never retries.
func NewGatewaySender(channel notification.Channel, cfg config.GatewayEndpoint, log logging.Logger) *GatewaySender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &GatewaySender{channel: channel, http: client, from: cfg.Sender, logger: log.Named("gateway." + string(channel))}
}

func (g *GatewaySender) Channel() notification.Channel { return g.channel }

// Send posts the rendered job to /v1/messages.
//
// 2xx is success; 408, 429 and 5xx are transient; every other status is
// permanent. Transport errors and timeouts are transient.
func (g *GatewaySender) Send(ctx context.Context, job *notification.Job) error {
	ch := string(g.channel)
	if job.Address == "" {
		return errors.NewDispatchError(ch, false, errors.InvalidParam("recipient has no address for channel"))
	}

	msg := notification.Render(job)
	req := gatewayRequest{
		Channel:   ch,
		To:        job.Address,
		From:      g.from,
		Body:      msg.Body,
		Reference: job.DedupKey,
	}
	if g.channel == notification.ChannelEmail {
		req.Subject = msg.Subject
	}

	var result gatewayResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", job.DedupKey).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/v1/messages")
	if err != nil {
		g.logger.Warn("gateway request failed", logging.String("job_id", job.ID), logging.Err(err))
		return errors.NewDispatchError(ch, true, err)
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		g.logger.Debug("gateway accepted message",
			logging.String("job_id", job.ID), logging.String("message_id", result.MessageID))
		return nil
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return errors.NewDispatchError(ch, true, gatewayError(status, result.Error))
	default:
		return errors.NewDispatchError(ch, false, gatewayError(status, result.Error))
	}
}

func gatewayError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return errors.Newf(errors.ErrCodeExternalService, "gateway returned %d: %s", status, msg)
}

//Personal.AI order the ending
