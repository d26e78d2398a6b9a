// Package client is the Go SDK for the ComplianceSentinel HTTP API.
package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/turtacn/ComplianceSentinel/pkg/errors"
	"github.com/turtacn/ComplianceSentinel/pkg/types/common"
)

const Version = "0.1.0"

// apiPrefix is where the server mounts the organization API.
const apiPrefix = "/api/v1"

// ErrInvalidConfig is returned by NewClient for unusable settings.
var ErrInvalidConfig = errors.New(errors.ErrCodeValidation, "invalid client configuration")

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client talks to one ComplianceSentinel API server.
type Client struct {
	baseURL      string
	apiKey       string
	userAgent    string
	logger       Logger
	httpClient   *http.Client
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	http *resty.Client

	compliance     *ComplianceClient
	complianceOnce sync.Once
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("sentinel: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, msg, e.RequestID)
}

func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsConflict covers invalid alert transitions and overlapping sweeps.
func (e *APIError) IsConflict() bool { return e.StatusCode == http.StatusConflict }

func (e *APIError) IsValidation() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient creates a client for the server at baseURL (scheme and host,
// without the /api/v1 prefix).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: baseURL is required", ErrInvalidConfig)
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid baseURL: %v", ErrInvalidConfig, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: baseURL scheme must be http or https", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		userAgent:    fmt.Sprintf("sentinel-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = c.newTransport()
	return c, nil
}

func (c *Client) newTransport() *resty.Client {
	r := resty.NewWithClient(c.httpClient).
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", c.userAgent).
		SetRetryCount(c.retryMax).
		SetRetryWaitTime(c.retryWaitMin).
		SetRetryMaxWaitTime(c.retryWaitMax).
		SetRetryAfter(retryAfter).
		AddRetryCondition(shouldRetry).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			c.logger.Debugf("%s %s %d (%v)", resp.Request.Method, resp.Request.URL, resp.StatusCode(), resp.Time())
			return nil
		})
	if c.apiKey != "" {
		r.SetAuthToken(c.apiKey)
	}
	return r
}

// Compliance returns the compliance sub-client.
func (c *Client) Compliance() *ComplianceClient {
	c.complianceOnce.Do(func() {
		c.compliance = &ComplianceClient{client: c}
	})
	return c.compliance
}

// Ping calls the server's liveness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.request(ctx).Get("/healthz")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetHeader("X-Request-ID", uuid.NewString())
}

// do executes req and decodes the envelope's data into out. The returned
// pagination is nil for non-list endpoints.
func (c *Client) do(req *resty.Request, method, path string, out interface{}) (*common.Pagination, error) {
	resp, err := req.Execute(method, apiPrefix+path)
	if err != nil {
		c.logger.Errorf("request failed: %s %s: %v", method, path, err)
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}

	var env common.APIResponse[json.RawMessage]
	if body := resp.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return env.Pagination, nil
}

func decodeError(resp *resty.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		RequestID:  resp.Header().Get("X-Request-ID"),
	}
	var env common.APIResponse[json.RawMessage]
	if err := json.Unmarshal(resp.Body(), &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Detail = env.Error.Detail
		if env.RequestID != "" {
			apiErr.RequestID = env.RequestID
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(apiErr.StatusCode)
	}
	return apiErr
}

// shouldRetry retries transport errors, 429 and 5xx. POSTs change state, so
// they are retried only when the server cannot have processed them.
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	status := resp.StatusCode()
	if resp.Request != nil && resp.Request.Method == http.MethodPost {
		return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
	}
	return status == http.StatusTooManyRequests || status >= 500
}

// retryAfter honours a Retry-After header in seconds; zero falls back to
// jittered exponential backoff.
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil {
		return 0, nil
	}
	if s, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil && s > 0 {
		return time.Duration(s) * time.Second, nil
	}
	return 0, nil
}

//Personal.AI order the ending
