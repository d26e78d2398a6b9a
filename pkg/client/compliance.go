package client

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/turtacn/ComplianceSentinel/pkg/types/compliance"
)

// actorHeader carries the operator performing an alert transition.
const actorHeader = "X-Actor-ID"

// ComplianceClient covers the organization-scoped compliance API.
type ComplianceClient struct {
	client *Client
}

// AlertPage is one page of alerts.
type AlertPage struct {
	Items    []*compliance.Alert
	Total    int64
	Page     int
	PageSize int
}

// NotificationPage is one page of notification jobs.
type NotificationPage struct {
	Items    []*compliance.Notification
	Total    int64
	Page     int
	PageSize int
}

// Register is a downloaded compliance register workbook.
type Register struct {
	FileName    string
	ContentType string
	Data        []byte
}

func orgPath(orgID string, parts ...string) string {
	p := "/organizations/" + url.PathEscape(orgID)
	for _, s := range parts {
		p += "/" + url.PathEscape(s)
	}
	return p
}

func requireID(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfig, name)
	}
	return nil
}

// Score returns the organization's current compliance score.
func (cc *ComplianceClient) Score(ctx context.Context, orgID string) (*compliance.Score, error) {
	if err := requireID("organization id", orgID); err != nil {
		return nil, err
	}
	var out compliance.Score
	if _, err := cc.client.do(cc.client.request(ctx), http.MethodGet, orgPath(orgID, "score"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Overview returns the score, live alerts and unscheduled entities.
func (cc *ComplianceClient) Overview(ctx context.Context, orgID string) (*compliance.Overview, error) {
	if err := requireID("organization id", orgID); err != nil {
		return nil, err
	}
	var out compliance.Overview
	if _, err := cc.client.do(cc.client.request(ctx), http.MethodGet, orgPath(orgID, "overview"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAlerts lists alerts matching f.
func (cc *ComplianceClient) ListAlerts(ctx context.Context, orgID string, f compliance.AlertFilter) (*AlertPage, error) {
	if err := requireID("organization id", orgID); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	q := url.Values{}
	if len(f.Statuses) > 0 {
		s := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			s[i] = string(st)
		}
		q.Set("status", strings.Join(s, ","))
	}
	if f.MinSeverity != "" {
		q.Set("min_severity", string(f.MinSeverity))
	}
	if f.Kind != "" {
		q.Set("kind", string(f.Kind))
	}
	setPage(q, f.Page, f.PageSize)

	var items []*compliance.Alert
	p, err := cc.client.do(cc.client.request(ctx).SetQueryParamsFromValues(q), http.MethodGet, orgPath(orgID, "alerts"), &items)
	if err != nil {
		return nil, err
	}
	page := &AlertPage{Items: items}
	if p != nil {
		page.Total, page.Page, page.PageSize = p.Total, p.Page, p.PageSize
	}
	return page, nil
}

// GetAlert fetches one alert.
func (cc *ComplianceClient) GetAlert(ctx context.Context, orgID, alertID string) (*compliance.Alert, error) {
	if err := requireID("alert id", alertID); err != nil {
		return nil, err
	}
	var out compliance.Alert
	if _, err := cc.client.do(cc.client.request(ctx), http.MethodGet, orgPath(orgID, "alerts", alertID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Acknowledge marks an active alert as seen by actor.
func (cc *ComplianceClient) Acknowledge(ctx context.Context, orgID, alertID, actor string) (*compliance.Alert, error) {
	return cc.transition(ctx, orgID, alertID, actor, "acknowledge")
}

// Dismiss closes a live alert without resolving the underlying obligation.
func (cc *ComplianceClient) Dismiss(ctx context.Context, orgID, alertID, actor string) (*compliance.Alert, error) {
	return cc.transition(ctx, orgID, alertID, actor, "dismiss")
}

// Resolve closes a live alert as handled.
func (cc *ComplianceClient) Resolve(ctx context.Context, orgID, alertID, actor string) (*compliance.Alert, error) {
	return cc.transition(ctx, orgID, alertID, actor, "resolve")
}

func (cc *ComplianceClient) transition(ctx context.Context, orgID, alertID, actor, action string) (*compliance.Alert, error) {
	if err := requireID("alert id", alertID); err != nil {
		return nil, err
	}
	if err := requireID("actor", actor); err != nil {
		return nil, err
	}
	var out compliance.Alert
	req := cc.client.request(ctx).SetHeader(actorHeader, actor)
	if _, err := cc.client.do(req, http.MethodPost, orgPath(orgID, "alerts", alertID, action), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListNotifications lists notification jobs matching f.
func (cc *ComplianceClient) ListNotifications(ctx context.Context, orgID string, f compliance.NotificationFilter) (*NotificationPage, error) {
	if err := requireID("organization id", orgID); err != nil {
		return nil, err
	}
	q := url.Values{}
	if f.AlertID != "" {
		q.Set("alert_id", f.AlertID)
	}
	if len(f.Statuses) > 0 {
		q.Set("status", strings.Join(f.Statuses, ","))
	}
	if f.Channel != "" {
		q.Set("channel", f.Channel)
	}
	setPage(q, f.Page, f.PageSize)

	var items []*compliance.Notification
	p, err := cc.client.do(cc.client.request(ctx).SetQueryParamsFromValues(q), http.MethodGet, orgPath(orgID, "notifications"), &items)
	if err != nil {
		return nil, err
	}
	page := &NotificationPage{Items: items}
	if p != nil {
		page.Total, page.Page, page.PageSize = p.Total, p.Page, p.PageSize
	}
	return page, nil
}

// Sweep runs an on-demand sweep and waits for its summary. force skips the
// overlap guard.
func (cc *ComplianceClient) Sweep(ctx context.Context, orgID string, force bool) (*compliance.SweepSummary, error) {
	if err := requireID("organization id", orgID); err != nil {
		return nil, err
	}
	req := cc.client.request(ctx).SetQueryParam("force", strconv.FormatBool(force))
	var out compliance.SweepSummary
	if _, err := cc.client.do(req, http.MethodPost, orgPath(orgID, "sweeps"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadRegister fetches the register workbook.
func (cc *ComplianceClient) DownloadRegister(ctx context.Context, orgID string) (*Register, error) {
	if err := requireID("organization id", orgID); err != nil {
		return nil, err
	}
	resp, err := cc.client.request(ctx).Get(apiPrefix + orgPath(orgID, "register"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	reg := &Register{ContentType: resp.Header().Get("Content-Type"), Data: resp.Body()}
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil {
		reg.FileName = params["filename"]
	}
	return reg, nil
}

// UploadRegister archives the register in the server's object storage and
// returns its location.
func (cc *ComplianceClient) UploadRegister(ctx context.Context, orgID string) (string, error) {
	if err := requireID("organization id", orgID); err != nil {
		return "", err
	}
	var out struct {
		Location string `json:"location"`
	}
	if _, err := cc.client.do(cc.client.request(ctx), http.MethodPost, orgPath(orgID, "register", "uploads"), &out); err != nil {
		return "", err
	}
	return out.Location, nil
}

func setPage(q url.Values, page, size int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("page_size", strconv.Itoa(size))
	}
}

//Personal.AI order the ending
