package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ComplianceSentinel/internal/application/compliance"
	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/domain/score"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// ComplianceReader is the read side of the compliance service.
type ComplianceReader interface {
	Score(ctx context.Context, organizationID string) (*score.ComplianceScore, error)
	Overview(ctx context.Context, organizationID string) (*compliance.Overview, error)
	ListAlerts(ctx context.Context, organizationID string, f alert.ListFilter) ([]*alert.Alert, int64, error)
	GetAlert(ctx context.Context, organizationID, id string) (*alert.Alert, error)
	ListNotifications(ctx context.Context, organizationID string, f notification.JobFilter) ([]*notification.Job, int64, error)
}

// AlertMutator applies user-initiated alert transitions.
type AlertMutator interface {
	Acknowledge(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error)
	Dismiss(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error)
	Resolve(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error)
}

// Sweeper runs an on-demand sweep.
type Sweeper interface {
	SweepOrganization(ctx context.Context, organizationID string, force bool) (*compliance.Summary, error)
}

// ComplianceHandler exposes scores, alerts and sweeps of one organization.
type ComplianceHandler struct {
	reader  ComplianceReader
	alerts  AlertMutator
	sweeper Sweeper
	logger  logging.Logger
}

func NewComplianceHandler(reader ComplianceReader, alerts AlertMutator, sweeper Sweeper, logger logging.Logger) *ComplianceHandler {
	return &ComplianceHandler{reader: reader, alerts: alerts, sweeper: sweeper, logger: logger}
}

// RegisterRoutes mounts the organization-scoped routes under r.
func (h *ComplianceHandler) RegisterRoutes(r gin.IRouter) {
	org := r.Group("/organizations/:orgID")
	org.GET("/score", h.GetScore)
	org.GET("/overview", h.GetOverview)
	org.GET("/alerts", h.ListAlerts)
	org.GET("/alerts/:alertID", h.GetAlert)
	org.POST("/alerts/:alertID/acknowledge", h.Acknowledge)
	org.POST("/alerts/:alertID/dismiss", h.Dismiss)
	org.POST("/alerts/:alertID/resolve", h.Resolve)
	org.GET("/notifications", h.ListNotifications)
	org.POST("/sweeps", h.Sweep)
}

func (h *ComplianceHandler) GetScore(c *gin.Context) {
	sc, err := h.reader.Score(c.Request.Context(), c.Param("orgID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, sc)
}

func (h *ComplianceHandler) GetOverview(c *gin.Context) {
	ov, err := h.reader.Overview(c.Request.Context(), c.Param("orgID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ov)
}

// ListAlerts supports status (comma-separated), min_severity and kind filters.
func (h *ComplianceHandler) ListAlerts(c *gin.Context) {
	p := parsePagination(c)
	f := alert.ListFilter{Limit: p.PageSize, Offset: p.Offset()}
	for _, s := range splitList(c.Query("status")) {
		st := alert.Status(s)
		if !st.IsValid() {
			respondError(c, errors.InvalidParam("invalid status").WithDetail(s))
			return
		}
		f.Statuses = append(f.Statuses, st)
	}
	tier, err := parseTier(c, "min_severity")
	if err != nil {
		respondError(c, err)
		return
	}
	f.MinSeverity = tier
	if k := c.Query("kind"); k != "" {
		f.Kind = obligation.Kind(k)
		if !f.Kind.IsValid() {
			respondError(c, errors.InvalidParam("invalid kind").WithDetail(k))
			return
		}
	}

	items, total, err := h.reader.ListAlerts(c.Request.Context(), c.Param("orgID"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, items, p, total)
}

func (h *ComplianceHandler) GetAlert(c *gin.Context) {
	a, err := h.reader.GetAlert(c.Request.Context(), c.Param("orgID"), c.Param("alertID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, a)
}

type transitionRequest struct {
	Actor string `json:"actor"`
}

type transitionFunc func(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error)

func (h *ComplianceHandler) Acknowledge(c *gin.Context) { h.transition(c, h.alerts.Acknowledge) }
func (h *ComplianceHandler) Dismiss(c *gin.Context)     { h.transition(c, h.alerts.Dismiss) }
func (h *ComplianceHandler) Resolve(c *gin.Context)     { h.transition(c, h.alerts.Resolve) }

// transition takes the actor from the X-Actor-ID header, falling back to
// the request body.
func (h *ComplianceHandler) transition(c *gin.Context, fn transitionFunc) {
	actor := c.GetHeader(ActorHeader)
	if actor == "" && c.Request.ContentLength > 0 {
		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.InvalidParam("invalid request body").WithDetail(err.Error()))
			return
		}
		actor = req.Actor
	}
	if actor == "" {
		respondError(c, errors.New(errors.ErrCodeValidation, "actor is required"))
		return
	}
	a, err := fn(c.Request.Context(), c.Param("orgID"), c.Param("alertID"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, a)
}

// ListNotifications supports alert_id, status and channel filters.
func (h *ComplianceHandler) ListNotifications(c *gin.Context) {
	p := parsePagination(c)
	f := notification.JobFilter{AlertID: c.Query("alert_id"), Limit: p.PageSize, Offset: p.Offset()}
	for _, s := range splitList(c.Query("status")) {
		st := notification.Status(s)
		if !st.IsValid() {
			respondError(c, errors.InvalidParam("invalid status").WithDetail(s))
			return
		}
		f.Statuses = append(f.Statuses, st)
	}
	if ch := c.Query("channel"); ch != "" {
		f.Channel = notification.Channel(ch)
		if !f.Channel.IsValid() {
			respondError(c, errors.InvalidParam("invalid channel").WithDetail(ch))
			return
		}
	}
	items, total, err := h.reader.ListNotifications(c.Request.Context(), c.Param("orgID"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, items, p, total)
}

// Sweep runs a sweep synchronously. force=true skips the overlap guard.
func (h *ComplianceHandler) Sweep(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	orgID := c.Param("orgID")
	sum, err := h.sweeper.SweepOrganization(c.Request.Context(), orgID, force)
	if err != nil {
		h.logger.Warn("on-demand sweep failed", logging.OrgID(orgID), logging.Err(err))
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, sum)
}

//Personal.AI order the ending
