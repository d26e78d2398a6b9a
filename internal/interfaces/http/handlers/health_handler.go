package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ComplianceSentinel/pkg/types/common"
)

// HealthChecker is a dependency that can report its health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type checkFunc struct {
	name string
	fn   func(context.Context) error
}

func (c checkFunc) Name() string                    { return c.name }
func (c checkFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// NewCheck adapts a ping function, such as a database health check, to a
// HealthChecker.
func NewCheck(name string, fn func(context.Context) error) HealthChecker {
	return checkFunc{name: name, fn: fn}
}

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
	timeout  time.Duration
}

func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
		timeout:  5 * time.Second,
	}
}

// RegisterRoutes mounts /healthz, /readyz and /healthz/detail.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	r.GET("/healthz/detail", h.Detailed)
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	Status     common.HealthStatus               `json:"status"`
	Version    string                            `json:"version,omitempty"`
	Components map[string]common.ComponentHealth `json:"components,omitempty"`
}

// Liveness never consults dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness returns 503 when any dependency is down.
func (h *HealthHandler) Readiness(c *gin.Context) {
	components := h.checkAll(c.Request.Context())
	status := overall(components)
	code := http.StatusOK
	if status != common.HealthUp {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, ReadinessResponse{Status: status, Components: components})
}

// Detailed reports per-component latency. A failing dependency degrades the
// service rather than taking it down.
func (h *HealthHandler) Detailed(c *gin.Context) {
	components := h.checkAll(c.Request.Context())
	status := overall(components)
	code := http.StatusOK
	if status != common.HealthUp {
		status = common.HealthDegraded
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, ReadinessResponse{Status: status, Version: h.version, Components: components})
}

func overall(components map[string]common.ComponentHealth) common.HealthStatus {
	for _, c := range components {
		if c.Status != common.HealthUp {
			return common.HealthDown
		}
	}
	return common.HealthUp
}

func (h *HealthHandler) checkAll(ctx context.Context) map[string]common.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make(map[string]common.ComponentHealth, len(h.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, checker := range h.checkers {
		wg.Add(1)
		go func(hc HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := hc.Check(ctx)
			ch := common.ComponentHealth{Name: hc.Name(), Status: common.HealthUp, Latency: time.Since(start)}
			if err != nil {
				ch.Status = common.HealthDown
				ch.Message = err.Error()
			}
			mu.Lock()
			results[hc.Name()] = ch
			mu.Unlock()
		}(checker)
	}
	wg.Wait()
	return results
}

//Personal.AI order the ending
