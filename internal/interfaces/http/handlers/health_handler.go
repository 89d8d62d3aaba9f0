package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// readinessTimeout bounds each check run by /readyz.
const readinessTimeout = 2 * time.Second

// HealthChecker is a named readiness check.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc is a HealthChecker built from a plain function, e.g.
// atlas.Service.Ready.
type CheckFunc struct {
	name  string
	check func(ctx context.Context) error
}

func NewCheckFunc(name string, check func(ctx context.Context) error) CheckFunc {
	return CheckFunc{name: name, check: check}
}

func (c CheckFunc) Name() string                    { return c.name }
func (c CheckFunc) Check(ctx context.Context) error { return c.check(ctx) }

// HealthHandler serves the orchestrator health checks.  /healthz only proves the
// process answers; /readyz runs every check in registration order.
type HealthHandler struct {
	checks  []HealthChecker
	version string
	started time.Time
}

func NewHealthHandler(version string, checks ...HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks, version: version, started: time.Now()}
}

// RegisterRoutes mounts /healthz and /readyz on r.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

// LivenessResponse is the body of GET /healthz.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// ReadinessResponse is the body of GET /readyz.
type ReadinessResponse struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Checks  []CheckResult `json:"checks"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Readiness answers 200 "ready" when every check passes and 503 "not_ready"
// otherwise.  Checks run one after another; each gets readinessTimeout.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{Status: "ready", Version: h.version, Checks: make([]CheckResult, 0, len(h.checks))}
	for _, p := range h.checks {
		res := runCheck(r.Context(), p)
		if !res.OK {
			resp.Status = "not_ready"
		}
		resp.Checks = append(resp.Checks, res)
	}

	code := http.StatusOK
	if resp.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func runCheck(ctx context.Context, p HealthChecker) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	res := CheckResult{Name: p.Name(), OK: err == nil, Duration: time.Since(start).Truncate(time.Microsecond).String()}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
