// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wabridge/internal/session/model"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse is the readiness payload.
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Health aggregates checkers into liveness and readiness answers.
type Health struct {
	version  string
	checkers []Checker
	logger   zerolog.Logger
	now      func() time.Time
}

// NewHealth creates an empty aggregator.
func NewHealth(version string, logger zerolog.Logger) *Health {
	return &Health{version: version, logger: logger, now: time.Now}
}

// Register adds a checker.
func (h *Health) Register(c Checker) {
	h.checkers = append(h.checkers, c)
}

func (h *Health) run(ctx context.Context) (map[string]CheckResult, Status) {
	if len(h.checkers) == 0 {
		return nil, StatusHealthy
	}
	checks := make(map[string]CheckResult, len(h.checkers))
	overall := StatusHealthy
	for _, c := range h.checkers {
		res := c.Check(ctx)
		checks[c.Name()] = res
		switch res.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}
	return checks, overall
}

// Liveness reports the process as alive. Component checks are included only
// when verbose is set and never fail the probe.
func (h *Health) Liveness(ctx context.Context, verbose bool) HealthResponse {
	resp := HealthResponse{Status: StatusHealthy, Version: h.version, Timestamp: h.now()}
	if verbose {
		resp.Checks, resp.Status = h.run(ctx)
	}
	return resp
}

// Readiness is ready unless some checker is unhealthy.
func (h *Health) Readiness(ctx context.Context) ReadinessResponse {
	checks, status := h.run(ctx)
	return ReadinessResponse{
		Ready:     status != StatusUnhealthy,
		Status:    status,
		Timestamp: h.now(),
		Checks:    checks,
	}
}

// ServeHealth handles HTTP health check requests
func (h *Health) ServeHealth(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"
	resp := h.Liveness(r.Context(), verbose)
	h.write(w, http.StatusOK, resp, "health")
}

// ServeReady handles HTTP readiness check requests
func (h *Health) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := h.Readiness(r.Context())
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	h.write(w, code, resp, "readiness")
	h.logger.Debug().
		Str("event", "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

func (h *Health) write(w http.ResponseWriter, code int, body any, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Str("event", kind+".encode_error").Msg("failed to encode response")
	}
}

// SessionSnapshot lists the registered sessions and their states.
type SessionSnapshot func() map[string]model.SessionState

// SessionsChecker is unhealthy when no session is registered or any session
// has fallen back to disconnected, and degraded while some are still
// connecting.
type SessionsChecker struct {
	Snapshot SessionSnapshot
}

func (SessionsChecker) Name() string { return "sessions" }

func (c SessionsChecker) Check(context.Context) CheckResult {
	states := c.Snapshot()
	if len(states) == 0 {
		return CheckResult{Status: StatusUnhealthy, Message: "no sessions registered"}
	}
	var connecting, down int
	for _, s := range states {
		switch s {
		case model.StateOpen:
		case model.StateConnecting:
			connecting++
		default:
			down++
		}
	}
	switch {
	case down > 0:
		return CheckResult{Status: StatusUnhealthy, Message: plural(down, "session") + " not connected"}
	case connecting > 0:
		return CheckResult{Status: StatusDegraded, Message: plural(connecting, "session") + " connecting"}
	}
	return CheckResult{Status: StatusHealthy, Message: plural(len(states), "session") + " open"}
}

// CheckFunc adapts a function to a Checker.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckFunc) Name() string { return c.CheckName }

func (c CheckFunc) Check(ctx context.Context) CheckResult {
	if err := c.Fn(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

func plural(n int, noun string) string {
	s := noun
	if n != 1 {
		s += "s"
	}
	return strconv.Itoa(n) + " " + s
}
