package handlers

import (
	"net/http"
	"time"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

// BuildInfo carries the version metadata reported by the health endpoints.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// CatalogStatusFunc reports the last catalog refresh time and product count.
type CatalogStatusFunc func() (time.Time, int)

// HealthHandlers serves the /healthz and /readyz endpoints.
type HealthHandlers struct {
	build         BuildInfo
	clock         func() time.Time
	catalogStatus CatalogStatusFunc
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithHealthBuildInfo sets the build metadata included in health payloads.
func WithHealthBuildInfo(info BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthClock overrides the time source, primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		h.clock = clock
	}
}

// WithHealthCatalogStatus wires the catalog snapshot check used by readiness.
func WithHealthCatalogStatus(status CatalogStatusFunc) HealthOption {
	return func(h *HealthHandlers) {
		h.catalogStatus = status
	}
}

// NewHealthHandlers constructs health handlers with the provided options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.clock()
	}
	return h
}

// Healthz reports liveness with build metadata and uptime.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    healthStatusOK,
		"uptime":    now.Sub(h.build.StartedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	if h.build.Environment != "" {
		payload["environment"] = h.build.Environment
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz reports readiness. The service is ready once the catalog snapshot
// holds at least one product.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, _ *http.Request) {
	status := healthStatusOK
	details := []string{}
	checks := map[string]any{}

	if h.catalogStatus != nil {
		lastUpdate, size := h.catalogStatus()
		check := map[string]any{
			"status":   healthStatusOK,
			"products": size,
		}
		if !lastUpdate.IsZero() {
			check["lastUpdate"] = lastUpdate.UTC().Format(time.RFC3339)
		}
		if size == 0 {
			status = healthStatusDegraded
			check["status"] = healthStatusDegraded
			details = append(details, "catalog: no products loaded")
		}
		checks["catalog"] = check
	}

	payload := map[string]any{
		"status":    status,
		"checks":    checks,
		"details":   details,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK
	if status != healthStatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, code, payload)
}
