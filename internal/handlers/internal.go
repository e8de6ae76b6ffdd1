package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nathan-eagle/MiM/internal/platform/httpx"
)

// AdminAPI exposes operational controls used by internal endpoints.
type AdminAPI interface {
	RefreshCatalog(ctx context.Context) error
	CatalogStatus() (time.Time, int)
}

// InternalHandlers serves operator-only endpoints.
type InternalHandlers struct {
	service AdminAPI
}

// NewInternalHandlers constructs the internal handlers.
func NewInternalHandlers(service AdminAPI) *InternalHandlers {
	return &InternalHandlers{service: service}
}

// Routes registers the internal endpoints on the provided router.
func (h *InternalHandlers) Routes(r chi.Router) {
	r.Post("/catalog/refresh", h.refreshCatalog)
}

func (h *InternalHandlers) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "admin service not configured", http.StatusServiceUnavailable))
		return
	}

	if err := h.service.RefreshCatalog(ctx); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("refresh_failed", "catalog refresh failed", http.StatusBadGateway))
		return
	}

	lastUpdate, size := h.service.CatalogStatus()
	payload := map[string]any{
		"status":   "refreshed",
		"products": size,
	}
	if !lastUpdate.IsZero() {
		payload["lastUpdate"] = lastUpdate.UTC().Format(time.RFC3339)
	}
	writeJSONResponse(w, http.StatusOK, payload)
}
