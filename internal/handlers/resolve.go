package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nathan-eagle/MiM/internal/domain"
	"github.com/nathan-eagle/MiM/internal/platform/httpx"
)

const maxResolveBodyBytes = 64 * 1024

// ResolutionAPI is the resolution surface the HTTP layer depends on.
type ResolutionAPI interface {
	ResolveRequest(ctx context.Context, sessionID, productQuery, colorQuery string) (domain.ResolutionOutcome, error)
}

// ResolveHandlers serves the variant resolution endpoint.
type ResolveHandlers struct {
	service ResolutionAPI
}

// NewResolveHandlers constructs the resolution handlers.
func NewResolveHandlers(service ResolutionAPI) *ResolveHandlers {
	return &ResolveHandlers{service: service}
}

// Routes registers the resolution endpoints on the provided router.
func (h *ResolveHandlers) Routes(r chi.Router) {
	r.Post("/", h.resolve)
}

type resolveRequest struct {
	SessionID    string `json:"sessionId"`
	ProductQuery string `json:"productQuery"`
	ColorQuery   string `json:"colorQuery"`
}

func (h *ResolveHandlers) resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "resolution service not configured", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxResolveBodyBytes)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds limit", http.StatusRequestEntityTooLarge))
		case errors.Is(err, errEmptyBody):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
		}
		return
	}

	var req resolveRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
			return
		}
	}

	outcome, err := h.service.ResolveRequest(ctx, req.SessionID, req.ProductQuery, req.ColorQuery)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("resolution_failed", "unable to resolve request", http.StatusBadGateway))
		return
	}

	writeJSONResponse(w, http.StatusOK, outcome)
}
