package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nathan-eagle/MiM/internal/domain"
	"github.com/nathan-eagle/MiM/internal/platform/httpx"
)

// SessionAPI is the session surface the HTTP layer depends on.
type SessionAPI interface {
	SessionMemory(sessionID string) (domain.SessionMemory, bool)
	ResetSession(sessionID string) bool
	SetResultHandle(sessionID, handle string) bool
}

// SessionHandlers serves session inspection and reset endpoints.
type SessionHandlers struct {
	service SessionAPI
}

// NewSessionHandlers constructs the session handlers.
func NewSessionHandlers(service SessionAPI) *SessionHandlers {
	return &SessionHandlers{service: service}
}

// Routes registers the session endpoints on the provided router.
func (h *SessionHandlers) Routes(r chi.Router) {
	r.Get("/{sessionID}", h.memory)
	r.Post("/{sessionID}/reset", h.reset)
	r.Put("/{sessionID}/result", h.setResult)
}

type sessionMemoryResponse struct {
	SessionID            string                    `json:"sessionId"`
	LastProductID        int                       `json:"lastProductId,omitempty"`
	LastProductTitle     string                    `json:"lastProductTitle,omitempty"`
	LastColor            string                    `json:"lastColor,omitempty"`
	AvailableColors      []string                  `json:"availableColors,omitempty"`
	LastResultHandle     string                    `json:"lastResultHandle,omitempty"`
	LastRequestTimestamp *time.Time                `json:"lastRequestTimestamp,omitempty"`
	LastOutcome          *domain.ResolutionOutcome `json:"lastOutcome,omitempty"`
	CreatedAt            time.Time                 `json:"createdAt"`
	UpdatedAt            *time.Time                `json:"updatedAt,omitempty"`
}

func (h *SessionHandlers) memory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "session service not configured", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	memory, ok := h.service.SessionMemory(sessionID)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "unknown session id", http.StatusNotFound))
		return
	}

	resp := sessionMemoryResponse{
		SessionID:        memory.SessionID,
		LastProductID:    memory.LastProductID,
		LastProductTitle: memory.LastProductTitle,
		LastColor:        memory.LastColor,
		AvailableColors:  memory.AvailableColors,
		LastResultHandle: memory.LastResultHandle,
		LastOutcome:      memory.LastOutcome,
		CreatedAt:        memory.CreatedAt,
	}
	if !memory.LastRequestTimestamp.IsZero() {
		ts := memory.LastRequestTimestamp
		resp.LastRequestTimestamp = &ts
	}
	if !memory.UpdatedAt.IsZero() {
		ts := memory.UpdatedAt
		resp.UpdatedAt = &ts
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *SessionHandlers) reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "session service not configured", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	if !h.service.ResetSession(sessionID) {
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "unknown session id", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "reset",
		"sessionId": sessionID,
	})
}

type setResultRequest struct {
	Handle string `json:"handle"`
}

func (h *SessionHandlers) setResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "session service not configured", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxResolveBodyBytes)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
		return
	}

	var req setResultRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.Handle) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "handle is required", http.StatusBadRequest))
		return
	}

	if !h.service.SetResultHandle(sessionID, req.Handle) {
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "unknown session id", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "recorded",
		"sessionId": sessionID,
	})
}
