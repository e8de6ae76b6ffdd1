package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nathan-eagle/MiM/internal/domain"
)

type stubSessionAPI struct {
	memories map[string]domain.SessionMemory
	resets   []string
}

func (s *stubSessionAPI) SessionMemory(sessionID string) (domain.SessionMemory, bool) {
	memory, ok := s.memories[sessionID]
	return memory, ok
}

func (s *stubSessionAPI) ResetSession(sessionID string) bool {
	if _, ok := s.memories[sessionID]; !ok {
		return false
	}
	s.resets = append(s.resets, sessionID)
	return true
}

func (s *stubSessionAPI) SetResultHandle(sessionID, handle string) bool {
	memory, ok := s.memories[sessionID]
	if !ok {
		return false
	}
	memory.LastResultHandle = handle
	s.memories[sessionID] = memory
	return true
}

func newSessionRouter(service SessionAPI) chi.Router {
	r := chi.NewRouter()
	NewSessionHandlers(service).Routes(r)
	return r
}

func TestSessionMemoryEndpoint(t *testing.T) {
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	stub := &stubSessionAPI{
		memories: map[string]domain.SessionMemory{
			"sess-1": {
				SessionID:        "sess-1",
				LastProductID:    6,
				LastProductTitle: "Unisex Jersey Short Sleeve Tee",
				LastColor:        "Navy",
				AvailableColors:  []string{"Black", "Navy"},
				CreatedAt:        created,
				UpdatedAt:        created.Add(time.Minute),
			},
		},
	}
	router := newSessionRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/sess-1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body sessionMemoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.SessionID != "sess-1" {
		t.Fatalf("expected session sess-1, got %s", body.SessionID)
	}
	if body.LastProductID != 6 || body.LastColor != "Navy" {
		t.Fatalf("unexpected memory payload: %+v", body)
	}
	if body.UpdatedAt == nil || !body.UpdatedAt.Equal(created.Add(time.Minute)) {
		t.Fatalf("expected updatedAt to round-trip, got %v", body.UpdatedAt)
	}
}

func TestSessionMemoryEndpointNotFound(t *testing.T) {
	router := newSessionRouter(&stubSessionAPI{memories: map[string]domain.SessionMemory{}})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "session_not_found" {
		t.Fatalf("expected session_not_found error, got %v", body["error"])
	}
}

func TestSessionResetEndpoint(t *testing.T) {
	stub := &stubSessionAPI{
		memories: map[string]domain.SessionMemory{
			"sess-1": {SessionID: "sess-1"},
		},
	}
	router := newSessionRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/sess-1/reset", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(stub.resets) != 1 || stub.resets[0] != "sess-1" {
		t.Fatalf("expected one reset for sess-1, got %v", stub.resets)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["status"] != "reset" {
		t.Fatalf("expected reset status, got %v", body["status"])
	}
}

func TestSessionSetResultEndpoint(t *testing.T) {
	stub := &stubSessionAPI{
		memories: map[string]domain.SessionMemory{
			"sess-1": {SessionID: "sess-1"},
		},
	}
	router := newSessionRouter(stub)

	req := httptest.NewRequest(http.MethodPut, "/sess-1/result", strings.NewReader(`{"handle":"https://cdn.example.com/mockups/42.png"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := stub.memories["sess-1"].LastResultHandle; got != "https://cdn.example.com/mockups/42.png" {
		t.Fatalf("expected handle to be recorded, got %q", got)
	}
}

func TestSessionSetResultEndpointRejectsEmptyHandle(t *testing.T) {
	stub := &stubSessionAPI{
		memories: map[string]domain.SessionMemory{
			"sess-1": {SessionID: "sess-1"},
		},
	}
	router := newSessionRouter(stub)

	req := httptest.NewRequest(http.MethodPut, "/sess-1/result", strings.NewReader(`{"handle":"  "}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSessionResetEndpointNotFound(t *testing.T) {
	router := newSessionRouter(&stubSessionAPI{memories: map[string]domain.SessionMemory{}})

	req := httptest.NewRequest(http.MethodPost, "/missing/reset", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}
