package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type stubAdminAPI struct {
	err        error
	lastUpdate time.Time
	size       int
	refreshes  int
}

func (s *stubAdminAPI) RefreshCatalog(context.Context) error {
	s.refreshes++
	return s.err
}

func (s *stubAdminAPI) CatalogStatus() (time.Time, int) {
	return s.lastUpdate, s.size
}

func newInternalRouter(service AdminAPI) chi.Router {
	r := chi.NewRouter()
	NewInternalHandlers(service).Routes(r)
	return r
}

func TestInternalRefreshCatalog(t *testing.T) {
	stub := &stubAdminAPI{
		lastUpdate: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		size:       37,
	}
	router := newInternalRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/catalog/refresh", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.refreshes != 1 {
		t.Fatalf("expected one refresh call, got %d", stub.refreshes)
	}

	var body struct {
		Status     string `json:"status"`
		Products   int    `json:"products"`
		LastUpdate string `json:"lastUpdate"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Status != "refreshed" || body.Products != 37 {
		t.Fatalf("unexpected payload: %+v", body)
	}
	if body.LastUpdate != "2024-06-01T12:00:00Z" {
		t.Fatalf("unexpected lastUpdate %q", body.LastUpdate)
	}
}

func TestInternalRefreshCatalogFailure(t *testing.T) {
	stub := &stubAdminAPI{err: errors.New("remote fetch failed")}
	router := newInternalRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/catalog/refresh", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "refresh_failed" {
		t.Fatalf("expected refresh_failed error, got %v", body["error"])
	}
}
