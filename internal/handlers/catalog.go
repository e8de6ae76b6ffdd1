package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nathan-eagle/MiM/internal/catalog"
	"github.com/nathan-eagle/MiM/internal/domain"
	"github.com/nathan-eagle/MiM/internal/platform/httpx"
)

const (
	defaultSearchResponseLimit = 10
	maxSearchResponseLimit     = 50
)

// CatalogAPI is the read-side catalog surface the HTTP layer depends on.
type CatalogAPI interface {
	Product(ctx context.Context, id int) (domain.Product, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Product, error)
	Variants(ctx context.Context, productID, providerID int) ([]domain.Variant, error)
	AvailableColors(ctx context.Context, productID int) ([]string, error)
	LastUpdate() time.Time
	Size() int
}

// CategoryAPI summarises catalog categories for prompt construction.
type CategoryAPI interface {
	CategorySummary(ctx context.Context) ([]domain.CategorySummary, error)
}

// CatalogHandlers serves catalog read endpoints.
type CatalogHandlers struct {
	catalog    CatalogAPI
	categories CategoryAPI
}

// NewCatalogHandlers constructs the catalog handlers.
func NewCatalogHandlers(cat CatalogAPI, categories CategoryAPI) *CatalogHandlers {
	return &CatalogHandlers{catalog: cat, categories: categories}
}

// Routes registers the catalog endpoints on the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	r.Get("/status", h.status)
	r.Get("/search", h.search)
	r.Get("/categories", h.listCategories)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/products/{productID}/colors", h.listColors)
	r.Get("/products/{productID}/variants", h.listVariants)
}

func (h *CatalogHandlers) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog not configured", http.StatusServiceUnavailable))
		return
	}

	payload := map[string]any{
		"products": h.catalog.Size(),
	}
	if lastUpdate := h.catalog.LastUpdate(); !lastUpdate.IsZero() {
		payload["lastUpdate"] = lastUpdate.UTC().Format(time.RFC3339)
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog not configured", http.StatusServiceUnavailable))
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "query parameter q is required", http.StatusBadRequest))
		return
	}

	limit := defaultSearchResponseLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}
	if limit > maxSearchResponseLimit {
		limit = maxSearchResponseLimit
	}

	products, err := h.catalog.Search(ctx, query, limit)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "unable to search catalog", http.StatusBadGateway))
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"query":    query,
		"products": products,
	})
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.categories == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog not configured", http.StatusServiceUnavailable))
		return
	}

	summaries, err := h.categories.CategorySummary(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "unable to summarise catalog", http.StatusBadGateway))
		return
	}
	if summaries == nil {
		summaries = []domain.CategorySummary{}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"categories": summaries})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog not configured", http.StatusServiceUnavailable))
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.Product(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, product)
}

func (h *CatalogHandlers) listColors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog not configured", http.StatusServiceUnavailable))
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	colors, err := h.catalog.AvailableColors(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	if colors == nil {
		colors = []string{}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"productId": productID,
		"colors":    colors,
	})
}

func (h *CatalogHandlers) listVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog not configured", http.StatusServiceUnavailable))
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	providerID := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("printProviderId")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "printProviderId must be a positive integer", http.StatusBadRequest))
			return
		}
		providerID = parsed
	}

	variants, err := h.catalog.Variants(ctx, productID, providerID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	if variants == nil {
		variants = []domain.Variant{}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"productId": productID,
		"variants":  variants,
	})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "productID"))
	productID, err := strconv.Atoi(raw)
	if err != nil || productID <= 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "product id must be a positive integer", http.StatusBadRequest))
		return 0, false
	}
	return productID, true
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "unknown product id", http.StatusNotFound))
	case errors.Is(err, catalog.ErrProvidersUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("providers_unavailable", "product has no print providers", http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "unable to read catalog", http.StatusBadGateway))
	}
}
