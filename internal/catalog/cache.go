package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/nathan-eagle/MiM/internal/domain"
	"github.com/nathan-eagle/MiM/internal/printify"
)

const metricNamespace = "github.com/nathan-eagle/MiM/internal/catalog"

// ErrProductNotFound indicates the requested product id is not in the catalog.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrProvidersUnavailable indicates a product has no print providers, so no
// variants can ever be resolved for it.
var ErrProvidersUnavailable = errors.New("catalog: no print providers for product")

// RemoteCatalog is the upstream catalog API surface the cache depends on.
type RemoteCatalog interface {
	Blueprints(ctx context.Context) ([]printify.Blueprint, error)
	PrintProviders(ctx context.Context, blueprintID int) ([]printify.PrintProvider, error)
	Variants(ctx context.Context, blueprintID, providerID int) ([]printify.Variant, error)
}

// CacheDeps bundles the dependencies required to construct a Cache.
type CacheDeps struct {
	Remote RemoteCatalog
	Store  *SnapshotStore
	Logger *zap.Logger
	TTL    time.Duration
	Clock  func() time.Time
	Meter  metric.Meter
}

// Cache holds the in-memory catalog snapshot and owns its load, refresh, and
// persistence lifecycle. Reads are served from the current snapshot under a
// read lock; a full refresh fetches outside any lock and swaps the snapshot
// reference in a short exclusive section.
type Cache struct {
	remote RemoteCatalog
	store  *SnapshotStore
	logger *zap.Logger
	ttl    time.Duration
	clock  func() time.Time

	mu       sync.RWMutex
	snapshot *snapshotState

	loadMu sync.Mutex

	refreshLatency        metric.Float64Histogram
	refreshLatencyEnabled bool
	loads                 metric.Int64Counter
	loadsEnabled          bool
	lazyLoads             metric.Int64Counter
	lazyLoadsEnabled      bool
}

type snapshotState struct {
	lastUpdate    time.Time
	products      map[int]*domain.Product
	order         []int
	categoryIndex map[string][]int
}

// NewCache validates dependencies and constructs a Cache. The catalog is not
// loaded until the first call to Load or a read operation triggers one.
func NewCache(deps CacheDeps) (*Cache, error) {
	if deps.Remote == nil {
		return nil, errors.New("catalog: remote catalog is required")
	}
	if deps.Store == nil {
		return nil, errors.New("catalog: snapshot store is required")
	}
	if deps.TTL <= 0 {
		return nil, errors.New("catalog: cache ttl must be positive")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}

	refreshLatency, latencyErr := meter.Float64Histogram(
		"catalog.refresh.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for full catalog refreshes"),
	)
	if latencyErr != nil {
		deps.Logger.Warn("catalog: unable to register refresh latency metric", zap.Error(latencyErr))
	}

	loads, loadsErr := meter.Int64Counter(
		"catalog.loads",
		metric.WithDescription("Count of catalog loads by source"),
	)
	if loadsErr != nil {
		deps.Logger.Warn("catalog: unable to register load metric", zap.Error(loadsErr))
	}

	lazyLoads, lazyErr := meter.Int64Counter(
		"catalog.variants.lazy_loads",
		metric.WithDescription("Count of lazy per-product variant fetches"),
	)
	if lazyErr != nil {
		deps.Logger.Warn("catalog: unable to register lazy load metric", zap.Error(lazyErr))
	}

	return &Cache{
		remote:                deps.Remote,
		store:                 deps.Store,
		logger:                deps.Logger,
		ttl:                   deps.TTL,
		clock:                 deps.Clock,
		refreshLatency:        refreshLatency,
		refreshLatencyEnabled: latencyErr == nil,
		loads:                 loads,
		loadsEnabled:          loadsErr == nil,
		lazyLoads:             lazyLoads,
		lazyLoadsEnabled:      lazyErr == nil,
	}, nil
}

// Load ensures a valid snapshot is in memory. When force is false, a fresh
// in-memory snapshot is reused, then a fresh on-disk snapshot, and only then
// is a full remote fetch performed. A failed refresh leaves any existing
// snapshot untouched.
func (c *Cache) Load(ctx context.Context, force bool) error {
	if !force && c.memoryValid() {
		c.recordLoad(ctx, "memory")
		return nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if !force {
		if c.memoryValid() {
			c.recordLoad(ctx, "memory")
			return nil
		}
		if c.loadFromDisk() {
			c.recordLoad(ctx, "disk")
			return nil
		}
	}

	return c.refresh(ctx)
}

// LastUpdate returns the timestamp of the current snapshot, zero if none.
func (c *Cache) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return time.Time{}
	}
	return c.snapshot.lastUpdate
}

// Size returns the number of products in the current snapshot.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return 0
	}
	return len(c.snapshot.products)
}

// Product looks up a product by id, loading the catalog first if needed.
func (c *Cache) Product(ctx context.Context, id int) (domain.Product, error) {
	if err := c.Load(ctx, false); err != nil {
		return domain.Product{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	product, ok := c.snapshot.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return *product, nil
}

// Products returns all products in catalog order (ascending id).
func (c *Cache) Products(ctx context.Context) ([]domain.Product, error) {
	if err := c.Load(ctx, false); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	products := make([]domain.Product, 0, len(c.snapshot.order))
	for _, id := range c.snapshot.order {
		products = append(products, *c.snapshot.products[id])
	}
	return products, nil
}

// Search ranks catalog products against a free-text query.
func (c *Cache) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	return Search(products, query, limit), nil
}

// Categories returns the category index materialized to product values, with
// products in catalog order within each category.
func (c *Cache) Categories(ctx context.Context) (map[string][]domain.Product, error) {
	if err := c.Load(ctx, false); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	categories := make(map[string][]domain.Product, len(c.snapshot.categoryIndex))
	for category, ids := range c.snapshot.categoryIndex {
		products := make([]domain.Product, 0, len(ids))
		for _, id := range ids {
			products = append(products, *c.snapshot.products[id])
		}
		categories[category] = products
	}
	return categories, nil
}

// Variants returns the variants for a product, fetching them from every print
// provider on first request and caching them on the product afterward. A
// providerID of zero returns variants from all providers. Per-provider fetch
// failures are logged and skipped; they never invalidate the rest of the cache.
func (c *Cache) Variants(ctx context.Context, productID, providerID int) ([]domain.Variant, error) {
	if err := c.Load(ctx, false); err != nil {
		return nil, err
	}

	c.mu.RLock()
	product, ok := c.snapshot.products[productID]
	var cached []domain.Variant
	var providers []domain.PrintProvider
	if ok {
		cached = product.Variants
		providers = product.PrintProviders
	}
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	}
	if len(cached) > 0 {
		return filterByProvider(cached, providerID), nil
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrProvidersUnavailable, productID)
	}

	fetched := make([]domain.Variant, 0, 64)
	for _, provider := range providers {
		raw, err := c.remote.Variants(ctx, productID, provider.ID)
		if err != nil {
			c.logger.Warn("catalog: variant fetch failed",
				zap.Int("product_id", productID),
				zap.Int("provider_id", provider.ID),
				zap.Error(err),
			)
			continue
		}
		for _, variant := range raw {
			fetched = append(fetched, domain.Variant{
				ID:              variant.ID,
				Title:           variant.Title,
				Color:           NormalizeColor(variant.Options.Color),
				Size:            variant.Options.Size,
				PrintProviderID: provider.ID,
				Available:       true,
			})
		}
	}

	c.mu.Lock()
	if current, ok := c.snapshot.products[productID]; ok {
		if len(current.Variants) == 0 && len(fetched) > 0 {
			current.Variants = fetched
		}
		fetched = current.Variants
	}
	var persisted *Snapshot
	if len(fetched) > 0 {
		snap := c.snapshot.export()
		persisted = &snap
	}
	c.mu.Unlock()

	if persisted != nil {
		c.persist(*persisted)
	}
	c.recordLazyLoad(ctx, productID)

	return filterByProvider(fetched, providerID), nil
}

// AvailableColors returns the sorted set of normalized colors across all
// variants of a product, triggering lazy variant loading when needed.
func (c *Cache) AvailableColors(ctx context.Context, productID int) ([]string, error) {
	variants, err := c.Variants(ctx, productID, 0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	colors := make([]string, 0, len(variants))
	for _, variant := range variants {
		if variant.Color == "" {
			continue
		}
		if _, ok := seen[variant.Color]; ok {
			continue
		}
		seen[variant.Color] = struct{}{}
		colors = append(colors, variant.Color)
	}
	sort.Strings(colors)
	return colors, nil
}

// VariantsByColor returns all variants whose color contains the requested
// color, case-insensitively.
func (c *Cache) VariantsByColor(ctx context.Context, productID int, color string) ([]domain.Variant, error) {
	variants, err := c.Variants(ctx, productID, 0)
	if err != nil {
		return nil, err
	}

	colorLower := strings.ToLower(strings.TrimSpace(color))
	matching := make([]domain.Variant, 0, len(variants))
	for _, variant := range variants {
		if strings.Contains(strings.ToLower(variant.Color), colorLower) {
			matching = append(matching, variant)
		}
	}
	return matching, nil
}

func (c *Cache) memoryValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return false
	}
	return c.clock().Sub(c.snapshot.lastUpdate) < c.ttl
}

func (c *Cache) loadFromDisk() bool {
	snapshot, err := c.store.Load()
	if err != nil {
		if errors.Is(err, ErrSnapshotMissing) {
			return false
		}
		if errors.Is(err, ErrSnapshotCorrupt) {
			c.logger.Warn("catalog: snapshot corrupt, treating as cache miss", zap.Error(err))
			return false
		}
		c.logger.Warn("catalog: snapshot read failed", zap.Error(err))
		return false
	}

	if c.clock().Sub(snapshot.LastUpdate) >= c.ttl {
		c.logger.Info("catalog: disk snapshot stale",
			zap.Time("last_update", snapshot.LastUpdate),
			zap.Duration("ttl", c.ttl),
		)
		return false
	}

	c.install(snapshot)
	c.logger.Info("catalog: loaded snapshot from disk",
		zap.Int("products", len(snapshot.Products)),
		zap.Time("last_update", snapshot.LastUpdate),
	)
	return true
}

// refresh performs a full remote fetch and swaps the snapshot only on
// success, so a failed refresh never clobbers an existing valid snapshot.
func (c *Cache) refresh(ctx context.Context) error {
	start := c.clock()

	blueprints, err := c.remote.Blueprints(ctx)
	if err != nil {
		return fmt.Errorf("catalog: blueprint fetch failed: %w", err)
	}

	now := c.clock()
	products := make(map[int]domain.Product, len(blueprints))
	for _, blueprint := range blueprints {
		providers, err := c.remote.PrintProviders(ctx, blueprint.ID)
		if err != nil {
			c.logger.Warn("catalog: provider fetch failed",
				zap.Int("blueprint_id", blueprint.ID),
				zap.Error(err),
			)
			providers = nil
		}

		descriptors := make([]domain.PrintProvider, 0, len(providers))
		for _, provider := range providers {
			descriptors = append(descriptors, domain.PrintProvider{ID: provider.ID, Title: provider.Title})
		}

		products[blueprint.ID] = domain.Product{
			ID:             blueprint.ID,
			Title:          blueprint.Title,
			Description:    StripHTML(blueprint.Description),
			Category:       Categorize(blueprint.Title),
			Tags:           ExtractTags(blueprint.Title),
			Variants:       nil,
			PrintProviders: descriptors,
			Images:         blueprint.Images,
			CreatedAt:      now,
			Available:      len(descriptors) > 0,
		}
	}

	snapshot := Snapshot{LastUpdate: now, Products: products}
	c.install(snapshot)
	c.persist(snapshot)
	c.recordLoad(ctx, "remote")
	c.recordRefreshLatency(ctx, c.clock().Sub(start))

	c.logger.Info("catalog: refreshed from remote",
		zap.Int("products", len(products)),
		zap.Duration("elapsed", c.clock().Sub(start)),
	)
	return nil
}

func (c *Cache) install(snapshot Snapshot) {
	state := &snapshotState{
		lastUpdate:    snapshot.LastUpdate,
		products:      make(map[int]*domain.Product, len(snapshot.Products)),
		order:         make([]int, 0, len(snapshot.Products)),
		categoryIndex: make(map[string][]int),
	}
	for id := range snapshot.Products {
		product := snapshot.Products[id]
		state.products[id] = &product
		state.order = append(state.order, id)
	}
	sort.Ints(state.order)
	for _, id := range state.order {
		category := state.products[id].Category
		state.categoryIndex[category] = append(state.categoryIndex[category], id)
	}

	c.mu.Lock()
	c.snapshot = state
	c.mu.Unlock()
}

// persist writes the snapshot best-effort: a failure is logged and never
// fails the in-memory operation that triggered it.
func (c *Cache) persist(snapshot Snapshot) {
	if err := c.store.Save(snapshot); err != nil {
		c.logger.Warn("catalog: snapshot persist failed", zap.Error(err))
	}
}

func (s *snapshotState) export() Snapshot {
	products := make(map[int]domain.Product, len(s.products))
	for id, product := range s.products {
		products[id] = *product
	}
	return Snapshot{LastUpdate: s.lastUpdate, Products: products}
}

func filterByProvider(variants []domain.Variant, providerID int) []domain.Variant {
	if providerID == 0 {
		return variants
	}
	filtered := make([]domain.Variant, 0, len(variants))
	for _, variant := range variants {
		if variant.PrintProviderID == providerID {
			filtered = append(filtered, variant)
		}
	}
	return filtered
}

func (c *Cache) recordLoad(ctx context.Context, source string) {
	if !c.loadsEnabled {
		return
	}
	c.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (c *Cache) recordLazyLoad(ctx context.Context, productID int) {
	if !c.lazyLoadsEnabled {
		return
	}
	c.lazyLoads.Add(ctx, 1, metric.WithAttributes(attribute.Int("product_id", productID)))
}

func (c *Cache) recordRefreshLatency(ctx context.Context, d time.Duration) {
	if !c.refreshLatencyEnabled {
		return
	}
	c.refreshLatency.Record(ctx, float64(d)/float64(time.Millisecond))
}
