package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nathan-eagle/MiM/internal/catalog"
	"github.com/nathan-eagle/MiM/internal/domain"
	"github.com/nathan-eagle/MiM/internal/platform/observability"
)

const (
	defaultDedupWindow = 5 * time.Second
	defaultSearchLimit = 5
	categorySamples    = 3
)

// Placeholder queries the upstream decision layer emits when it wants the
// previously resolved product rather than a new search.
var placeholderQueries = map[string]struct{}{
	"":            {},
	"search_term": {},
}

// CatalogIndex is the catalog surface the resolution service depends on.
type CatalogIndex interface {
	Load(ctx context.Context, force bool) error
	LastUpdate() time.Time
	Size() int
	Product(ctx context.Context, id int) (domain.Product, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Product, error)
	Categories(ctx context.Context) (map[string][]domain.Product, error)
	Variants(ctx context.Context, productID, providerID int) ([]domain.Variant, error)
	AvailableColors(ctx context.Context, productID int) ([]string, error)
}

// ResolutionDeps bundles the dependencies for NewResolutionService.
type ResolutionDeps struct {
	Catalog     CatalogIndex
	Resolver    *ColorResolver
	Sessions    *SessionStore
	Logger      *zap.Logger
	Clock       func() time.Time
	DedupWindow time.Duration
}

// ResolutionService turns (productQuery, colorQuery) pairs plus prior session
// memory into structured resolution outcomes.
type ResolutionService struct {
	catalog     CatalogIndex
	resolver    *ColorResolver
	sessions    *SessionStore
	logger      *zap.Logger
	clock       func() time.Time
	dedupWindow time.Duration
	searchLimit int
}

// NewResolutionService validates dependencies and constructs the service.
func NewResolutionService(deps ResolutionDeps) (*ResolutionService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("services: catalog index is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("services: color resolver is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("services: session store is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.DedupWindow <= 0 {
		deps.DedupWindow = defaultDedupWindow
	}

	return &ResolutionService{
		catalog:     deps.Catalog,
		resolver:    deps.Resolver,
		sessions:    deps.Sessions,
		logger:      deps.Logger,
		clock:       deps.Clock,
		dedupWindow: deps.DedupWindow,
		searchLimit: defaultSearchLimit,
	}, nil
}

// ResolveRequest handles one conversational turn for the session: resolve the
// product query (falling back to remembered product on an empty/placeholder
// query), then resolve the color query against that product's variants.
// Identical request text arriving within the suppression window replays the
// prior outcome without re-resolving.
func (s *ResolutionService) ResolveRequest(ctx context.Context, sessionID, productQuery, colorQuery string) (domain.ResolutionOutcome, error) {
	session := s.sessions.Get(sessionID)
	session.mu.Lock()
	defer session.mu.Unlock()

	now := s.clock()
	requestText := strings.TrimSpace(productQuery) + "\x1f" + strings.TrimSpace(colorQuery)

	if prior := session.memory.LastOutcome; prior != nil &&
		session.memory.LastRequestText == requestText &&
		now.Sub(session.memory.LastRequestTimestamp) < s.dedupWindow {
		replay := *prior
		replay.Replayed = true
		s.logger.Info("resolution: duplicate request suppressed",
			zap.String("session_id", session.memory.SessionID),
			zap.String("kind", string(prior.Kind)),
			zap.String("product_query", observability.SanitizeQuery(productQuery)),
			zap.String("color_query", observability.SanitizeQuery(colorQuery)),
		)
		return replay, nil
	}

	record := func(outcome domain.ResolutionOutcome) domain.ResolutionOutcome {
		outcome.SessionID = session.memory.SessionID
		session.memory.LastRequestText = requestText
		session.memory.LastRequestTimestamp = now
		session.memory.UpdatedAt = now
		stored := outcome
		session.memory.LastOutcome = &stored
		return outcome
	}

	product, outcome, err := s.resolveProduct(ctx, session, productQuery)
	if err != nil {
		return domain.ResolutionOutcome{}, err
	}
	if outcome != nil {
		return record(*outcome), nil
	}

	colorRequested := strings.TrimSpace(colorQuery)

	variants, err := s.catalog.Variants(ctx, product.ID, 0)
	if err != nil {
		if errors.Is(err, catalog.ErrProvidersUnavailable) {
			return record(domain.ResolutionOutcome{
				Kind:         domain.OutcomeProvidersUnavailable,
				ProductID:    product.ID,
				ProductTitle: product.Title,
				Query:        productQuery,
			}), nil
		}
		return domain.ResolutionOutcome{}, err
	}

	colors, err := s.catalog.AvailableColors(ctx, product.ID)
	if err != nil {
		return domain.ResolutionOutcome{}, err
	}

	if colorRequested == "" {
		// No color requested: select every variant and leave the remembered
		// color untouched.
		session.memory.LastProductID = product.ID
		session.memory.LastProductTitle = product.Title
		session.memory.AvailableColors = colors

		return record(domain.ResolutionOutcome{
			Kind:         domain.OutcomeResolved,
			ProductID:    product.ID,
			ProductTitle: product.Title,
			Query:        productQuery,
			Selection: &domain.VariantSelection{
				VariantIDs:      variantIDs(variants),
				AvailableColors: colors,
			},
		}), nil
	}

	match := s.resolver.Resolve(colorRequested, colors)
	if !match.Matched() {
		// Previous successful product/color memory stays authoritative.
		return record(domain.ResolutionOutcome{
			Kind:            domain.OutcomeColorNotAvailable,
			ProductID:       product.ID,
			ProductTitle:    product.Title,
			Query:           productQuery,
			RequestedColor:  colorRequested,
			AvailableColors: colors,
			Alternatives:    match.Alternatives,
		}), nil
	}

	filtered := FilterVariantsByColor(variants, match.MatchedColor)

	session.memory.LastProductID = product.ID
	session.memory.LastProductTitle = product.Title
	session.memory.LastColor = match.MatchedColor
	session.memory.AvailableColors = colors

	matchCopy := match
	return record(domain.ResolutionOutcome{
		Kind:           domain.OutcomeResolved,
		ProductID:      product.ID,
		ProductTitle:   product.Title,
		Query:          productQuery,
		RequestedColor: colorRequested,
		Selection: &domain.VariantSelection{
			VariantIDs:      variantIDs(filtered),
			SelectedColor:   match.MatchedColor,
			AvailableColors: colors,
			ColorMatch:      &matchCopy,
		},
	}), nil
}

// resolveProduct returns the resolved product, or a terminal outcome when the
// query cannot be resolved. Caller holds the session lock.
func (s *ResolutionService) resolveProduct(ctx context.Context, session *Session, productQuery string) (domain.Product, *domain.ResolutionOutcome, error) {
	query := strings.TrimSpace(productQuery)
	if _, placeholder := placeholderQueries[strings.ToLower(query)]; placeholder {
		if session.memory.LastProductID == 0 {
			return domain.Product{}, &domain.ResolutionOutcome{
				Kind:  domain.OutcomeProductNotFound,
				Query: productQuery,
			}, nil
		}
		product, err := s.catalog.Product(ctx, session.memory.LastProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return domain.Product{}, &domain.ResolutionOutcome{
					Kind:  domain.OutcomeProductNotFound,
					Query: productQuery,
				}, nil
			}
			return domain.Product{}, nil, err
		}
		return product, nil, nil
	}

	results, err := s.catalog.Search(ctx, query, s.searchLimit)
	if err != nil {
		return domain.Product{}, nil, err
	}
	if len(results) == 0 {
		return domain.Product{}, &domain.ResolutionOutcome{
			Kind:  domain.OutcomeProductNotFound,
			Query: productQuery,
		}, nil
	}
	return results[0], nil, nil
}

// ResetSession clears all memory for the session. It reports whether the
// session existed.
func (s *ResolutionService) ResetSession(sessionID string) bool {
	return s.sessions.Reset(sessionID)
}

// SessionMemory returns a copy of the session's memory when it exists.
func (s *ResolutionService) SessionMemory(sessionID string) (domain.SessionMemory, bool) {
	session, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return domain.SessionMemory{}, false
	}
	return session.Memory(), true
}

// SetResultHandle records the opaque preview reference (e.g. a mockup image
// URL) the caller produced for the session's last resolved selection. It
// reports whether the session existed.
func (s *ResolutionService) SetResultHandle(sessionID, handle string) bool {
	session, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return false
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.memory.LastResultHandle = strings.TrimSpace(handle)
	session.memory.UpdatedAt = s.clock()
	return true
}

// CategorySummary describes every category with its product count and a few
// sample titles, ordered by category name. Used to build prompt context for
// the upstream decision layer.
func (s *ResolutionService) CategorySummary(ctx context.Context) ([]domain.CategorySummary, error) {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]domain.CategorySummary, 0, len(names))
	for _, name := range names {
		products := categories[name]
		samples := make([]string, 0, categorySamples)
		for _, product := range products {
			if len(samples) == categorySamples {
				break
			}
			samples = append(samples, product.Title)
		}
		summaries = append(summaries, domain.CategorySummary{
			Category: name,
			Count:    len(products),
			Samples:  samples,
		})
	}
	return summaries, nil
}

// RefreshCatalog forces a full catalog refresh.
func (s *ResolutionService) RefreshCatalog(ctx context.Context) error {
	return s.catalog.Load(ctx, true)
}

// CatalogStatus reports the snapshot timestamp and product count.
func (s *ResolutionService) CatalogStatus() (time.Time, int) {
	return s.catalog.LastUpdate(), s.catalog.Size()
}

func variantIDs(variants []domain.Variant) []int {
	ids := make([]int, 0, len(variants))
	for _, variant := range variants {
		ids = append(ids, variant.ID)
	}
	return ids
}
