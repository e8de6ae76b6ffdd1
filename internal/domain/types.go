package domain

import (
	"time"
)

// PrintProvider identifies a manufacturing partner offering a blueprint.
type PrintProvider struct {
	ID    int    `json:"id"`
	Title string `json:"title,omitempty"`
}

// Variant is a concrete orderable SKU of a blueprint+provider combination.
// Color carries the normalized form (primary hue, qualifiers stripped,
// title-cased); the raw remote string is not retained.
type Variant struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Color           string `json:"color"`
	Size            string `json:"size,omitempty"`
	Price           int    `json:"price,omitempty"`
	PrintProviderID int    `json:"printProviderId,omitempty"`
	Available       bool   `json:"available"`
}

// Product is one catalog entry built from a remote blueprint. Variants is
// empty until lazy resolution populates it; after that single mutation the
// product is immutable until the next full cache rebuild.
type Product struct {
	ID             int             `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Tags           []string        `json:"tags"`
	Variants       []Variant       `json:"variants"`
	PrintProviders []PrintProvider `json:"printProviders"`
	Images         []string        `json:"images"`
	CreatedAt      time.Time       `json:"createdAt"`
	Available      bool            `json:"available"`
}

// HasVariants reports whether lazy variant resolution already ran for this
// product.
func (p Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// ColorMatch is the result of resolving a free-text color request against a
// product's available colors. Confidence bands: 1.0 exact, 0.7 substring or
// word-level match, 0.0 no match.
type ColorMatch struct {
	RequestedColor string   `json:"requestedColor"`
	MatchedColor   string   `json:"matchedColor,omitempty"`
	Confidence     float64  `json:"confidence"`
	Alternatives   []string `json:"alternatives,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`
}

// Matched reports whether the resolver found a usable color.
func (m ColorMatch) Matched() bool {
	return m.MatchedColor != ""
}

// VariantSelection carries the variant ids chosen for a resolved
// product+color pair together with the color context used to choose them.
type VariantSelection struct {
	VariantIDs      []int      `json:"variantIds"`
	SelectedColor   string     `json:"selectedColor,omitempty"`
	AvailableColors []string   `json:"availableColors"`
	ColorMatch      *ColorMatch `json:"colorMatch,omitempty"`
}

// OutcomeKind enumerates the result variants a resolution request can
// produce. These are values the caller branches on, not errors.
type OutcomeKind string

const (
	// OutcomeResolved means both product and (when requested) color resolved.
	OutcomeResolved OutcomeKind = "resolved"
	// OutcomeProductNotFound means the product query matched nothing.
	OutcomeProductNotFound OutcomeKind = "product_not_found"
	// OutcomeColorNotAvailable means the product resolved but the requested
	// color matched none of its variants.
	OutcomeColorNotAvailable OutcomeKind = "color_not_available"
	// OutcomeProvidersUnavailable means the resolved product has no print
	// providers and therefore no orderable variants.
	OutcomeProvidersUnavailable OutcomeKind = "providers_unavailable"
)

// ResolutionOutcome is the structured answer to one conversational request.
// Every non-resolved outcome carries enough context for the caller to present
// real alternatives instead of a bare "not found".
type ResolutionOutcome struct {
	Kind            OutcomeKind      `json:"kind"`
	SessionID       string           `json:"sessionId"`
	ProductID       int              `json:"productId,omitempty"`
	ProductTitle    string           `json:"productTitle,omitempty"`
	Selection       *VariantSelection `json:"selection,omitempty"`
	Query           string           `json:"query,omitempty"`
	RequestedColor  string           `json:"requestedColor,omitempty"`
	AvailableColors []string         `json:"availableColors,omitempty"`
	Alternatives    []string         `json:"alternatives,omitempty"`
	Replayed        bool             `json:"replayed,omitempty"`
}

// Resolved reports whether the request produced a usable product selection.
func (o ResolutionOutcome) Resolved() bool {
	return o.Kind == OutcomeResolved
}

// SessionMemory is the per-conversation resolution context. It lives only in
// process memory; a session reset restores the zero value.
type SessionMemory struct {
	SessionID            string
	LastProductID        int
	LastProductTitle     string
	LastColor            string
	AvailableColors      []string
	LastResultHandle     string
	LastRequestText      string
	LastRequestTimestamp time.Time
	LastOutcome          *ResolutionOutcome
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CategorySummary describes one category for prompt/context building.
type CategorySummary struct {
	Category string   `json:"category"`
	Count    int      `json:"count"`
	Samples  []string `json:"samples"`
}
