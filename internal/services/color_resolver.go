package services

import (
	"fmt"
	"strings"

	"github.com/nathan-eagle/MiM/internal/domain"
)

const defaultMaxAlternatives = 3

// ColorResolver matches a free-text color request against a product's
// available colors. Matching is deterministic and side-effect-free.
type ColorResolver struct {
	maxAlternatives int
}

// NewColorResolver constructs a resolver returning up to maxAlternatives
// candidate colors on a failed match.
func NewColorResolver(maxAlternatives int) *ColorResolver {
	if maxAlternatives <= 0 {
		maxAlternatives = defaultMaxAlternatives
	}
	return &ColorResolver{maxAlternatives: maxAlternatives}
}

// Resolve applies the matching ladder in order, stopping at the first rule
// that produces a match: exact, bidirectional substring, then word-level
// token overlap. No match yields the first alternatives in sorted order.
func (r *ColorResolver) Resolve(requestedColor string, availableColors []string) domain.ColorMatch {
	match := domain.ColorMatch{RequestedColor: requestedColor}
	requested := strings.ToLower(strings.TrimSpace(requestedColor))
	if requested == "" || len(availableColors) == 0 {
		match.Alternatives = r.alternatives(availableColors)
		match.Explanation = "no color requested or no colors available"
		return match
	}

	for _, color := range availableColors {
		if strings.EqualFold(color, requested) {
			match.MatchedColor = color
			match.Confidence = 1.0
			match.Explanation = fmt.Sprintf("exact match for %q", requestedColor)
			return match
		}
	}

	for _, color := range availableColors {
		colorLower := strings.ToLower(color)
		if strings.Contains(colorLower, requested) || strings.Contains(requested, colorLower) {
			match.MatchedColor = color
			match.Confidence = 0.7
			match.Explanation = fmt.Sprintf("%q matches %q by substring", requestedColor, color)
			return match
		}
	}

	for _, color := range availableColors {
		for _, token := range strings.Fields(strings.ToLower(color)) {
			if len(token) > 3 && strings.Contains(requested, token) {
				match.MatchedColor = color
				match.Confidence = 0.7
				match.Explanation = fmt.Sprintf("%q shares the word %q with %q", requestedColor, token, color)
				return match
			}
		}
	}

	match.Alternatives = r.alternatives(availableColors)
	match.Explanation = fmt.Sprintf("no available color matches %q", requestedColor)
	return match
}

func (r *ColorResolver) alternatives(availableColors []string) []string {
	limit := r.maxAlternatives
	if limit > len(availableColors) {
		limit = len(availableColors)
	}
	alternatives := make([]string, limit)
	copy(alternatives, availableColors[:limit])
	return alternatives
}

// FilterVariantsByColor orders exact-color variants before substring matches,
// so callers prefer the precise color when near-duplicates exist ("Navy" over
// "Navy Blue").
func FilterVariantsByColor(variants []domain.Variant, matchedColor string) []domain.Variant {
	if strings.TrimSpace(matchedColor) == "" {
		return variants
	}

	colorLower := strings.ToLower(matchedColor)
	exact := make([]domain.Variant, 0, len(variants))
	partial := make([]domain.Variant, 0, len(variants))
	for _, variant := range variants {
		variantColor := strings.ToLower(variant.Color)
		switch {
		case variantColor == colorLower:
			exact = append(exact, variant)
		case strings.Contains(variantColor, colorLower):
			partial = append(partial, variant)
		}
	}
	return append(exact, partial...)
}
