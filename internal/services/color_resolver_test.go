package services

import (
	"testing"

	"github.com/nathan-eagle/MiM/internal/domain"
)

func TestResolveExactMatch(t *testing.T) {
	resolver := NewColorResolver(3)
	match := resolver.Resolve("Navy", []string{"Black", "Navy", "White"})

	if match.MatchedColor != "Navy" {
		t.Errorf("expected Navy, got %q", match.MatchedColor)
	}
	if match.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", match.Confidence)
	}
}

func TestResolveExactMatchIsCaseInsensitive(t *testing.T) {
	resolver := NewColorResolver(3)
	match := resolver.Resolve("nAvY", []string{"Black", "Navy"})

	if match.MatchedColor != "Navy" || match.Confidence != 1.0 {
		t.Errorf("expected case-insensitive exact match, got %+v", match)
	}
}

func TestResolveSubstringMatch(t *testing.T) {
	resolver := NewColorResolver(3)
	match := resolver.Resolve("navy", []string{"Black", "Navy Blue", "White"})

	if match.MatchedColor != "Navy Blue" {
		t.Errorf("expected Navy Blue, got %q", match.MatchedColor)
	}
	if match.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7, got %f", match.Confidence)
	}
}

func TestResolveReverseSubstringMatch(t *testing.T) {
	resolver := NewColorResolver(3)
	match := resolver.Resolve("dark red color", []string{"Red", "White"})

	if match.MatchedColor != "Red" {
		t.Errorf("expected Red, got %q", match.MatchedColor)
	}
	if match.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7, got %f", match.Confidence)
	}
}

func TestResolveWordLevelMatch(t *testing.T) {
	resolver := NewColorResolver(3)
	// "forest" is a token longer than 3 characters shared with "Forest Green".
	match := resolver.Resolve("something forest-ish", []string{"Forest Green", "White"})

	if match.MatchedColor != "Forest Green" {
		t.Errorf("expected Forest Green, got %q", match.MatchedColor)
	}
	if match.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7, got %f", match.Confidence)
	}
}

func TestResolveNoMatchReturnsAlternatives(t *testing.T) {
	resolver := NewColorResolver(3)
	match := resolver.Resolve("chartreuse", []string{"Black", "White"})

	if match.Matched() {
		t.Fatalf("expected no match, got %q", match.MatchedColor)
	}
	if match.Confidence != 0.0 {
		t.Errorf("expected confidence 0.0, got %f", match.Confidence)
	}
	if len(match.Alternatives) != 2 || match.Alternatives[0] != "Black" || match.Alternatives[1] != "White" {
		t.Errorf("expected alternatives [Black White], got %v", match.Alternatives)
	}
}

func TestResolveAlternativesCapped(t *testing.T) {
	resolver := NewColorResolver(3)
	available := []string{"Black", "Blue", "Green", "Red", "White"}
	match := resolver.Resolve("chartreuse", available)

	if len(match.Alternatives) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(match.Alternatives))
	}
	for i, want := range []string{"Black", "Blue", "Green"} {
		if match.Alternatives[i] != want {
			t.Errorf("alternative %d = %q, want %q", i, match.Alternatives[i], want)
		}
	}
}

func TestResolveEmptyRequest(t *testing.T) {
	resolver := NewColorResolver(3)
	match := resolver.Resolve("  ", []string{"Black"})

	if match.Matched() {
		t.Errorf("expected no match for blank request, got %q", match.MatchedColor)
	}
}

func TestFilterVariantsByColorPrefersExact(t *testing.T) {
	variants := []domain.Variant{
		{ID: 1, Color: "Navy Blue"},
		{ID: 2, Color: "Navy"},
		{ID: 3, Color: "White"},
		{ID: 4, Color: "Navy"},
	}

	filtered := FilterVariantsByColor(variants, "Navy")
	if len(filtered) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(filtered))
	}
	if filtered[0].ID != 2 || filtered[1].ID != 4 {
		t.Errorf("expected exact Navy variants first, got %v", filtered)
	}
	if filtered[2].ID != 1 {
		t.Errorf("expected substring match last, got %v", filtered)
	}
}

func TestFilterVariantsByColorEmptyColorPassesThrough(t *testing.T) {
	variants := []domain.Variant{{ID: 1, Color: "Black"}}
	filtered := FilterVariantsByColor(variants, "")
	if len(filtered) != 1 {
		t.Errorf("expected passthrough, got %v", filtered)
	}
}
