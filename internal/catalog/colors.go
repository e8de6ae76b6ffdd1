package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeColor reduces a raw variant color string to its primary hue.
// Compound qualifiers after a slash ("Navy/Heather") and trailing "patch"
// qualifiers ("Black patch") are stripped before title-casing. The result is
// deterministic, so deduplicating colors by normalized value is stable.
func NormalizeColor(raw string) string {
	color := strings.TrimSpace(raw)
	if color == "" {
		return ""
	}

	if idx := strings.Index(color, "/"); idx >= 0 {
		color = color[:idx]
	}
	if idx := strings.Index(strings.ToLower(color), " patch"); idx >= 0 {
		color = color[:idx]
	}
	color = strings.TrimSpace(color)
	if color == "" {
		return ""
	}

	return cases.Title(language.English).String(strings.ToLower(color))
}
