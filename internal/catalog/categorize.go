package catalog

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// categoryKeywords maps title keywords to a fixed taxonomy. Entries are
// scanned in order and the first matching keyword wins, so more specific
// categories must come before broader ones.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"shirt", []string{"shirt", "tee", "t-shirt", "tank", "polo"}},
	{"hoodie", []string{"hoodie", "sweatshirt", "pullover", "zip"}},
	{"hat", []string{"hat", "cap", "beanie", "bucket", "trucker"}},
	{"mug", []string{"mug", "cup", "tumbler", "bottle"}},
	{"bag", []string{"bag", "tote", "backpack", "drawstring", "sack"}},
	{"accessories", []string{"sticker", "magnet", "keychain", "pin"}},
	{"home", []string{"pillow", "blanket", "poster", "canvas", "lamp"}},
	{"phone", []string{"case", "cover", "sleeve"}},
	{"footwear", []string{"socks", "shoe", "sandal", "flip"}},
}

var tagMaterials = []string{"cotton", "polyester", "fleece", "denim", "canvas", "leather", "metal", "ceramic"}

var tagStyles = []string{"vintage", "premium", "classic", "modern", "retro", "basic", "heavy", "light"}

var tagStopWords = map[string]struct{}{
	"the":  {},
	"and":  {},
	"with": {},
	"for":  {},
}

var htmlStripper = bluemonday.StrictPolicy()

// Categorize assigns a taxonomy category based on keywords in the product title.
func Categorize(title string) string {
	titleLower := strings.ToLower(title)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(titleLower, keyword) {
				return entry.category
			}
		}
	}
	return "other"
}

// ExtractTags derives a coarse bag-of-words from the product title: known
// material and style keywords plus every title word longer than three
// characters, minus a short stop-list. Used only to boost search recall.
func ExtractTags(title string) []string {
	titleLower := strings.ToLower(title)
	seen := make(map[string]struct{})
	tags := make([]string, 0, 8)

	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, material := range tagMaterials {
		if strings.Contains(titleLower, material) {
			add(material)
		}
	}
	for _, style := range tagStyles {
		if strings.Contains(titleLower, style) {
			add(style)
		}
	}

	words := strings.Fields(strings.ReplaceAll(titleLower, "-", " "))
	for _, word := range words {
		if len(word) <= 3 {
			continue
		}
		if _, stop := tagStopWords[word]; stop {
			continue
		}
		add(word)
	}

	return tags
}

// StripHTML removes markup from upstream blueprint descriptions, which arrive
// as HTML fragments, leaving plain text for storage and search.
func StripHTML(description string) string {
	stripped := htmlStripper.Sanitize(description)
	stripped = html.UnescapeString(stripped)
	return strings.Join(strings.Fields(stripped), " ")
}
