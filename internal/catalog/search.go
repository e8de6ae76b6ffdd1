package catalog

import (
	"sort"
	"strings"

	"github.com/nathan-eagle/MiM/internal/domain"
)

// Scoring ladder for ranked catalog search. Highest score wins, ties broken
// by catalog order (ascending product id).
const (
	scoreExactTitle     = 100
	scoreTitleSubstring = 80
	scoreCategory       = 60
	scoreTag            = 40
	scoreDescription    = 20
)

// Search ranks products against a free-text query. Products scoring zero are
// excluded; at most limit results are returned. An empty query yields no
// results rather than the whole catalog.
func Search(products []domain.Product, query string, limit int) []domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	type scored struct {
		product domain.Product
		score   int
	}

	matches := make([]scored, 0, len(products))
	for _, product := range products {
		score := scoreProduct(product, query)
		if score == 0 {
			continue
		}
		matches = append(matches, scored{product: product, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].product.ID < matches[j].product.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	results := make([]domain.Product, 0, len(matches))
	for _, match := range matches {
		results = append(results, match.product)
	}
	return results
}

func scoreProduct(product domain.Product, query string) int {
	titleLower := strings.ToLower(product.Title)

	if titleLower == query {
		return scoreExactTitle
	}
	if strings.Contains(titleLower, query) {
		return scoreTitleSubstring
	}
	if strings.Contains(strings.ToLower(product.Category), query) {
		return scoreCategory
	}
	for _, tag := range product.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return scoreTag
		}
	}
	if strings.Contains(strings.ToLower(product.Description), query) {
		return scoreDescription
	}
	return 0
}
