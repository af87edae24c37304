package service

import (
	"strings"

	"gramtrack/internal/kana"
	"gramtrack/internal/models"
)

// SearchService filters loaded grammar points by query text, source
// selection and read state.
type SearchService struct{}

// NewSearchService creates a new search service
func NewSearchService() *SearchService {
	return &SearchService{}
}

// SearchOptions narrows a search. Sources is the set of selected source
// names; nil means every source. UnreadOnly and ReadOnly are applied
// independently even though the settings layer keeps them exclusive.
type SearchOptions struct {
	Sources    map[string]bool
	ReadStates map[string]models.ReadState
	UnreadOnly bool
	ReadOnly   bool
}

// Search returns the points matching the query under the given options,
// preserving the input order.
func (s *SearchService) Search(points []models.GrammarPoint, query string, opts SearchOptions) []models.GrammarPoint {
	exact, needle := parseQuery(query)

	results := make([]models.GrammarPoint, 0)
	for _, point := range points {
		if opts.Sources != nil && !opts.Sources[point.Source] && !opts.Sources[point.Shorthand] {
			continue
		}

		state := opts.ReadStates[point.ID]
		if opts.UnreadOnly && state.ReadStatus {
			continue
		}
		if opts.ReadOnly && !state.ReadStatus {
			continue
		}

		if needle != "" {
			if exact {
				if point.Point != needle {
					continue
				}
			} else if !strings.Contains(kana.ToHiragana(point.Point), needle) {
				continue
			}
		}

		results = append(results, point)
	}
	return results
}

// parseQuery decides between exact and substring mode. A query wrapped in
// matching double quotes or Japanese corner brackets is an exact match on
// the inner text; anything else is folded to hiragana for substring search.
func parseQuery(query string) (exact bool, needle string) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) >= 2 {
		if strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
			return true, trimmed[1 : len(trimmed)-1]
		}
		if strings.HasPrefix(trimmed, "「") && strings.HasSuffix(trimmed, "」") {
			return true, strings.TrimSuffix(strings.TrimPrefix(trimmed, "「"), "」")
		}
	}
	return false, kana.ToHiragana(trimmed)
}
