package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/marq/internal/model"
)

// Filter returns the bookmarks whose title or URL contains the
// trimmed query as a case-insensitive substring, preserving snapshot
// order. An empty query returns the snapshot unchanged.
func Filter(snapshot []model.Bookmark, query string) []model.Bookmark {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return snapshot
	}

	result := []model.Bookmark{}
	for _, bm := range snapshot {
		if strings.Contains(strings.ToLower(bm.Title), query) ||
			strings.Contains(strings.ToLower(bm.URL), query) {
			result = append(result, bm)
		}
	}
	return result
}

// FuzzyResult represents a fuzzy search match.
type FuzzyResult struct {
	Bookmark       model.Bookmark
	MatchedIndexes []int
	Score          int
}

// bookmarkTitles implements fuzzy.Source for a bookmark slice.
type bookmarkTitles []model.Bookmark

func (bt bookmarkTitles) String(i int) string {
	return bt[i].Title
}

func (bt bookmarkTitles) Len() int {
	return len(bt)
}

// FuzzySearchBookmarks searches bookmarks by title using fuzzy
// matching, sorted by match score (best first). Used by the CLI
// quick-search picker; the dashboard filter uses Filter instead.
func FuzzySearchBookmarks(snapshot []model.Bookmark, query string) []FuzzyResult {
	if query == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, bookmarkTitles(snapshot))

	results := make([]FuzzyResult, len(matches))
	for i, m := range matches {
		results[i] = FuzzyResult{
			Bookmark:       snapshot[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}
