package service

import (
	"testing"

	"gramtrack/internal/models"
)

func searchFixture() []models.GrammarPoint {
	return []models.GrammarPoint{
		{ID: "dojg-1", Point: "食べる", Source: "dojg", Shorthand: "DoJG"},
		{ID: "dojg-2", Point: "食べるだろう", Source: "dojg", Shorthand: "DoJG"},
		{ID: "taekim-1", Point: "じゃない", Source: "taekim", Shorthand: "TK"},
		{ID: "taekim-2", Point: "Te-form (て)", Source: "taekim", Shorthand: "TK"},
	}
}

func TestSearchQuoting(t *testing.T) {
	svc := NewSearchService()
	points := searchFixture()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"exact double quotes", `"食べる"`, []string{"dojg-1"}},
		{"exact corner brackets", "「食べる」", []string{"dojg-1"}},
		{"substring matches both", "食べ", []string{"dojg-1", "dojg-2"}},
		{"empty query returns all", "", []string{"dojg-1", "dojg-2", "taekim-1", "taekim-2"}},
		{"no match", "走る", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Search(points, tt.query, SearchOptions{})
			assertResultIDs(t, got, tt.want)
		})
	}
}

func TestSearchRomajiFolding(t *testing.T) {
	svc := NewSearchService()
	points := searchFixture()

	// Romaji input should find kana text; kanji is never folded, so romaji
	// cannot match 食べる itself
	got := svc.Search(points, "janai", SearchOptions{})
	assertResultIDs(t, got, []string{"taekim-1"})

	got = svc.Search(points, "nai", SearchOptions{})
	assertResultIDs(t, got, []string{"taekim-1"})

	got = svc.Search(points, "taberu", SearchOptions{})
	assertResultIDs(t, got, nil)
}

func TestSearchSourceFilter(t *testing.T) {
	svc := NewSearchService()
	points := searchFixture()

	got := svc.Search(points, "", SearchOptions{
		Sources: map[string]bool{"taekim": true},
	})
	assertResultIDs(t, got, []string{"taekim-1", "taekim-2"})

	// Shorthand names select too
	got = svc.Search(points, "", SearchOptions{
		Sources: map[string]bool{"DoJG": true},
	})
	assertResultIDs(t, got, []string{"dojg-1", "dojg-2"})
}

func TestSearchReadFilters(t *testing.T) {
	svc := NewSearchService()
	points := searchFixture()
	date := "2025-03-10T12:00:00Z"
	states := map[string]models.ReadState{
		"dojg-1":   {ReadStatus: true, ReadDate: &date},
		"taekim-1": {ReadStatus: true, ReadDate: &date},
	}

	got := svc.Search(points, "", SearchOptions{ReadStates: states, UnreadOnly: true})
	assertResultIDs(t, got, []string{"dojg-2", "taekim-2"})

	got = svc.Search(points, "", SearchOptions{ReadStates: states, ReadOnly: true})
	assertResultIDs(t, got, []string{"dojg-1", "taekim-1"})

	// Both flags set excludes everything; each exclusion applies on its own
	got = svc.Search(points, "", SearchOptions{ReadStates: states, UnreadOnly: true, ReadOnly: true})
	assertResultIDs(t, got, nil)
}

func TestSearchPreservesInputOrder(t *testing.T) {
	svc := NewSearchService()
	points := []models.GrammarPoint{
		{ID: "c", Point: "ること", Source: "dojg"},
		{ID: "a", Point: "ことにする", Source: "dojg"},
		{ID: "b", Point: "ことがある", Source: "dojg"},
	}

	got := svc.Search(points, "こと", SearchOptions{})
	assertResultIDs(t, got, []string{"c", "a", "b"})
}

func assertResultIDs(t *testing.T, got []models.GrammarPoint, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d: %v", len(want), len(got), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("result %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}
