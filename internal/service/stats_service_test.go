package service

import (
	"fmt"
	"testing"
	"time"

	"gramtrack/internal/models"
)

func fixedStatsService(now time.Time) *StatsService {
	svc := NewStatsService()
	svc.now = func() time.Time { return now }
	return svc
}

func readState(readAt time.Time) models.ReadState {
	date := readAt.Format(time.RFC3339)
	return models.ReadState{ReadStatus: true, ReadDate: &date}
}

func TestCalculateStats(t *testing.T) {
	// A Wednesday afternoon; the logical week began Sunday March 9
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	svc := fixedStatsService(now)

	points := []models.GrammarPoint{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"},
	}
	states := map[string]models.ReadState{
		// Read this morning at 03:00: logical day is yesterday, but still
		// inside the rolling windows
		"a": readState(time.Date(2025, 3, 12, 3, 0, 0, 0, time.UTC)),
		// Read today after the cutoff
		"b": readState(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)),
		// Read last Saturday: outside the current week, inside last 7 days
		"c": readState(time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)),
		// Read in February: only month misses it among calendar windows
		"d": readState(time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC)),
	}

	stats := svc.CalculateStats(states, points)

	if stats.Total != 5 {
		t.Errorf("total: expected 5, got %d", stats.Total)
	}
	if stats.Read != 4 {
		t.Errorf("read: expected 4, got %d", stats.Read)
	}
	if stats.Today != 1 {
		t.Errorf("today: expected 1 (early-morning read belongs to yesterday), got %d", stats.Today)
	}
	if stats.Week != 2 {
		t.Errorf("week: expected 2, got %d", stats.Week)
	}
	if stats.Month != 3 {
		t.Errorf("month: expected 3, got %d", stats.Month)
	}
	if stats.Last7 != 3 {
		t.Errorf("last7: expected 3, got %d", stats.Last7)
	}
	if stats.Last14 != 3 {
		t.Errorf("last14: expected 3, got %d", stats.Last14)
	}
	if stats.Last30 != 4 {
		t.Errorf("last30: expected 4, got %d", stats.Last30)
	}
}

func TestCalculateStatsSkipsMalformedDates(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	svc := fixedStatsService(now)

	bad := "not-a-date"
	states := map[string]models.ReadState{
		"a": {ReadStatus: true, ReadDate: &bad},
		"b": {ReadStatus: true, ReadDate: nil},
	}
	points := []models.GrammarPoint{{ID: "a"}, {ID: "b"}}

	stats := svc.CalculateStats(states, points)
	if stats.Read != 2 {
		t.Errorf("read: expected 2, got %d", stats.Read)
	}
	if stats.Today != 0 || stats.Week != 0 || stats.Month != 0 || stats.Last30 != 0 {
		t.Errorf("malformed dates must not land in any window: %+v", stats)
	}
}

func TestBuildHeatmapGridShape(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := fixedStatsService(now)

	heatmap := svc.BuildHeatmap(nil, nil, 2025)

	if heatmap.Year != 2025 {
		t.Errorf("expected year 2025, got %d", heatmap.Year)
	}

	// Jan 1 2025 is a Wednesday: row 3, column 0
	if cell := heatmap.Grid[3][0]; cell == nil || cell.Date != "2025-01-01" {
		t.Errorf("expected Jan 1 at row 3 col 0, got %+v", cell)
	}
	// Cells before Jan 1's weekday in column 0 are empty
	for row := 0; row < 3; row++ {
		if heatmap.Grid[row][0] != nil {
			t.Errorf("expected empty cell at row %d col 0, got %+v", row, heatmap.Grid[row][0])
		}
	}

	// Every non-nil cell accounted for exactly once, 365 days in 2025
	cells := 0
	for row := 0; row < 7; row++ {
		if len(heatmap.Grid[row]) != heatmap.Weeks {
			t.Fatalf("row %d has %d columns, expected %d", row, len(heatmap.Grid[row]), heatmap.Weeks)
		}
		for _, cell := range heatmap.Grid[row] {
			if cell != nil {
				cells++
			}
		}
	}
	if cells != 365 {
		t.Errorf("expected 365 cells for 2025, got %d", cells)
	}
}

func TestBuildHeatmapLeapYear(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := fixedStatsService(now)

	states := map[string]models.ReadState{
		"a": readState(time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)),
	}
	points := []models.GrammarPoint{{ID: "a"}}

	heatmap := svc.BuildHeatmap(states, points, 2024)

	cells := 0
	var feb29 *models.HeatmapCell
	for row := 0; row < 7; row++ {
		for _, cell := range heatmap.Grid[row] {
			if cell == nil {
				continue
			}
			cells++
			if cell.Date == "2024-02-29" {
				feb29 = cell
			}
		}
	}
	if cells != 366 {
		t.Errorf("expected 366 cells for 2024, got %d", cells)
	}
	if feb29 == nil {
		t.Fatal("Feb 29 cell missing from leap year grid")
	}
	if feb29.Count != 1 {
		t.Errorf("expected Feb 29 count 1, got %d", feb29.Count)
	}
}

func TestBuildHeatmapCountsAndLevels(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	svc := fixedStatsService(now)

	var points []models.GrammarPoint
	states := make(map[string]models.ReadState)
	addReads := func(day time.Time, n int) {
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s-%d", day.Format("0102"), i)
			points = append(points, models.GrammarPoint{ID: id})
			states[id] = readState(day)
		}
	}
	addReads(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), 4)
	addReads(time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC), 1)
	addReads(time.Date(2025, 1, 12, 12, 0, 0, 0, time.UTC), 2)
	// Outside the year, must be ignored
	addReads(time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC), 3)

	heatmap := svc.BuildHeatmap(states, points, 2025)

	if heatmap.MaxCount != 4 {
		t.Errorf("expected max count 4, got %d", heatmap.MaxCount)
	}

	sum := 0
	byDate := make(map[string]*models.HeatmapCell)
	for row := 0; row < 7; row++ {
		for _, cell := range heatmap.Grid[row] {
			if cell != nil {
				sum += cell.Count
				byDate[cell.Date] = cell
			}
		}
	}
	if sum != 7 {
		t.Errorf("expected 7 reads inside 2025, got %d", sum)
	}

	if cell := byDate["2025-01-10"]; cell.Level != 4 {
		t.Errorf("busiest day should be level 4, got %d", cell.Level)
	}
	if cell := byDate["2025-01-11"]; cell.Level != 1 {
		t.Errorf("1 of 4 should be level 1, got %d", cell.Level)
	}
	if cell := byDate["2025-01-12"]; cell.Level != 2 {
		t.Errorf("2 of 4 should be level 2, got %d", cell.Level)
	}
	if cell := byDate["2025-01-13"]; cell.Level != 0 || cell.Count != 0 {
		t.Errorf("empty day should be level 0, got %+v", cell)
	}

	today := byDate["2025-03-12"]
	if today == nil || !today.Today {
		t.Errorf("expected today's cell flagged, got %+v", today)
	}
	if byDate["2025-03-11"].Today {
		t.Error("yesterday must not be flagged as today")
	}
}

func TestRecentlyRead(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	svc := fixedStatsService(now)

	points := []models.GrammarPoint{
		{ID: "a", Point: "ること"},
		{ID: "b", Point: "ことにする"},
		{ID: "c", Point: "ことがある"},
		{ID: "d", Point: "じゃない"},
	}
	bad := "garbage"
	states := map[string]models.ReadState{
		"a": readState(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)),
		"b": readState(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)),
		"c": readState(time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)),
		"d": {ReadStatus: true, ReadDate: &bad},
	}

	recent := svc.RecentlyRead(states, points, 2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 results, got %d", len(recent))
	}
	if recent[0].ID != "b" || recent[1].ID != "c" {
		t.Errorf("expected [b c], got [%s %s]", recent[0].ID, recent[1].ID)
	}

	all := svc.RecentlyRead(states, points, 0)
	if len(all) != 3 {
		t.Errorf("expected 3 parseable reads with no limit, got %d", len(all))
	}
}
