package service

import (
	"sort"
	"time"

	"gramtrack/internal/clock"
	"gramtrack/internal/models"
)

// StatsService aggregates read-state timestamps into window counts, the
// yearly heatmap and the recently-read listing.
type StatsService struct {
	now func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService() *StatsService {
	return &StatsService{now: time.Now}
}

// CalculateStats counts reads over the reporting windows. Calendar windows
// (today, week, month) compare logical days; rolling windows (last 7/14/30)
// compare raw elapsed time. Unparseable read dates count toward the read
// total but no window.
func (s *StatsService) CalculateStats(readStates map[string]models.ReadState, points []models.GrammarPoint) models.Stats {
	now := s.now()
	today := clock.LogicalDay(now)
	weekStart := clock.WeekStart(now)
	monthStart := clock.MonthStart(now)

	stats := models.Stats{Total: len(points)}

	for _, point := range points {
		state, ok := readStates[point.ID]
		if !ok || !state.ReadStatus {
			continue
		}
		stats.Read++

		readAt, ok := state.ReadTime()
		if !ok {
			continue
		}
		readAt = readAt.In(now.Location())

		day := clock.LogicalDay(readAt)
		if day.Equal(today) {
			stats.Today++
		}
		if !day.Before(weekStart) {
			stats.Week++
		}
		if !day.Before(monthStart) {
			stats.Month++
		}

		elapsed := now.Sub(readAt)
		if elapsed <= 7*24*time.Hour {
			stats.Last7++
		}
		if elapsed <= 14*24*time.Hour {
			stats.Last14++
		}
		if elapsed <= 30*24*time.Hour {
			stats.Last30++
		}
	}

	return stats
}

// BuildHeatmap lays out one calendar year of daily read counts as a grid of
// weekday rows (Sunday first) and week columns. Column 0 aligns to the
// year's first day, so cells before Jan 1's weekday in that column are nil,
// as are cells past Dec 31.
func (s *StatsService) BuildHeatmap(readStates map[string]models.ReadState, points []models.GrammarPoint, year int) models.Heatmap {
	now := s.now()
	today := clock.LogicalDay(now)

	counts := make(map[string]int)
	for _, point := range points {
		state, ok := readStates[point.ID]
		if !ok || !state.ReadStatus {
			continue
		}
		readAt, ok := state.ReadTime()
		if !ok {
			continue
		}
		day := clock.LogicalDay(readAt.In(now.Location()))
		if day.Year() == year {
			counts[clock.FormatDate(day)]++
		}
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
	dec31 := time.Date(year, time.December, 31, 0, 0, 0, 0, now.Location())
	totalDays := dec31.YearDay()

	firstWeekday := int(jan1.Weekday())
	weeks := (firstWeekday + totalDays + 6) / 7

	heatmap := models.Heatmap{Year: year, Weeks: weeks, MaxCount: maxCount}
	for row := 0; row < 7; row++ {
		heatmap.Grid[row] = make([]*models.HeatmapCell, weeks)
	}

	for dayIndex := 0; dayIndex < totalDays; dayIndex++ {
		date := jan1.AddDate(0, 0, dayIndex)
		slot := firstWeekday + dayIndex
		row := slot % 7
		col := slot / 7

		count := counts[clock.FormatDate(date)]
		heatmap.Grid[row][col] = &models.HeatmapCell{
			Date:  clock.FormatDate(date),
			Count: count,
			Level: intensityLevel(count, maxCount),
			Today: date.Equal(today),
		}
	}

	return heatmap
}

// intensityLevel maps a day's count to one of 5 display bands relative to
// the year's busiest day.
func intensityLevel(count, maxCount int) int {
	if count == 0 || maxCount == 0 {
		return 0
	}
	ratio := float64(count) / float64(maxCount)
	switch {
	case ratio <= 0.25:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.75:
		return 3
	default:
		return 4
	}
}

// RecentlyRead returns up to limit read points, most recent first. Points
// with unparseable read dates are skipped.
func (s *StatsService) RecentlyRead(readStates map[string]models.ReadState, points []models.GrammarPoint, limit int) []models.RecentPoint {
	var recent []models.RecentPoint
	for _, point := range points {
		state, ok := readStates[point.ID]
		if !ok || !state.ReadStatus {
			continue
		}
		readAt, ok := state.ReadTime()
		if !ok {
			continue
		}
		recent = append(recent, models.RecentPoint{GrammarPoint: point, ReadAt: readAt})
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].ReadAt.After(recent[j].ReadAt)
	})

	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}
