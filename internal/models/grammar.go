package models

import "time"

// GrammarPoint is one reference entry loaded from a source database file.
// Records are immutable once loaded.
type GrammarPoint struct {
	ID        string `json:"id"`
	Point     string `json:"point"`
	Link      string `json:"link"`
	Shorthand string `json:"shorthand"`
	Source    string `json:"source"`
}

// ReadState tracks whether a user has marked a point as read and when.
// ReadDate is an RFC3339 timestamp and is non-nil iff ReadStatus is true.
type ReadState struct {
	ReadStatus bool    `json:"readStatus"`
	ReadDate   *string `json:"readDate"`
}

// ReadTime parses the stored read date. The second return is false when the
// date is absent or unparseable; callers must skip such entries rather than
// fail.
func (rs ReadState) ReadTime() (time.Time, bool) {
	if rs.ReadDate == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, *rs.ReadDate)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, *rs.ReadDate); err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}

// Group is a user-defined named collection of grammar point ids.
type Group struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CreatedAt  string   `json:"createdAt"`
	ModifiedAt string   `json:"modifiedAt"`
	Points     []string `json:"points"`
}

// UserSettings is the full per-user settings document.
type UserSettings struct {
	Filters       map[string]bool      `json:"filters"`
	Locked        map[string]bool      `json:"locked"`
	GrammarPoints map[string]ReadState `json:"grammarPoints"`
	GrammarGroups map[string]Group     `json:"grammarGroups"`
	UnreadOnly    bool                 `json:"unreadOnly"`
	ReadOnly      bool                 `json:"readOnly"`
	Theme         string               `json:"theme"`
}

// Stats holds read counts over the fixed reporting windows.
type Stats struct {
	Today  int `json:"today"`
	Week   int `json:"week"`
	Month  int `json:"month"`
	Last7  int `json:"last7"`
	Last14 int `json:"last14"`
	Last30 int `json:"last30"`
	Total  int `json:"total"`
	Read   int `json:"read"`
}

// HeatmapCell is one day in the yearly heatmap grid. Level is the display
// intensity band (0-4) relative to the year's busiest day.
type HeatmapCell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
	Today bool   `json:"today"`
}

// Heatmap is a full calendar year of daily read counts, one row per weekday
// (Sunday first) and one column per week. Cells outside the year are nil.
type Heatmap struct {
	Year     int              `json:"year"`
	Weeks    int              `json:"weeks"`
	MaxCount int              `json:"maxCount"`
	Grid     [7][]*HeatmapCell `json:"grid"`
}

// RecentPoint is a read grammar point joined with its read time, for the
// recently-read listing.
type RecentPoint struct {
	GrammarPoint
	ReadAt time.Time `json:"readAt"`
}
