package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"gramtrack/internal/clock"
	"gramtrack/internal/logger"
	"gramtrack/internal/models"
	"gramtrack/internal/service"
	"gramtrack/internal/settings"
	"gramtrack/internal/sources"
	"gramtrack/internal/validation"
)

// StudyHandler serves the grammar point study API: sources, search, read
// state, filters and statistics.
type StudyHandler struct {
	loader   *sources.Loader
	manifest *sources.Manifest
	store    *settings.Store
	search   *service.SearchService
	stats    *service.StatsService
	log      logger.Logger
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(loader *sources.Loader, manifest *sources.Manifest, store *settings.Store, search *service.SearchService, stats *service.StatsService, log logger.Logger) *StudyHandler {
	return &StudyHandler{
		loader:   loader,
		manifest: manifest,
		store:    store,
		search:   search,
		stats:    stats,
		log:      log,
	}
}

// selectedSources resolves the filter map to the set of selected source
// names. Absent entries default to selected.
func selectedSources(manifest *sources.Manifest, filters map[string]bool) []string {
	var names []string
	for _, name := range manifest.Names() {
		if on, ok := filters[name]; !ok || on {
			names = append(names, name)
		}
	}
	return names
}

// Sources lists the configured sources with their selection and lock state
func (h *StudyHandler) Sources(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())

	filters, err := h.store.Filters(r.Context(), id)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to load filters", err)
		return
	}
	locked, err := h.store.Locked(r.Context(), id)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to load locks", err)
		return
	}

	type sourceView struct {
		Name      string `json:"name"`
		Label     string `json:"label"`
		Shorthand string `json:"shorthand"`
		Selected  bool   `json:"selected"`
		Locked    bool   `json:"locked"`
	}
	views := make([]sourceView, 0, len(h.manifest.Sources))
	for _, src := range h.manifest.Sources {
		selected, ok := filters[src.Name]
		views = append(views, sourceView{
			Name:      src.Name,
			Label:     src.Label,
			Shorthand: src.Shorthand,
			Selected:  !ok || selected,
			Locked:    locked[src.Name],
		})
	}
	respondJSON(w, http.StatusOK, views)
}

// Search runs a query across the selected sources
func (h *StudyHandler) Search(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())
	ctx := r.Context()

	userSettings, err := h.store.GetAll(ctx, id)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to load settings", err)
		return
	}

	selected := selectedSources(h.manifest, userSettings.Filters)
	points := h.loader.LoadMany(ctx, selected)

	sourceSet := make(map[string]bool, len(selected))
	for _, name := range selected {
		sourceSet[name] = true
	}

	results := h.search.Search(points, r.URL.Query().Get("q"), service.SearchOptions{
		Sources:    sourceSet,
		ReadStates: userSettings.GrammarPoints,
		UnreadOnly: userSettings.UnreadOnly,
		ReadOnly:   userSettings.ReadOnly,
	})

	type resultView struct {
		models.GrammarPoint
		Read     bool    `json:"read"`
		ReadDate *string `json:"readDate,omitempty"`
	}
	views := make([]resultView, 0, len(results))
	for _, point := range results {
		state := userSettings.GrammarPoints[point.ID]
		views = append(views, resultView{
			GrammarPoint: point,
			Read:         state.ReadStatus,
			ReadDate:     state.ReadDate,
		})
	}
	respondJSON(w, http.StatusOK, views)
}

// SetReadStatus marks a grammar point read or unread
func (h *StudyHandler) SetReadStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PointID string `json:"pointId"`
		Read    bool   `json:"read"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := validation.ValidatePointID(req.PointID); err != nil {
		respondError(w, h.log, http.StatusBadRequest, err.Error(), nil)
		return
	}

	id := GetIdentityFromContext(r.Context())
	if err := h.store.SetReadStatus(r.Context(), id, req.PointID, req.Read); err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to update read status", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SetFilter toggles one source's selection
func (h *StudyHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source   string `json:"source"`
		Selected bool   `json:"selected"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if _, ok := h.manifest.Lookup(req.Source); !ok {
		respondError(w, h.log, http.StatusBadRequest, "unknown source", nil)
		return
	}

	id := GetIdentityFromContext(r.Context())
	if err := h.store.SetFilter(r.Context(), id, req.Source, req.Selected); err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to update filter", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SetAllFilters bulk-toggles every source except locked ones
func (h *StudyHandler) SetAllFilters(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selected bool `json:"selected"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	id := GetIdentityFromContext(r.Context())
	locked, err := h.store.Locked(r.Context(), id)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to load locks", err)
		return
	}

	var names []string
	for _, name := range h.manifest.Names() {
		if !locked[name] {
			names = append(names, name)
		}
	}
	if err := h.store.SetFilters(r.Context(), id, names, req.Selected); err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to update filters", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SetLock locks or unlocks a source against bulk filter toggles
func (h *StudyHandler) SetLock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		Locked bool   `json:"locked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if _, ok := h.manifest.Lookup(req.Source); !ok {
		respondError(w, h.log, http.StatusBadRequest, "unknown source", nil)
		return
	}

	id := GetIdentityFromContext(r.Context())
	if err := h.store.SetLocked(r.Context(), id, req.Source, req.Locked); err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to update lock", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Settings returns the full settings document with defaults applied
func (h *StudyHandler) Settings(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())
	userSettings, err := h.store.GetAll(r.Context(), id)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	respondJSON(w, http.StatusOK, userSettings)
}

// SetUnreadOnly toggles the unread-only result filter
func (h *StudyHandler) SetUnreadOnly(w http.ResponseWriter, r *http.Request) {
	h.setToggle(w, r, h.store.SetUnreadOnly)
}

// SetReadOnly toggles the read-only result filter
func (h *StudyHandler) SetReadOnly(w http.ResponseWriter, r *http.Request) {
	h.setToggle(w, r, h.store.SetReadOnly)
}

func (h *StudyHandler) setToggle(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, id settings.Identity, on bool) error) {
	var req struct {
		On bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	id := GetIdentityFromContext(r.Context())
	if err := set(r.Context(), id, req.On); err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to update setting", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SetTheme stores the theme preference
func (h *StudyHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	id := GetIdentityFromContext(r.Context())
	if err := h.store.SetTheme(r.Context(), id, req.Theme); err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to update theme", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// statsPoints loads the points the stats endpoints aggregate over: one
// named source, or everything.
func (h *StudyHandler) statsPoints(r *http.Request) []models.GrammarPoint {
	if name := r.URL.Query().Get("source"); name != "" {
		return h.loader.Load(r.Context(), name)
	}
	return h.loader.LoadMany(r.Context(), h.manifest.Names())
}

// Stats returns read counts over the reporting windows
func (h *StudyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())
	readStates, err := h.store.GrammarPoints(r.Context(), id)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to load read state", err)
		return
	}
	respondJSON(w, http.StatusOK, h.stats.CalculateStats(readStates, h.statsPoints(r)))
}

// Heatmap returns the daily read-count grid for one calendar year
func (h *StudyHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())
	readStates, err := h.store.GrammarPoints(r.Context(), id)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to load read state", err)
		return
	}

	year := clock.LogicalDay(time.Now()).Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1970 || parsed > 9999 {
			respondError(w, h.log, http.StatusBadRequest, "invalid year", nil)
			return
		}
		year = parsed
	}

	respondJSON(w, http.StatusOK, h.stats.BuildHeatmap(readStates, h.statsPoints(r), year))
}

// Recent returns the most recently read points
func (h *StudyHandler) Recent(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())
	readStates, err := h.store.GrammarPoints(r.Context(), id)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to load read state", err)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			respondError(w, h.log, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = parsed
	}

	respondJSON(w, http.StatusOK, h.stats.RecentlyRead(readStates, h.statsPoints(r), limit))
}
