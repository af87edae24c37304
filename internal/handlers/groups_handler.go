package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gramtrack/internal/logger"
	"gramtrack/internal/service"
	"gramtrack/internal/validation"
)

// GroupsHandler serves the grammar group API
type GroupsHandler struct {
	groups *service.GroupsService
	log    logger.Logger
}

// NewGroupsHandler creates a new groups handler
func NewGroupsHandler(groups *service.GroupsService, log logger.Logger) *GroupsHandler {
	return &GroupsHandler{groups: groups, log: log}
}

// List returns the user's groups in the requested sort order
func (h *GroupsHandler) List(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())

	mode := service.GroupSortMode(r.URL.Query().Get("sort"))
	switch mode {
	case "", service.SortByModified, service.SortByCreated, service.SortByName:
	default:
		respondError(w, h.log, http.StatusBadRequest, "invalid sort mode", nil)
		return
	}

	list, err := h.groups.ListGroups(r.Context(), id, mode)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to list groups", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Add creates a group or appends points to an existing one
func (h *GroupsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID string   `json:"groupId"`
		Name    string   `json:"name"`
		Points  []string `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.GroupID == "" {
		if err := validation.ValidateGroupName(req.Name); err != nil {
			respondError(w, h.log, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}

	id := GetIdentityFromContext(r.Context())
	group, err := h.groups.AddToGroup(r.Context(), id, req.GroupID, req.Name, req.Points)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGroupNotFound):
			respondError(w, h.log, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, service.ErrNoGroupTarget), errors.Is(err, service.ErrNoPointsToGroup):
			respondError(w, h.log, http.StatusBadRequest, err.Error(), nil)
		default:
			respondError(w, h.log, http.StatusInternalServerError, "failed to save group", err)
		}
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// Delete removes a group by id
func (h *GroupsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if groupID == "" {
		respondError(w, h.log, http.StatusBadRequest, "group id is required", nil)
		return
	}

	id := GetIdentityFromContext(r.Context())
	if err := h.groups.DeleteGroup(r.Context(), id, groupID); err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			respondError(w, h.log, http.StatusNotFound, err.Error(), nil)
			return
		}
		respondError(w, h.log, http.StatusInternalServerError, "failed to delete group", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
