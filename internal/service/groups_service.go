package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gramtrack/internal/models"
	"gramtrack/internal/settings"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrNoGroupTarget   = errors.New("a group id or a new group name is required")
	ErrNoPointsToGroup = errors.New("no grammar points to add")
)

// GroupsService manages user-defined collections of grammar point ids,
// persisted through the settings store.
type GroupsService struct {
	store *settings.Store
	now   func() time.Time
}

// NewGroupsService creates a new groups service
func NewGroupsService(store *settings.Store) *GroupsService {
	return &GroupsService{store: store, now: time.Now}
}

// GroupSortMode selects the ordering of ListGroups.
type GroupSortMode string

const (
	SortByModified GroupSortMode = "modified"
	SortByCreated  GroupSortMode = "created"
	SortByName     GroupSortMode = "name"
)

// AddToGroup appends points to an existing group, or creates a new one when
// groupID is empty. Point ids are kept as a set; duplicates are dropped.
func (s *GroupsService) AddToGroup(ctx context.Context, id settings.Identity, groupID, newName string, pointIDs []string) (*models.Group, error) {
	if len(pointIDs) == 0 {
		return nil, ErrNoPointsToGroup
	}
	if groupID == "" && newName == "" {
		return nil, ErrNoGroupTarget
	}

	groups, err := s.store.Groups(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	timestamp := now.Format(time.RFC3339)

	var group models.Group
	if groupID == "" {
		group = models.Group{
			ID:         s.newGroupID(groups, now),
			Name:       newName,
			CreatedAt:  timestamp,
			ModifiedAt: timestamp,
			Points:     dedupe(nil, pointIDs),
		}
	} else {
		existing, ok := groups[groupID]
		if !ok {
			return nil, ErrGroupNotFound
		}
		existing.Points = dedupe(existing.Points, pointIDs)
		existing.ModifiedAt = timestamp
		group = existing
	}

	groups[group.ID] = group
	if err := s.store.SetGroups(ctx, id, groups); err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes a group by id, reporting not-found for unknown ids.
func (s *GroupsService) DeleteGroup(ctx context.Context, id settings.Identity, groupID string) error {
	groups, err := s.store.Groups(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := groups[groupID]; !ok {
		return ErrGroupNotFound
	}
	delete(groups, groupID)
	return s.store.SetGroups(ctx, id, groups)
}

// ListGroups returns the user's groups in the requested order. The default
// is most recently modified first.
func (s *GroupsService) ListGroups(ctx context.Context, id settings.Identity, mode GroupSortMode) ([]models.Group, error) {
	groups, err := s.store.Groups(ctx, id)
	if err != nil {
		return nil, err
	}

	list := make([]models.Group, 0, len(groups))
	for _, group := range groups {
		list = append(list, group)
	}

	switch mode {
	case SortByCreated:
		sort.SliceStable(list, func(i, j int) bool {
			return groupTime(list[i].CreatedAt).After(groupTime(list[j].CreatedAt))
		})
	case SortByName:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	default:
		sort.SliceStable(list, func(i, j int) bool {
			return groupTime(list[i].ModifiedAt).After(groupTime(list[j].ModifiedAt))
		})
	}

	return list, nil
}

// groupTime parses a stored timestamp for ordering. Offsets can differ
// between entries (DST shifts, restored backups), so groups compare as
// instants rather than strings. Unparseable values sort last.
func groupTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// newGroupID derives a time-based id, bumping the millisecond value on the
// rare collision with an existing group.
func (s *GroupsService) newGroupID(groups map[string]models.Group, now time.Time) string {
	millis := now.UnixMilli()
	for {
		id := fmt.Sprintf("group_%d", millis)
		if _, taken := groups[id]; !taken {
			return id
		}
		millis++
	}
}

// dedupe appends additions to existing, skipping ids already present.
func dedupe(existing, additions []string) []string {
	seen := make(map[string]bool, len(existing)+len(additions))
	result := make([]string, 0, len(existing)+len(additions))
	for _, id := range existing {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	for _, id := range additions {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
