package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gramtrack/internal/logger"
	"gramtrack/internal/settings"
)

type memBackend struct {
	data map[string]map[string]json.RawMessage
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]map[string]json.RawMessage)}
}

func (m *memBackend) Get(_ context.Context, userID, key string) (json.RawMessage, error) {
	value, ok := m.data[userID][key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (m *memBackend) GetAll(_ context.Context, userID string) (map[string]json.RawMessage, error) {
	all := make(map[string]json.RawMessage)
	for k, v := range m.data[userID] {
		all[k] = v
	}
	return all, nil
}

func (m *memBackend) Set(_ context.Context, userID, key string, value json.RawMessage) error {
	if m.data[userID] == nil {
		m.data[userID] = make(map[string]json.RawMessage)
	}
	m.data[userID][key] = value
	return nil
}

func newGroupsFixture() (*GroupsService, settings.Identity) {
	store := settings.NewStore(newMemBackend(), newMemBackend(), logger.NewNop())
	svc := NewGroupsService(store)
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	calls := 0
	svc.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	return svc, settings.Identity{UserID: "1"}
}

func TestGroupLifecycle(t *testing.T) {
	svc, id := newGroupsFixture()
	ctx := context.Background()

	group, err := svc.AddToGroup(ctx, id, "", "conditionals", []string{"dojg-1", "dojg-2"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if len(group.Points) != 2 {
		t.Errorf("expected 2 points, got %d", len(group.Points))
	}
	if group.CreatedAt != group.ModifiedAt {
		t.Errorf("fresh group should have createdAt == modifiedAt")
	}

	// Append one overlapping and one new id
	updated, err := svc.AddToGroup(ctx, id, group.ID, "", []string{"dojg-2", "taekim-1"})
	if err != nil {
		t.Fatalf("append to group: %v", err)
	}
	if len(updated.Points) != 3 {
		t.Errorf("expected 3 points after dedup append, got %d: %v", len(updated.Points), updated.Points)
	}
	if updated.ModifiedAt <= updated.CreatedAt {
		t.Errorf("append should refresh modifiedAt: created=%s modified=%s", updated.CreatedAt, updated.ModifiedAt)
	}

	if err := svc.DeleteGroup(ctx, id, group.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	list, err := svc.ListGroups(ctx, id, SortByModified)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("expected no groups after delete, got %d", len(list))
	}
}

func TestDeleteUnknownGroup(t *testing.T) {
	svc, id := newGroupsFixture()
	if err := svc.DeleteGroup(context.Background(), id, "group_0"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestAppendToUnknownGroup(t *testing.T) {
	svc, id := newGroupsFixture()
	if _, err := svc.AddToGroup(context.Background(), id, "group_0", "", []string{"dojg-1"}); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestAddToGroupValidation(t *testing.T) {
	svc, id := newGroupsFixture()
	ctx := context.Background()

	if _, err := svc.AddToGroup(ctx, id, "", "", []string{"dojg-1"}); !errors.Is(err, ErrNoGroupTarget) {
		t.Errorf("expected ErrNoGroupTarget, got %v", err)
	}
	if _, err := svc.AddToGroup(ctx, id, "", "empty", nil); !errors.Is(err, ErrNoPointsToGroup) {
		t.Errorf("expected ErrNoPointsToGroup, got %v", err)
	}
}

func TestListGroupsSorting(t *testing.T) {
	svc, id := newGroupsFixture()
	ctx := context.Background()

	// Created in order: bravo, alpha, charlie; then touch bravo last
	bravo, err := svc.AddToGroup(ctx, id, "", "bravo", []string{"p1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddToGroup(ctx, id, "", "alpha", []string{"p2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddToGroup(ctx, id, "", "charlie", []string{"p3"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddToGroup(ctx, id, bravo.ID, "", []string{"p4"}); err != nil {
		t.Fatal(err)
	}

	assertGroupNames := func(mode GroupSortMode, want []string) {
		t.Helper()
		list, err := svc.ListGroups(ctx, id, mode)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != len(want) {
			t.Fatalf("expected %d groups, got %d", len(want), len(list))
		}
		for i, name := range want {
			if list[i].Name != name {
				t.Errorf("%s order, position %d: expected %s, got %s", mode, i, name, list[i].Name)
			}
		}
	}

	assertGroupNames(SortByModified, []string{"bravo", "charlie", "alpha"})
	assertGroupNames(SortByCreated, []string{"charlie", "alpha", "bravo"})
	assertGroupNames(SortByName, []string{"alpha", "bravo", "charlie"})
}

func TestListGroupsSortsMixedOffsetsChronologically(t *testing.T) {
	svc, id := newGroupsFixture()
	ctx := context.Background()

	// +01:00 entry reads lexically later than the Z entry but is the
	// earlier instant: 01:30+01:00 is 00:30Z.
	times := []time.Time{
		time.Date(2025, 3, 30, 1, 30, 0, 0, time.FixedZone("CET", 3600)),
		time.Date(2025, 3, 30, 1, 0, 0, 0, time.UTC),
	}
	calls := 0
	svc.now = func() time.Time {
		t := times[calls]
		calls++
		return t
	}

	if _, err := svc.AddToGroup(ctx, id, "", "older", []string{"p1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddToGroup(ctx, id, "", "newer", []string{"p2"}); err != nil {
		t.Fatal(err)
	}

	for _, mode := range []GroupSortMode{SortByModified, SortByCreated} {
		list, err := svc.ListGroups(ctx, id, mode)
		if err != nil {
			t.Fatal(err)
		}
		if list[0].Name != "newer" || list[1].Name != "older" {
			t.Errorf("%s order ignored offsets: got [%s %s]", mode, list[0].Name, list[1].Name)
		}
	}
}

func TestGroupIDsAreUnique(t *testing.T) {
	svc, id := newGroupsFixture()
	ctx := context.Background()

	// Freeze time so consecutive creates would collide without the bump
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	first, err := svc.AddToGroup(ctx, id, "", "one", []string{"p1"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.AddToGroup(ctx, id, "", "two", []string{"p2"})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID {
		t.Errorf("expected distinct ids, both were %s", first.ID)
	}
}
