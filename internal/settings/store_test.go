package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gramtrack/internal/logger"
	"gramtrack/internal/models"
)

type fakeBackend struct {
	data map[string]map[string]json.RawMessage
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string]map[string]json.RawMessage)}
}

func (f *fakeBackend) Get(_ context.Context, userID, key string) (json.RawMessage, error) {
	value, ok := f.data[userID][key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (f *fakeBackend) GetAll(_ context.Context, userID string) (map[string]json.RawMessage, error) {
	all := make(map[string]json.RawMessage)
	for k, v := range f.data[userID] {
		all[k] = v
	}
	return all, nil
}

func (f *fakeBackend) Set(_ context.Context, userID, key string, value json.RawMessage) error {
	if f.data[userID] == nil {
		f.data[userID] = make(map[string]json.RawMessage)
	}
	f.data[userID][key] = value
	return nil
}

func newTestStore() (*Store, *fakeBackend, *fakeBackend) {
	remote := newFakeBackend()
	local := newFakeBackend()
	store := NewStore(remote, local, logger.NewNop())
	store.now = func() time.Time {
		return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	}
	return store, remote, local
}

func TestBackendRouting(t *testing.T) {
	store, remote, local := newTestStore()
	ctx := context.Background()

	signedIn := Identity{UserID: "42"}
	anon := Identity{UserID: "cookie-abc", Anonymous: true}

	if err := store.SetTheme(ctx, signedIn, "light"); err != nil {
		t.Fatalf("SetTheme signed-in: %v", err)
	}
	if err := store.SetTheme(ctx, anon, "dark"); err != nil {
		t.Fatalf("SetTheme anonymous: %v", err)
	}

	if _, ok := remote.data["42"][KeyTheme]; !ok {
		t.Error("signed-in write did not reach the remote backend")
	}
	if _, ok := local.data["cookie-abc"][KeyTheme]; !ok {
		t.Error("anonymous write did not reach the local backend")
	}
	if _, ok := remote.data["cookie-abc"]; ok {
		t.Error("anonymous write leaked into the remote backend")
	}
}

func TestSetFilterPreservesSiblings(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()
	id := Identity{UserID: "1"}

	if err := store.SetFilter(ctx, id, "dojg", true); err != nil {
		t.Fatal(err)
	}
	if err := store.SetFilter(ctx, id, "taekim", false); err != nil {
		t.Fatal(err)
	}
	if err := store.SetFilter(ctx, id, "taekim", true); err != nil {
		t.Fatal(err)
	}

	filters, err := store.Filters(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(filters) != 2 {
		t.Fatalf("expected 2 filter entries, got %d: %v", len(filters), filters)
	}
	if !filters["dojg"] {
		t.Error("updating taekim clobbered the dojg entry")
	}
	if !filters["taekim"] {
		t.Error("taekim was not updated to true")
	}
}

func TestSetFiltersBulk(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()
	id := Identity{UserID: "1"}

	if err := store.SetFilter(ctx, id, "other", true); err != nil {
		t.Fatal(err)
	}
	if err := store.SetFilters(ctx, id, []string{"dojg", "taekim"}, true); err != nil {
		t.Fatal(err)
	}

	filters, err := store.Filters(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"other", "dojg", "taekim"} {
		if !filters[name] {
			t.Errorf("expected %s selected", name)
		}
	}
}

func TestSetReadStatus(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()
	id := Identity{UserID: "1"}

	if err := store.SetReadStatus(ctx, id, "dojg-1", true); err != nil {
		t.Fatal(err)
	}
	points, err := store.GrammarPoints(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	state := points["dojg-1"]
	if !state.ReadStatus {
		t.Error("expected read status true")
	}
	if state.ReadDate == nil {
		t.Fatal("expected a read date when marking read")
	}
	if *state.ReadDate != "2025-03-10T15:00:00Z" {
		t.Errorf("unexpected read date %q", *state.ReadDate)
	}

	if err := store.SetReadStatus(ctx, id, "dojg-1", false); err != nil {
		t.Fatal(err)
	}
	points, err = store.GrammarPoints(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	state = points["dojg-1"]
	if state.ReadStatus {
		t.Error("expected read status false after unmarking")
	}
	if state.ReadDate != nil {
		t.Errorf("expected read date cleared, got %q", *state.ReadDate)
	}
}

func TestSetReadStatusPreservesOtherPoints(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()
	id := Identity{UserID: "1"}

	if err := store.SetReadStatus(ctx, id, "dojg-1", true); err != nil {
		t.Fatal(err)
	}
	if err := store.SetReadStatus(ctx, id, "dojg-2", true); err != nil {
		t.Fatal(err)
	}

	points, err := store.GrammarPoints(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points["dojg-1"].ReadStatus {
		t.Error("marking dojg-2 clobbered dojg-1")
	}
}

func TestSetReadStatusRejectsEmptyID(t *testing.T) {
	store, _, _ := newTestStore()
	if err := store.SetReadStatus(context.Background(), Identity{UserID: "1"}, "", true); err != ErrEmptyPointID {
		t.Errorf("expected ErrEmptyPointID, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()
	id := Identity{UserID: "fresh"}

	unreadOnly, err := store.UnreadOnly(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !unreadOnly {
		t.Error("unread-only should default to true")
	}

	readOnly, err := store.ReadOnly(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if readOnly {
		t.Error("read-only should default to false")
	}

	theme, err := store.Theme(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if theme != "dark" {
		t.Errorf("theme should default to dark, got %q", theme)
	}

	settings, err := store.GetAll(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !settings.UnreadOnly || settings.ReadOnly || settings.Theme != "dark" {
		t.Errorf("unexpected defaults in full document: %+v", settings)
	}
	if settings.Filters == nil || settings.GrammarPoints == nil || settings.GrammarGroups == nil {
		t.Error("maps in full document should be non-nil")
	}
}

func TestUnreadReadMutualExclusion(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()
	id := Identity{UserID: "1"}

	if err := store.SetReadOnly(ctx, id, true); err != nil {
		t.Fatal(err)
	}
	unreadOnly, _ := store.UnreadOnly(ctx, id)
	readOnly, _ := store.ReadOnly(ctx, id)
	if unreadOnly || !readOnly {
		t.Errorf("after enabling read-only: unreadOnly=%v readOnly=%v", unreadOnly, readOnly)
	}

	if err := store.SetUnreadOnly(ctx, id, true); err != nil {
		t.Fatal(err)
	}
	unreadOnly, _ = store.UnreadOnly(ctx, id)
	readOnly, _ = store.ReadOnly(ctx, id)
	if !unreadOnly || readOnly {
		t.Errorf("after enabling unread-only: unreadOnly=%v readOnly=%v", unreadOnly, readOnly)
	}

	// Turning a filter off leaves the other alone.
	if err := store.SetUnreadOnly(ctx, id, false); err != nil {
		t.Fatal(err)
	}
	readOnly, _ = store.ReadOnly(ctx, id)
	if readOnly {
		t.Error("disabling unread-only should not enable read-only")
	}
}

func TestCorruptValueFallsBackToDefault(t *testing.T) {
	store, remote, _ := newTestStore()
	ctx := context.Background()
	id := Identity{UserID: "1"}

	remote.data["1"] = map[string]json.RawMessage{
		KeyTheme:   json.RawMessage(`{not json`),
		KeyFilters: json.RawMessage(`"wrong shape"`),
	}

	theme, err := store.Theme(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if theme != "dark" {
		t.Errorf("corrupt theme should fall back to dark, got %q", theme)
	}

	filters, err := store.Filters(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(filters) != 0 {
		t.Errorf("corrupt filters should fall back to empty, got %v", filters)
	}
}

func TestSetGroupsRoundTrip(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()
	id := Identity{UserID: "1"}

	groups := map[string]models.Group{
		"group_1700000000000": {
			ID:         "group_1700000000000",
			Name:       "conditionals",
			CreatedAt:  "2025-03-10T15:00:00Z",
			ModifiedAt: "2025-03-10T15:00:00Z",
			Points:     []string{"dojg-1", "dojg-2"},
		},
	}
	if err := store.SetGroups(ctx, id, groups); err != nil {
		t.Fatal(err)
	}

	got, err := store.Groups(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	group, ok := got["group_1700000000000"]
	if !ok {
		t.Fatal("stored group not found")
	}
	if group.Name != "conditionals" || len(group.Points) != 2 {
		t.Errorf("unexpected group after round trip: %+v", group)
	}
}
