package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gramtrack/internal/logger"
	"gramtrack/internal/models"
)

// Setting document keys. Each key is stored and replaced independently so
// that updating one concern never clobbers another.
const (
	KeyFilters       = "filters"
	KeyLocked        = "locked"
	KeyGrammarPoints = "grammarPoints"
	KeyGrammarGroups = "grammarGroups"
	KeyUnreadOnly    = "unreadOnly"
	KeyReadOnly      = "readOnly"
	KeyTheme         = "theme"
)

// DefaultTheme is applied when a user has never picked a theme.
const DefaultTheme = "dark"

var ErrEmptyPointID = errors.New("grammar point id cannot be empty")

// Identity names whose settings are being read or written. Anonymous
// visitors are keyed by a browser cookie id and routed to local disk;
// signed-in users are routed to the database.
type Identity struct {
	UserID    string
	Anonymous bool
}

// Store reads and writes per-user settings, routing each request to the
// remote or local backend based on the caller's identity. Map-valued keys
// are updated entry-by-entry: a write merges into the stored map instead of
// replacing it wholesale.
type Store struct {
	remote Backend
	local  Backend
	log    logger.Logger
	now    func() time.Time
}

// NewStore creates a settings store over the two backends.
func NewStore(remote, local Backend, log logger.Logger) *Store {
	return &Store{
		remote: remote,
		local:  local,
		log:    log,
		now:    time.Now,
	}
}

func (s *Store) backend(id Identity) Backend {
	if id.Anonymous {
		return s.local
	}
	return s.remote
}

// getInto decodes one key into out, leaving out untouched when the key is
// absent. Corrupt stored values are logged and treated as absent so one bad
// document never locks a user out of the app.
func (s *Store) getInto(ctx context.Context, id Identity, key string, out any) error {
	raw, err := s.backend(id).Get(ctx, id.UserID, key)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("discarding corrupt setting value",
			logger.String("key", key),
			logger.String("user_id", id.UserID),
			logger.Error(err))
	}
	return nil
}

func (s *Store) set(ctx context.Context, id Identity, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	return s.backend(id).Set(ctx, id.UserID, key, raw)
}

// Filters returns the per-source selection map. Missing entries mean the
// source is selected for search.
func (s *Store) Filters(ctx context.Context, id Identity) (map[string]bool, error) {
	filters := make(map[string]bool)
	if err := s.getInto(ctx, id, KeyFilters, &filters); err != nil {
		return nil, err
	}
	return filters, nil
}

// Locked returns the per-source lock map.
func (s *Store) Locked(ctx context.Context, id Identity) (map[string]bool, error) {
	locked := make(map[string]bool)
	if err := s.getInto(ctx, id, KeyLocked, &locked); err != nil {
		return nil, err
	}
	return locked, nil
}

// GrammarPoints returns the read-state map keyed by grammar point id.
func (s *Store) GrammarPoints(ctx context.Context, id Identity) (map[string]models.ReadState, error) {
	points := make(map[string]models.ReadState)
	if err := s.getInto(ctx, id, KeyGrammarPoints, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// Groups returns the user's grammar groups keyed by group id.
func (s *Store) Groups(ctx context.Context, id Identity) (map[string]models.Group, error) {
	groups := make(map[string]models.Group)
	if err := s.getInto(ctx, id, KeyGrammarGroups, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// UnreadOnly reports whether the unread-only filter is on. It defaults to
// true for users who have never toggled it.
func (s *Store) UnreadOnly(ctx context.Context, id Identity) (bool, error) {
	unreadOnly := true
	if err := s.getInto(ctx, id, KeyUnreadOnly, &unreadOnly); err != nil {
		return false, err
	}
	return unreadOnly, nil
}

// ReadOnly reports whether the read-only filter is on. Defaults to false.
func (s *Store) ReadOnly(ctx context.Context, id Identity) (bool, error) {
	readOnly := false
	if err := s.getInto(ctx, id, KeyReadOnly, &readOnly); err != nil {
		return false, err
	}
	return readOnly, nil
}

// Theme returns the user's theme preference, defaulting to dark.
func (s *Store) Theme(ctx context.Context, id Identity) (string, error) {
	theme := DefaultTheme
	if err := s.getInto(ctx, id, KeyTheme, &theme); err != nil {
		return "", err
	}
	if theme == "" {
		theme = DefaultTheme
	}
	return theme, nil
}

// GetAll assembles the full settings document, applying defaults for any
// key the user has never written.
func (s *Store) GetAll(ctx context.Context, id Identity) (*models.UserSettings, error) {
	raw, err := s.backend(id).GetAll(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	settings := &models.UserSettings{
		Filters:       make(map[string]bool),
		Locked:        make(map[string]bool),
		GrammarPoints: make(map[string]models.ReadState),
		GrammarGroups: make(map[string]models.Group),
		UnreadOnly:    true,
		ReadOnly:      false,
		Theme:         DefaultTheme,
	}

	decode := func(key string, out any) {
		value, ok := raw[key]
		if !ok {
			return
		}
		if err := json.Unmarshal(value, out); err != nil {
			s.log.Warn("discarding corrupt setting value",
				logger.String("key", key),
				logger.String("user_id", id.UserID),
				logger.Error(err))
		}
	}

	decode(KeyFilters, &settings.Filters)
	decode(KeyLocked, &settings.Locked)
	decode(KeyGrammarPoints, &settings.GrammarPoints)
	decode(KeyGrammarGroups, &settings.GrammarGroups)
	decode(KeyUnreadOnly, &settings.UnreadOnly)
	decode(KeyReadOnly, &settings.ReadOnly)
	decode(KeyTheme, &settings.Theme)
	if settings.Theme == "" {
		settings.Theme = DefaultTheme
	}

	return settings, nil
}

// SetFilter updates one source's selection, preserving every other entry.
func (s *Store) SetFilter(ctx context.Context, id Identity, source string, selected bool) error {
	filters, err := s.Filters(ctx, id)
	if err != nil {
		return err
	}
	filters[source] = selected
	return s.set(ctx, id, KeyFilters, filters)
}

// SetFilters updates the selection for every named source at once, leaving
// sources outside names untouched.
func (s *Store) SetFilters(ctx context.Context, id Identity, names []string, selected bool) error {
	filters, err := s.Filters(ctx, id)
	if err != nil {
		return err
	}
	for _, name := range names {
		filters[name] = selected
	}
	return s.set(ctx, id, KeyFilters, filters)
}

// SetLocked updates one source's lock, preserving every other entry.
func (s *Store) SetLocked(ctx context.Context, id Identity, source string, locked bool) error {
	all, err := s.Locked(ctx, id)
	if err != nil {
		return err
	}
	all[source] = locked
	return s.set(ctx, id, KeyLocked, all)
}

// SetReadStatus marks one grammar point read or unread. Marking read stamps
// the current time; marking unread clears the date.
func (s *Store) SetReadStatus(ctx context.Context, id Identity, pointID string, read bool) error {
	if pointID == "" {
		return ErrEmptyPointID
	}
	points, err := s.GrammarPoints(ctx, id)
	if err != nil {
		return err
	}
	state := models.ReadState{ReadStatus: read}
	if read {
		date := s.now().Format(time.RFC3339)
		state.ReadDate = &date
	}
	points[pointID] = state
	return s.set(ctx, id, KeyGrammarPoints, points)
}

// SetGroups replaces the full groups map.
func (s *Store) SetGroups(ctx context.Context, id Identity, groups map[string]models.Group) error {
	return s.set(ctx, id, KeyGrammarGroups, groups)
}

// SetUnreadOnly toggles the unread-only filter. Turning it on switches the
// mutually exclusive read-only filter off.
func (s *Store) SetUnreadOnly(ctx context.Context, id Identity, on bool) error {
	if on {
		if err := s.set(ctx, id, KeyReadOnly, false); err != nil {
			return err
		}
	}
	return s.set(ctx, id, KeyUnreadOnly, on)
}

// SetReadOnly toggles the read-only filter. Turning it on switches the
// mutually exclusive unread-only filter off.
func (s *Store) SetReadOnly(ctx context.Context, id Identity, on bool) error {
	if on {
		if err := s.set(ctx, id, KeyUnreadOnly, false); err != nil {
			return err
		}
	}
	return s.set(ctx, id, KeyReadOnly, on)
}

// SetTheme stores the theme preference.
func (s *Store) SetTheme(ctx context.Context, id Identity, theme string) error {
	if theme == "" {
		theme = DefaultTheme
	}
	return s.set(ctx, id, KeyTheme, theme)
}
