package settings

import (
	"context"
	"encoding/json"
)

// Backend is one storage target for per-user settings documents. Both
// implementations expose the same contract so the merge logic above them
// stays backend-agnostic.
type Backend interface {
	// Get returns the raw stored value for one key, or nil when absent.
	Get(ctx context.Context, userID, key string) (json.RawMessage, error)

	// GetAll returns every stored key for a user in one round trip.
	GetAll(ctx context.Context, userID string) (map[string]json.RawMessage, error)

	// Set stores a full replacement value for one key, leaving every
	// other key of the user's document untouched.
	Set(ctx context.Context, userID, key string, value json.RawMessage) error
}
