package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// ErrInvalidStoreKey rejects user ids or setting keys that could reach
// outside the store's base path.
var ErrInvalidStoreKey = errors.New("invalid settings store key")

// DiskBackend stores settings documents as files on local disk, one file per
// (user, key). This is the backend for anonymous visitors, keyed by their
// browser cookie id.
type DiskBackend struct {
	store *diskv.Diskv
}

// NewDiskBackend creates a disk settings backend rooted at basePath.
func NewDiskBackend(basePath string) *DiskBackend {
	store := diskv.New(diskv.Options{
		BasePath: basePath,
		AdvancedTransform: func(key string) *diskv.PathKey {
			parts := strings.Split(key, "/")
			return &diskv.PathKey{
				Path:     parts[:len(parts)-1],
				FileName: parts[len(parts)-1] + ".json",
			}
		},
		InverseTransform: func(pk *diskv.PathKey) string {
			name := strings.TrimSuffix(pk.FileName, ".json")
			return strings.Join(append(append([]string{}, pk.Path...), name), "/")
		},
		CacheSizeMax: 1024 * 1024,
	})
	return &DiskBackend{store: store}
}

// diskKey builds the store key. Both segments become path elements under the
// base directory, so neither may be empty, a dot segment, or contain a
// separator. Middleware validates anonymous ids before they get here; this
// check holds even for callers that do not.
func diskKey(userID, key string) (string, error) {
	if !validSegment(userID) || !validSegment(key) {
		return "", ErrInvalidStoreKey
	}
	return userID + "/" + key, nil
}

func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}

func (b *DiskBackend) Get(ctx context.Context, userID, key string) (json.RawMessage, error) {
	fullKey, err := diskKey(userID, key)
	if err != nil {
		return nil, err
	}
	value, err := b.store.Read(fullKey)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return json.RawMessage(value), nil
}

func (b *DiskBackend) GetAll(ctx context.Context, userID string) (map[string]json.RawMessage, error) {
	if !validSegment(userID) {
		return nil, ErrInvalidStoreKey
	}
	all := make(map[string]json.RawMessage)
	for fullKey := range b.store.KeysPrefix(userID+"/", nil) {
		value, err := b.store.Read(fullKey)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read setting %s: %w", fullKey, err)
		}
		name := strings.TrimPrefix(fullKey, userID+"/")
		all[name] = json.RawMessage(value)
	}
	return all, nil
}

func (b *DiskBackend) Set(ctx context.Context, userID, key string, value json.RawMessage) error {
	fullKey, err := diskKey(userID, key)
	if err != nil {
		return err
	}
	if err := b.store.Write(fullKey, []byte(value)); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}
