// Package sources loads the bundled grammar-point databases: one JSON array
// per named source, described by a YAML manifest.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"gramtrack/internal/logger"
	"gramtrack/internal/models"
)

// Loader reads per-source JSON files. Successful loads are cached for the
// process lifetime; failures are not cached, so a later request retries.
// Concurrent requests for the same uncached source share one file read.
type Loader struct {
	dir      string
	manifest *Manifest
	log      logger.Logger

	mu    sync.RWMutex
	cache map[string][]models.GrammarPoint
	group singleflight.Group

	readFile func(string) ([]byte, error)
}

// NewLoader creates a loader over the manifest's source files in dir.
func NewLoader(dir string, manifest *Manifest, log logger.Logger) *Loader {
	return &Loader{
		dir:      dir,
		manifest: manifest,
		log:      log,
		cache:    make(map[string][]models.GrammarPoint),
		readFile: os.ReadFile,
	}
}

// Manifest returns the source manifest backing this loader.
func (l *Loader) Manifest() *Manifest {
	return l.manifest
}

// Load returns the records of one source. Unknown sources and read or parse
// failures degrade to an empty list; they are logged, never fatal.
func (l *Loader) Load(ctx context.Context, name string) []models.GrammarPoint {
	l.mu.RLock()
	cached, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return cached
	}

	points, err, _ := l.group.Do(name, func() (interface{}, error) {
		// Re-check the cache inside the flight: an earlier flight may
		// have populated it between our first look and this call.
		l.mu.RLock()
		cached, ok := l.cache[name]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := l.read(name)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.cache[name] = loaded
		l.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		l.log.Warn("source load failed",
			logger.String("source", name),
			logger.Error(err))
		return []models.GrammarPoint{}
	}

	return points.([]models.GrammarPoint)
}

// LoadMany concatenates the records of the given sources, preserving the
// input source order and each file's record order. A failed source
// contributes an empty slice and never fails the aggregate.
func (l *Loader) LoadMany(ctx context.Context, names []string) []models.GrammarPoint {
	var all []models.GrammarPoint
	for _, name := range names {
		all = append(all, l.Load(ctx, name)...)
	}
	return all
}

func (l *Loader) read(name string) ([]models.GrammarPoint, error) {
	src, ok := l.manifest.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}

	data, err := l.readFile(filepath.Join(l.dir, src.File))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.File, err)
	}

	var points []models.GrammarPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", src.File, err)
	}

	// Older database files omit the source tag on each record.
	for i := range points {
		if points[i].Source == "" {
			points[i].Source = src.Name
		}
		if points[i].Shorthand == "" {
			points[i].Shorthand = src.Shorthand
		}
	}

	return points, nil
}
