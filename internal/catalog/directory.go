package catalog

import (
	"log/slog"
	"sync"
	"time"

	"glimpse/internal/logging"
	"glimpse/internal/openrouter"
)

// TTL is how long a fetched listing stays valid before queries demand a refresh.
const TTL = time.Hour

// Directory holds the last-fetched model listing and answers lookup and
// filter queries. Refreshes replace the whole mapping atomically; readers
// never observe a partial update.
type Directory struct {
	mu        sync.RWMutex
	models    map[string]openrouter.Model
	order     []string
	fetchedAt time.Time

	now    func() time.Time
	logger *slog.Logger
}

// DirectoryOption customizes directory construction.
type DirectoryOption func(*Directory)

// WithClock overrides the time source (useful for TTL tests).
func WithClock(now func() time.Time) DirectoryOption {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDirectory creates an empty directory.
func NewDirectory(logger *slog.Logger, opts ...DirectoryOption) *Directory {
	d := &Directory{
		models: make(map[string]openrouter.Model),
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Valid reports whether the directory holds a non-empty listing younger than TTL.
func (d *Directory) Valid() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.validLocked()
}

func (d *Directory) validLocked() bool {
	if len(d.models) == 0 || d.fetchedAt.IsZero() {
		return false
	}
	return d.now().Sub(d.fetchedAt) < TTL
}

// SetAll atomically replaces the mapping with the supplied listing and
// stamps the fetch time. Previous contents are discarded wholesale.
func (d *Directory) SetAll(models []openrouter.Model) {
	d.replace(models, d.now())
}

// Restore installs a previously persisted listing with its original fetch
// time, so a snapshot older than TTL stays invalid.
func (d *Directory) Restore(models []openrouter.Model, fetchedAt time.Time) {
	d.replace(models, fetchedAt)
}

func (d *Directory) replace(models []openrouter.Model, fetchedAt time.Time) {
	next := make(map[string]openrouter.Model, len(models))
	order := make([]string, 0, len(models))
	for _, model := range models {
		if model.ID == "" {
			continue
		}
		if _, seen := next[model.ID]; !seen {
			order = append(order, model.ID)
		}
		next[model.ID] = model
	}

	d.mu.Lock()
	d.models = next
	d.order = order
	d.fetchedAt = fetchedAt
	d.mu.Unlock()

	d.logger.Debug("directory replaced",
		logging.Int("models", len(next)),
		logging.String("fetched_at", fetchedAt.Format(time.RFC3339)))
}

// Get returns the descriptor for id, if present.
func (d *Directory) Get(id string) (openrouter.Model, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	model, ok := d.models[id]
	return model, ok
}

// Has reports whether id is present.
func (d *Directory) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.models[id]
	return ok
}

// All returns the current listing in fetch order.
func (d *Directory) All() []openrouter.Model {
	d.mu.RLock()
	defer d.mu.RUnlock()
	models := make([]openrouter.Model, 0, len(d.order))
	for _, id := range d.order {
		models = append(models, d.models[id])
	}
	return models
}

// Len returns the number of cached descriptors.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.models)
}

// FetchedAt returns the timestamp of the last successful replace.
func (d *Directory) FetchedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fetchedAt
}

// Reset clears the mapping and timestamp, forcing the next Valid to be false.
func (d *Directory) Reset() {
	d.mu.Lock()
	d.models = make(map[string]openrouter.Model)
	d.order = nil
	d.fetchedAt = time.Time{}
	d.mu.Unlock()
}
