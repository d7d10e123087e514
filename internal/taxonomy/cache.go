package taxonomy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"trellis/internal/fileutil"
	"trellis/internal/logging"
)

// CacheEntry is a persisted mapping from a normalized scientific name to its
// resolution. Unresolved outcomes are never persisted: a network hiccup today
// should not poison tomorrow's run.
type CacheEntry struct {
	Name         string    `json:"name"`
	Outcome      string    `json:"outcome"`
	AcceptedName string    `json:"acceptedName,omitempty"`
	UsageKey     int64     `json:"usageKey,omitempty"`
	Rank         string    `json:"rank,omitempty"`
	CachedAt     time.Time `json:"cached_at"`
}

// Cache provides thread-safe access to the persistent resolution cache. If
// path is empty the cache is non-functional and all operations are no-ops.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// NewCache creates a cache instance, loading any existing cache file. The
// file is created lazily on first Store.
func NewCache(path string, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "taxonomycache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]CacheEntry),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load taxonomy cache",
			logging.Error(err),
			logging.String("path", path))
	}

	return c
}

// Lookup returns the cached resolution for the given normalized name.
func (c *Cache) Lookup(name string) (Resolution, bool) {
	name = strings.TrimSpace(name)
	if name == "" || c.path == "" {
		return Resolution{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[name]
	if !found {
		return Resolution{}, false
	}
	outcome, ok := parseOutcome(entry.Outcome)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{
		Outcome:      outcome,
		AcceptedName: entry.AcceptedName,
		UsageKey:     entry.UsageKey,
		Rank:         entry.Rank,
	}, true
}

// Store adds or updates an entry and persists the cache to disk.
func (c *Cache) Store(name string, resolution Resolution) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if resolution.Outcome == OutcomeUnresolved {
		return errors.New("unresolved outcomes are not cacheable")
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[name] = CacheEntry{
		Name:         name,
		Outcome:      resolution.Outcome.String(),
		AcceptedName: resolution.AcceptedName,
		UsageKey:     resolution.UsageKey,
		Rank:         resolution.Rank,
		CachedAt:     time.Now().UTC(),
	}

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// Count returns the number of cached resolutions.
func (c *Cache) Count() int {
	if c.path == "" {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]CacheEntry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Name) != "" {
			c.entries[entry.Name] = entry
		}
	}

	c.logger.Debug("loaded taxonomy cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}

func (c *Cache) save() error {
	entries := make([]CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	return fileutil.WriteFileAtomic(c.path, data, 0o644)
}

func parseOutcome(value string) (Outcome, bool) {
	switch value {
	case OutcomeSpeciesConfirmed.String():
		return OutcomeSpeciesConfirmed, true
	case OutcomeRejectedNonSpecies.String():
		return OutcomeRejectedNonSpecies, true
	default:
		return OutcomeUnresolved, false
	}
}
