package watchlist

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Cache holds the watchlist entries loaded from a directory of YAML files.
// Entries are synced into the database by the scheduler; competitors added
// through the API live only in the database and are unaffected.
type Cache struct {
	dir   string
	cache map[string]*Entry
	mu    sync.RWMutex
}

func NewCache(dir string) *Cache {
	return &Cache{
		dir:   dir,
		cache: make(map[string]*Entry),
	}
}

// Run loads every *.yml file in the watchlist directory. A missing directory
// is not an error; an empty watchlist is a valid deployment.
func (c *Cache) Run() error {
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.dir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		entry, err := c.LoadEntry(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Watchlist entry loaded", "competitor", name, "website", entry.Website, "disabled", entry.Disabled)
	}

	return nil
}

// LoadEntry reads a single watchlist file and caches the result.
func (c *Cache) LoadEntry(name string) (*Entry, error) {
	path := filepath.Join(c.dir, name+".yml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist file: %w", err)
	}

	var entry Entry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist file: %w", err)
	}
	entry.Name = name

	if entry.Website == "" {
		return nil, fmt.Errorf("watchlist entry %s has no website", name)
	}

	c.mu.Lock()
	c.cache[name] = &entry
	c.mu.Unlock()

	return &entry, nil
}

func (c *Cache) GetEntry(name string) (*Entry, error) {
	c.mu.RLock()
	entry, ok := c.cache[name]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no watchlist entry for %s", name)
	}
	return entry, nil
}

// GetEntries returns all cached entries sorted by name.
func (c *Cache) GetEntries() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]*Entry, 0, len(c.cache))
	for _, entry := range c.cache {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries
}

func (c *Cache) GetCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
