// Package settings persists per-plugin settings in two tiers: a fast
// local cache and a durable per-plugin store behind the host bridge, and
// reconciles them on first enable.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// cacheKeyPrefix namespaces plugin records inside the shared cache file
// so they can never collide with other cached state.
const cacheKeyPrefix = "plugin-settings:"

// Cache is the fast tier: one JSON document holding every plugin's
// record under a namespaced key, kept in memory and flushed to disk
// best-effort. A flush failure is logged, never surfaced; the durable
// tier is the source of truth.
type Cache struct {
	mu   sync.Mutex
	path string
	doc  []byte
	log  *slog.Logger
}

// NewCache loads the cache document from path, starting empty when the
// file is missing or unreadable.
func NewCache(path string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	c := &Cache{path: path, doc: []byte("{}"), log: log.With("component", "settings-cache")}

	if data, err := os.ReadFile(path); err == nil && gjson.ValidBytes(data) {
		c.doc = data
	}
	return c
}

// Get returns the cached record for a plugin, or an empty record.
func (c *Cache) Get(pluginID string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := gjson.GetBytes(c.doc, cacheKey(pluginID))
	if !result.Exists() || !result.IsObject() {
		return map[string]any{}
	}

	record := make(map[string]any)
	if err := json.Unmarshal([]byte(result.Raw), &record); err != nil {
		return map[string]any{}
	}
	return record
}

// Set stores a plugin's record in the cache and flushes to disk.
// Failures are logged and swallowed.
func (c *Cache) Set(pluginID string, record map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := sjson.SetBytes(c.doc, cacheKey(pluginID), record)
	if err != nil {
		c.log.Warn("failed to update settings cache", "plugin", pluginID, "error", err)
		return
	}
	c.doc = doc
	c.flush()
}

// Delete drops a plugin's record from the cache.
func (c *Cache) Delete(pluginID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := sjson.DeleteBytes(c.doc, cacheKey(pluginID))
	if err != nil {
		return
	}
	c.doc = doc
	c.flush()
}

// flush writes the document to disk. Caller holds the lock.
func (c *Cache) flush() {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.log.Warn("failed to create cache directory", "error", err)
			return
		}
	}
	if err := os.WriteFile(c.path, c.doc, 0o644); err != nil {
		c.log.Warn("failed to flush settings cache", "error", err)
	}
}

// cacheKey builds the namespaced gjson path for a plugin. Plugin ids are
// validated to contain no dots, so no path escaping is needed.
func cacheKey(pluginID string) string {
	return cacheKeyPrefix + pluginID
}

// String implements fmt.Stringer for debugging.
func (c *Cache) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("settings.Cache(%s, %d bytes)", c.path, len(c.doc))
}
