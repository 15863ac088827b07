package settings

import (
	"path/filepath"
	"testing"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c := NewCache(path, nil)

	c.Set("demo", map[string]any{"theme": "dark"})
	got := c.Get("demo")
	if got["theme"] != "dark" {
		t.Errorf("Get() = %v", got)
	}

	// A fresh cache over the same file sees the flushed document.
	c2 := NewCache(path, nil)
	got = c2.Get("demo")
	if got["theme"] != "dark" {
		t.Errorf("reloaded Get() = %v", got)
	}
}

func TestCacheMissingIsEmpty(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "cache.json"), nil)
	if got := c.Get("never"); len(got) != 0 {
		t.Errorf("Get() = %v, want empty", got)
	}
}

func TestCacheNamespacing(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "cache.json"), nil)

	c.Set("one", map[string]any{"k": "1"})
	c.Set("two", map[string]any{"k": "2"})

	if got := c.Get("one"); got["k"] != "1" {
		t.Errorf("one = %v", got)
	}
	if got := c.Get("two"); got["k"] != "2" {
		t.Errorf("two = %v", got)
	}
}

func TestCacheDelete(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "cache.json"), nil)

	c.Set("demo", map[string]any{"k": "v"})
	c.Delete("demo")
	if got := c.Get("demo"); len(got) != 0 {
		t.Errorf("Get() after Delete = %v, want empty", got)
	}
}
