// Package host provides the bridge between the plugin runtime and the
// operating system. Everything the runtime needs from the outside world —
// plugin directory scanning, file access, durable settings storage,
// opening external URLs — goes through the Bridge interface so tests and
// alternative shells can substitute their own.
package host

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Bridge errors.
var (
	// ErrPluginDirNotFound is returned when a plugin's directory does not exist.
	ErrPluginDirNotFound = errors.New("host: plugin directory not found")

	// ErrPathTraversal is returned when a plugin file path escapes the
	// plugin's own directory.
	ErrPathTraversal = errors.New("host: path traversal not allowed")

	// ErrFileNotFound is returned when a requested file does not exist.
	ErrFileNotFound = errors.New("host: file not found")

	// ErrUnsupportedScheme is returned for external URLs that are not
	// http or https.
	ErrUnsupportedScheme = errors.New("host: unsupported url scheme")
)

// ScanEntry is one candidate plugin found in the plugins directory:
// the directory name (the expected plugin id), the directory path, and
// the raw manifest bytes. Err is set when the manifest could not be read;
// the entry is still reported so the scan can fail per-entry.
type ScanEntry struct {
	ID       string
	Dir      string
	Manifest []byte
	Err      error
}

// BackupHandle identifies one settings backup.
type BackupHandle struct {
	ID        string
	PluginID  string
	Path      string
	CreatedAt time.Time
}

// Bridge is the host-OS surface consumed by the plugin runtime.
type Bridge interface {
	// ScanPluginsDirectory lists candidate plugins. The plugins
	// directory is created if it does not exist yet.
	ScanPluginsDirectory() ([]ScanEntry, error)

	// ReadPluginFile reads a file relative to a plugin's directory.
	// Paths that escape the plugin directory are rejected.
	ReadPluginFile(pluginID, relPath string) (string, error)

	// ReadFile and WriteFile are the general file proxies exposed to
	// plugins through their capability object.
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error

	// ReadPluginSettings returns the durable settings record for a
	// plugin, or an empty record when none has been stored.
	ReadPluginSettings(pluginID string) (map[string]any, error)

	// WritePluginSettings durably stores a plugin's settings record.
	WritePluginSettings(pluginID string, record map[string]any) error

	// BackupPluginSettings snapshots the durable record. Best-effort;
	// callers treat failures as non-blocking.
	BackupPluginSettings(pluginID string) (BackupHandle, error)

	// OpenExternal opens a URL in the system browser.
	OpenExternal(rawURL string) error
}

// ValidateExternalURL checks that a URL is absolute and uses an allowed
// scheme. Shared by Bridge implementations.
func ValidateExternalURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("host: invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return nil
}
