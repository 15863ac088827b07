package host

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const manifestFileName = "manifest.json"

// FSBridge is the filesystem-backed Bridge used by the application shell.
// Plugins live in subdirectories of PluginsDir; durable per-plugin
// settings live as JSON files under SettingsDir.
type FSBridge struct {
	pluginsDir  string
	settingsDir string
	log         *slog.Logger
}

// NewFSBridge creates a bridge rooted at the given directories.
func NewFSBridge(pluginsDir, settingsDir string, log *slog.Logger) *FSBridge {
	if log == nil {
		log = slog.Default()
	}
	return &FSBridge{
		pluginsDir:  pluginsDir,
		settingsDir: settingsDir,
		log:         log.With("component", "host"),
	}
}

// ScanPluginsDirectory lists every subdirectory of the plugins directory
// together with its raw manifest bytes. A directory whose manifest cannot
// be read is reported with its error rather than dropped, so callers can
// fail per-entry.
func (b *FSBridge) ScanPluginsDirectory() ([]ScanEntry, error) {
	if err := os.MkdirAll(b.pluginsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plugins directory: %w", err)
	}

	dirEntries, err := os.ReadDir(b.pluginsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	entries := make([]ScanEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		dir := filepath.Join(b.pluginsDir, de.Name())
		entry := ScanEntry{ID: de.Name(), Dir: dir}

		data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
		if err != nil {
			entry.Err = fmt.Errorf("failed to read %s: %w", manifestFileName, err)
		} else {
			entry.Manifest = data
		}
		entries = append(entries, entry)
	}

	b.log.Debug("scanned plugins directory", "dir", b.pluginsDir, "entries", len(entries))
	return entries, nil
}

// ReadPluginFile reads a file relative to a plugin's directory, rejecting
// paths that resolve outside it.
func (b *FSBridge) ReadPluginFile(pluginID, relPath string) (string, error) {
	pluginDir := filepath.Join(b.pluginsDir, pluginID)
	if _, err := os.Stat(pluginDir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrPluginDirNotFound, pluginID)
	}

	full := filepath.Join(pluginDir, relPath)
	resolved, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	base, err := filepath.Abs(pluginDir)
	if err != nil {
		return "", err
	}
	if resolved != base && !strings.HasPrefix(resolved, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, relPath)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, relPath)
		}
		return "", fmt.Errorf("failed to read plugin file: %w", err)
	}
	return string(data), nil
}

// ReadFile reads an arbitrary file on behalf of a plugin's file proxy.
func (b *FSBridge) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", err
	}
	return string(data), nil
}

// WriteFile writes an arbitrary file on behalf of a plugin's file proxy.
func (b *FSBridge) WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// ReadPluginSettings loads the durable settings record for a plugin.
// A missing file yields an empty record, not an error.
func (b *FSBridge) ReadPluginSettings(pluginID string) (map[string]any, error) {
	data, err := os.ReadFile(b.settingsPath(pluginID))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read settings for %s: %w", pluginID, err)
	}

	record := make(map[string]any)
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse settings for %s: %w", pluginID, err)
	}
	return record, nil
}

// WritePluginSettings durably stores a plugin's settings record.
func (b *FSBridge) WritePluginSettings(pluginID string, record map[string]any) error {
	if err := os.MkdirAll(b.settingsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings for %s: %w", pluginID, err)
	}
	return os.WriteFile(b.settingsPath(pluginID), data, 0o644)
}

// BackupPluginSettings copies the durable record into the backups
// directory under a fresh handle id.
func (b *FSBridge) BackupPluginSettings(pluginID string) (BackupHandle, error) {
	data, err := os.ReadFile(b.settingsPath(pluginID))
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return BackupHandle{}, fmt.Errorf("failed to read settings for backup: %w", err)
		}
	}

	backupDir := filepath.Join(b.settingsDir, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return BackupHandle{}, err
	}

	handle := BackupHandle{
		ID:        uuid.NewString(),
		PluginID:  pluginID,
		CreatedAt: time.Now(),
	}
	handle.Path = filepath.Join(backupDir, pluginID+"-"+handle.ID+".json")

	if err := os.WriteFile(handle.Path, data, 0o644); err != nil {
		return BackupHandle{}, err
	}
	return handle, nil
}

// OpenExternal validates the URL and hands it to the desktop environment.
// In headless environments the open is logged and skipped.
func (b *FSBridge) OpenExternal(rawURL string) error {
	if err := ValidateExternalURL(rawURL); err != nil {
		return err
	}
	// The shell wires the actual browser launch; the runtime only needs
	// validation plus an audit line.
	b.log.Info("open external url", "url", rawURL)
	return nil
}

func (b *FSBridge) settingsPath(pluginID string) string {
	return filepath.Join(b.settingsDir, pluginID+".json")
}
