package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkwell-editor/inkwell/internal/editor"
	"github.com/inkwell-editor/inkwell/internal/host"
	"github.com/inkwell-editor/inkwell/internal/keymap"
	"github.com/inkwell-editor/inkwell/internal/markdown"
	"github.com/inkwell-editor/inkwell/internal/plugin/api"
	"github.com/inkwell-editor/inkwell/internal/plugin/cleanup"
	"github.com/inkwell-editor/inkwell/internal/settings"
	"github.com/inkwell-editor/inkwell/internal/statusbar"
)

type fixture struct {
	manager    *Manager
	pluginsDir string
	keymap     *keymap.Registry
	statusBar  *statusbar.Registry
	arena      *cleanup.Arena
	editor     *editor.Editor
	notifier   *api.CollectingNotifier
	markdown   *markdown.Pipeline
	settings   *settings.Reconciler
}

func newFixture(t *testing.T, opts ...func(*Config)) *fixture {
	t.Helper()

	pluginsDir := t.TempDir()
	bridge := host.NewFSBridge(pluginsDir, t.TempDir(), nil)
	ed := editor.New(nil)
	km := keymap.NewRegistry(ed, nil)
	sb := statusbar.NewRegistry()
	arena := cleanup.NewArena(nil)
	notifier := &api.CollectingNotifier{}
	pipeline := markdown.NewPipeline(markdown.NewConverter(), nil)
	cache := settings.NewCache(filepath.Join(t.TempDir(), "cache.json"), nil)
	recon := settings.NewReconciler(cache, bridge, nil)

	factory := api.NewFactory(api.Deps{
		Bridge:    bridge,
		Settings:  recon,
		Keymap:    km,
		StatusBar: sb,
		Markdown:  pipeline,
		Editor:    ed,
		Notifier:  notifier,
		Arena:     arena,
	})

	cfg := Config{
		Bridge:    bridge,
		Factory:   factory,
		Arena:     arena,
		Keymap:    km,
		StatusBar: sb,
		Settings:  recon,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	manager := NewManager(cfg)

	return &fixture{
		manager:    manager,
		pluginsDir: pluginsDir,
		keymap:     km,
		statusBar:  sb,
		arena:      arena,
		editor:     ed,
		notifier:   notifier,
		markdown:   pipeline,
		settings:   recon,
	}
}

// installPlugin writes a plugin directory with a manifest and main chunk.
func (f *fixture) installPlugin(t *testing.T, id, source string) {
	t.Helper()

	dir := filepath.Join(f.pluginsDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{
		"id": "` + id + `",
		"name": "` + id + `",
		"version": "1.0.0",
		"minAppVersion": "0.1.0",
		"main": "main.lua"
	}`
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.lua"), []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
}

const shortcutPlugin = `
local inkwell = require("inkwell")
local M = {}
function M:onload()
	inkwell.addKeyboardShortcut({
		key = "ctrl+shift+w",
		id = "toggle",
		callback = function()
			inkwell.editor.insertAtCursor("toggled")
		end,
	})
	inkwell.addStatusBarItem({ id = "count", text = "0 words" })
end
function M:onunload()
	inkwell.notice("unloaded", "info")
end
return M
`

func TestRefreshDiscovers(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "word-count", shortcutPlugin)
	f.installPlugin(t, "linker", `return {}`)

	if err := f.manager.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	plugins := f.manager.Plugins()
	if len(plugins) != 2 {
		t.Fatalf("plugins = %d, want 2", len(plugins))
	}
	// sorted by id
	if plugins[0].Manifest.ID != "linker" || plugins[1].Manifest.ID != "word-count" {
		t.Errorf("order = %s, %s", plugins[0].Manifest.ID, plugins[1].Manifest.ID)
	}
	if plugins[0].Status != StatusDiscovered {
		t.Errorf("status = %v, want discovered", plugins[0].Status)
	}
}

func TestRefreshSkipsInvalid(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "good", `return {}`)

	// broken manifest next door
	dir := filepath.Join(f.pluginsDir, "broken")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := f.manager.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	plugins := f.manager.Plugins()
	if len(plugins) != 1 || plugins[0].Manifest.ID != "good" {
		t.Errorf("plugins = %+v", plugins)
	}
}

func TestEnableLoadsPlugin(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "word-count", shortcutPlugin)
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}

	if err := f.manager.Enable("word-count"); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	info, ok := f.manager.Get("word-count")
	if !ok || info.Status != StatusLoaded {
		t.Fatalf("info = %+v", info)
	}
	if !f.keymap.HasShortcut("Ctrl+Shift+W") {
		t.Error("shortcut not registered")
	}
	if _, ok := f.statusBar.Get("word-count.count"); !ok {
		t.Error("status bar item not registered")
	}

	if !f.keymap.ExecuteShortcut("shift+ctrl+w", nil) {
		t.Error("shortcut dispatch failed")
	}
	if got := f.editor.GetValue(); got != "toggled" {
		t.Errorf("editor = %q", got)
	}
}

func TestEnableIdempotent(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "word-count", shortcutPlugin)
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Enable("word-count"); err != nil {
		t.Fatal(err)
	}

	before := f.arena.Count("word-count")
	if err := f.manager.Enable("word-count"); err != nil {
		t.Fatalf("second Enable: %v", err)
	}
	if got := f.arena.Count("word-count"); got != before {
		t.Errorf("double enable changed registrations: %d -> %d", before, got)
	}
}

func TestEnableUnknown(t *testing.T) {
	f := newFixture(t)
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Enable("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestEnableFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "broken", `
		local inkwell = require("inkwell")
		local M = {}
		function M:onload()
			inkwell.addCommand({ id = "x", callback = function() end })
			error("setup exploded")
		end
		return M
	`)
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}

	err := f.manager.Enable("broken")
	if err == nil {
		t.Fatal("Enable of failing plugin succeeded")
	}

	info, _ := f.manager.Get("broken")
	if info.Status != StatusError || info.Err == "" {
		t.Errorf("info = %+v", info)
	}
	if f.keymap.HasCommand("broken.x") {
		t.Error("registration survived failed load")
	}
	if f.arena.Count("broken") != 0 {
		t.Error("arena not drained after failed load")
	}
}

func TestDisablePurgesEverything(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "word-count", shortcutPlugin)
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Enable("word-count"); err != nil {
		t.Fatal(err)
	}

	if err := f.manager.Disable("word-count"); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	info, _ := f.manager.Get("word-count")
	if info.Status != StatusDisabled {
		t.Errorf("status = %v", info.Status)
	}
	if f.keymap.HasShortcut("Ctrl+Shift+W") {
		t.Error("shortcut survived disable")
	}
	if _, ok := f.statusBar.Get("word-count.count"); ok {
		t.Error("status bar item survived disable")
	}
	if f.arena.Count("word-count") != 0 {
		t.Error("arena not drained")
	}

	// onunload ran
	notices := f.notifier.Notices()
	if len(notices) != 1 || notices[0].Message != "unloaded" {
		t.Errorf("notices = %+v", notices)
	}

	// disabling again is a no-op
	if err := f.manager.Disable("word-count"); err != nil {
		t.Errorf("second Disable: %v", err)
	}
}

func TestReloadStartsFresh(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "word-count", shortcutPlugin)
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Enable("word-count"); err != nil {
		t.Fatal(err)
	}

	if err := f.manager.Reload("word-count"); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	info, _ := f.manager.Get("word-count")
	if info.Status != StatusLoaded {
		t.Errorf("status = %v", info.Status)
	}
	if !f.keymap.HasShortcut("Ctrl+Shift+W") {
		t.Error("shortcut missing after reload")
	}
	if got := f.arena.Count("word-count"); got != 2 {
		t.Errorf("arena count after reload = %d, want 2", got)
	}
}

func TestSubscribeStream(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "word-count", shortcutPlugin)

	var snaps []Snapshot
	unsubscribe := f.manager.Subscribe(func(s Snapshot) {
		snaps = append(snaps, s)
	})

	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Enable("word-count"); err != nil {
		t.Fatal(err)
	}

	if len(snaps) < 3 {
		t.Fatalf("snapshots = %d, want >= 3", len(snaps))
	}
	sawLoading := false
	for _, s := range snaps {
		if s.Loading {
			sawLoading = true
		}
	}
	if !sawLoading {
		t.Error("no snapshot reported loading in progress")
	}
	last := snaps[len(snaps)-1]
	if last.Loading || last.Plugins[0].Status != StatusLoaded {
		t.Errorf("final snapshot = %+v", last)
	}

	unsubscribe()
	n := len(snaps)
	if err := f.manager.Disable("word-count"); err != nil {
		t.Fatal(err)
	}
	if len(snaps) != n {
		t.Error("listener called after unsubscribe")
	}
}

func TestEnableMissingMainFile(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "word-count", shortcutPlugin)
	if err := os.Remove(filepath.Join(f.pluginsDir, "word-count", "main.lua")); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}

	if err := f.manager.Enable("word-count"); err == nil {
		t.Fatal("Enable with missing main succeeded")
	}
	info, _ := f.manager.Get("word-count")
	if info.Status != StatusError {
		t.Errorf("status = %v", info.Status)
	}
}

func TestValidatePermissions(t *testing.T) {
	f := newFixture(t)

	dir := filepath.Join(f.pluginsDir, "sync")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{
		"id": "sync",
		"name": "sync",
		"version": "1.0.0",
		"minAppVersion": "0.1.0",
		"main": "main.lua",
		"permissions": ["fs:write", "network"]
	}`
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.lua"), []byte(`return {}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}

	granted, err := f.manager.ValidatePermissions("sync", []string{"fs:write", "fs:read", "clipboard"})
	if err != nil {
		t.Fatalf("ValidatePermissions: %v", err)
	}
	if !granted["fs:write"] || !granted["fs:read"] {
		t.Errorf("fs permissions = %v, want write and implied read granted", granted)
	}
	if granted["clipboard"] {
		t.Error("clipboard granted without declaration")
	}

	if _, err := f.manager.ValidatePermissions("missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRefreshSkipsDottedID(t *testing.T) {
	f := newFixture(t)
	f.installPlugin(t, "demo.x", `return {}`)
	f.installPlugin(t, "demo", `return {}`)

	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.manager.Get("demo.x"); ok {
		t.Error("dotted id survived discovery")
	}
	if _, ok := f.manager.Get("demo"); !ok {
		t.Error("valid sibling was dropped")
	}
}

func TestEnableRejectsIncompatiblePlugin(t *testing.T) {
	f := newFixture(t, func(cfg *Config) { cfg.HostVersion = "1.0.0" })

	dir := filepath.Join(f.pluginsDir, "future")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{
		"id": "future",
		"name": "future",
		"version": "1.0.0",
		"minAppVersion": "2.0.0",
		"main": "main.lua"
	}`
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.lua"), []byte(`return {}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}

	if err := f.manager.Enable("future"); !errors.Is(err, ErrIncompatible) {
		t.Fatalf("Enable error = %v, want ErrIncompatible", err)
	}
	info, ok := f.manager.Get("future")
	if !ok {
		t.Fatal("plugin missing after failed enable")
	}
	if info.Status != StatusError || info.Err == "" {
		t.Errorf("status = %v, err = %q; want StatusError with message", info.Status, info.Err)
	}
}

func TestEnableSkipsVersionGateOnDevHost(t *testing.T) {
	f := newFixture(t, func(cfg *Config) { cfg.HostVersion = "dev" })
	f.installPlugin(t, "demo", `return {}`)

	if err := f.manager.Refresh(); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.Enable("demo"); err != nil {
		t.Fatalf("Enable on dev host: %v", err)
	}
}
