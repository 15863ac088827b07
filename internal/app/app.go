// Package app assembles the host: configuration, logging, the editor and
// its registries, the markdown pipeline, the settings tiers, and the
// plugin lifecycle manager, wired together and torn down in order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inkwell-editor/inkwell/internal/config"
	"github.com/inkwell-editor/inkwell/internal/editor"
	"github.com/inkwell-editor/inkwell/internal/host"
	"github.com/inkwell-editor/inkwell/internal/keymap"
	"github.com/inkwell-editor/inkwell/internal/markdown"
	"github.com/inkwell-editor/inkwell/internal/plugin"
	"github.com/inkwell-editor/inkwell/internal/plugin/api"
	"github.com/inkwell-editor/inkwell/internal/plugin/cleanup"
	"github.com/inkwell-editor/inkwell/internal/plugin/watcher"
	"github.com/inkwell-editor/inkwell/internal/settings"
	"github.com/inkwell-editor/inkwell/internal/statusbar"
)

// Options are the command-line overrides applied on top of the config
// file.
type Options struct {
	ConfigPath string
	DataDir    string
	LogLevel   string
	NoWatch    bool

	// Version is the host version plugins are gated against via their
	// manifest's minAppVersion. Empty or non-numeric disables the gate.
	Version string
}

// App owns the assembled host.
type App struct {
	cfg *config.Config
	log *slog.Logger

	editor    *editor.Editor
	keymap    *keymap.Registry
	statusBar *statusbar.Registry
	pipeline  *markdown.Pipeline
	settings  *settings.Reconciler
	notifier  *logNotifier
	tabs      *api.SettingsTabs

	manager *plugin.Manager
	watcher *watcher.Watcher
}

// New loads configuration and wires the host together. Plugins are
// discovered but not enabled.
func New(opts Options) (*App, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(defaultDataDir(), "config.yaml")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
		cfg.PluginsDir = filepath.Join(opts.DataDir, "plugins")
		cfg.SettingsDir = filepath.Join(opts.DataDir, "settings")
		cfg.CacheFile = filepath.Join(opts.DataDir, "cache.json")
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.NoWatch {
		cfg.WatchPlugins = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	bridge := host.NewFSBridge(cfg.PluginsDir, cfg.SettingsDir, log)
	ed := editor.New(log)
	km := keymap.NewRegistry(ed, log)
	sb := statusbar.NewRegistry()
	pipeline := markdown.NewPipeline(markdown.NewConverter(), log)
	cache := settings.NewCache(cfg.CacheFile, log)
	recon := settings.NewReconciler(cache, bridge, log)
	arena := cleanup.NewArena(log)
	notifier := &logNotifier{log: log}
	tabs := api.NewSettingsTabs()

	factory := api.NewFactory(api.Deps{
		Bridge:    bridge,
		Settings:  recon,
		Keymap:    km,
		StatusBar: sb,
		Markdown:  pipeline,
		Editor:    ed,
		Notifier:  notifier,
		Arena:     arena,
		Tabs:      tabs,
		Log:       log,
	})

	manager := plugin.NewManager(plugin.Config{
		Bridge:    bridge,
		Factory:   factory,
		Arena:     arena,
		Keymap:    km,
		StatusBar: sb,
		Settings:  recon,
		Log:       log,

		HostVersion: opts.Version,
	})

	a := &App{
		cfg:       cfg,
		log:       log,
		editor:    ed,
		keymap:    km,
		statusBar: sb,
		pipeline:  pipeline,
		settings:  recon,
		notifier:  notifier,
		tabs:      tabs,
		manager:   manager,
	}

	if err := manager.Refresh(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	return a, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inkwell"
	}
	return filepath.Join(home, ".inkwell")
}

// Run enables every discovered plugin, starts the plugin watcher if
// configured, and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	for _, info := range a.manager.Plugins() {
		if err := a.manager.Enable(info.Manifest.ID); err != nil {
			// A broken plugin must not take the host down.
			a.log.Error("plugin skipped", "plugin", info.Manifest.ID, "error", err)
		}
	}

	if a.cfg.WatchPlugins {
		w := watcher.New(a.cfg.PluginsDir, a.manager, a.log)
		if err := w.Start(); err != nil {
			a.log.Warn("plugin watcher unavailable", "error", err)
		} else {
			a.watcher = w
		}
	}

	a.log.Info("host ready",
		"plugins", len(a.manager.Loaded()),
		"plugins_dir", a.cfg.PluginsDir)

	<-ctx.Done()
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Shutdown disables every loaded plugin and stops the watcher. Safe to
// call after a failed Run.
func (a *App) Shutdown() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.log.Warn("watcher close failed", "error", err)
		}
		a.watcher = nil
	}
	for _, info := range a.manager.Loaded() {
		if err := a.manager.Disable(info.Manifest.ID); err != nil {
			a.log.Error("plugin disable failed", "plugin", info.Manifest.ID, "error", err)
		}
	}
}

// Manager exposes the plugin lifecycle, mainly for status display.
func (a *App) Manager() *plugin.Manager {
	return a.manager
}

// SettingsTabs exposes the registered plugin settings tabs for the
// shell to render.
func (a *App) SettingsTabs() *api.SettingsTabs {
	return a.tabs
}

// StatusBar exposes the status-bar contributions for the shell to
// render.
func (a *App) StatusBar() *statusbar.Registry {
	return a.statusBar
}

// Editor exposes the shared text buffer.
func (a *App) Editor() *editor.Editor {
	return a.editor
}

// logNotifier routes plugin notices to the structured log. A graphical
// shell would replace this with toasts.
type logNotifier struct {
	log *slog.Logger
}

func (n *logNotifier) Notify(notice api.Notice) {
	switch notice.Severity {
	case api.SeverityError:
		n.log.Error("notice", "plugin", notice.PluginID, "message", notice.Message)
	case api.SeverityWarning:
		n.log.Warn("notice", "plugin", notice.PluginID, "message", notice.Message)
	default:
		n.log.Info("notice", "plugin", notice.PluginID, "message", notice.Message, "severity", notice.Severity)
	}
}
