package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell-editor/inkwell/internal/editor"
	"github.com/inkwell-editor/inkwell/internal/host"
	"github.com/inkwell-editor/inkwell/internal/keymap"
	"github.com/inkwell-editor/inkwell/internal/markdown"
	"github.com/inkwell-editor/inkwell/internal/plugin/cleanup"
	"github.com/inkwell-editor/inkwell/internal/plugin/security"
	"github.com/inkwell-editor/inkwell/internal/settings"
	"github.com/inkwell-editor/inkwell/internal/statusbar"
)

// Clipboard abstracts system clipboard access.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Deps bundles the host services the API surfaces to plugins.
type Deps struct {
	Bridge    host.Bridge
	Settings  *settings.Reconciler
	Keymap    *keymap.Registry
	StatusBar *statusbar.Registry
	Markdown  *markdown.Pipeline
	Editor    *editor.Editor
	Notifier  Notifier
	Clipboard Clipboard
	Arena     *cleanup.Arena
	Tabs      *SettingsTabs
	Log       *slog.Logger
}

// Factory builds per-plugin API views over a shared set of host services.
type Factory struct {
	deps Deps
}

// NewFactory creates a factory. A nil Notifier gets a collecting default
// and a nil Log falls back to slog.Default.
func NewFactory(deps Deps) *Factory {
	if deps.Notifier == nil {
		deps.Notifier = &CollectingNotifier{}
	}
	if deps.Clipboard == nil {
		deps.Clipboard = &memoryClipboard{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Arena == nil {
		deps.Arena = cleanup.NewArena(deps.Log)
	}
	if deps.Tabs == nil {
		deps.Tabs = NewSettingsTabs()
	}
	return &Factory{deps: deps}
}

// SettingsTabs returns the shared settings-tab registry, for the UI
// layer to enumerate and build plugin settings panels.
func (f *Factory) SettingsTabs() *SettingsTabs { return f.deps.Tabs }

// ForPlugin returns the API view for one plugin. Registrations made through
// the view are namespaced under pluginID and tracked in the cleanup arena;
// privileged calls are gated on checker.
func (f *Factory) ForPlugin(pluginID string, checker *security.Checker) *API {
	if checker == nil {
		checker = security.NewChecker(nil)
	}
	return &API{
		pluginID: pluginID,
		checker:  checker,
		deps:     f.deps,
		log:      f.deps.Log.With("plugin", pluginID),
	}
}

// API is the host surface one plugin operates through.
type API struct {
	pluginID string
	checker  *security.Checker
	deps     Deps
	log      *slog.Logger
}

// PluginID returns the owning plugin's id.
func (a *API) PluginID() string { return a.pluginID }

// Editor returns the shared editor instance.
func (a *API) Editor() *editor.Editor { return a.deps.Editor }

// ReadFile reads an arbitrary file through the host bridge. Requires the
// fs:read permission.
func (a *API) ReadFile(path string) (string, error) {
	if err := a.checker.Check(security.CapabilityFileRead, "read file"); err != nil {
		return "", err
	}
	return a.deps.Bridge.ReadFile(path)
}

// WriteFile writes an arbitrary file through the host bridge. Requires the
// fs:write permission.
func (a *API) WriteFile(path, content string) error {
	if err := a.checker.Check(security.CapabilityFileWrite, "write file"); err != nil {
		return err
	}
	return a.deps.Bridge.WriteFile(path, content)
}

// ReadPluginFile reads a file from the plugin's own directory. The path is
// confined to the plugin directory by the bridge; no permission is needed
// for a plugin to read its own assets.
func (a *API) ReadPluginFile(relPath string) (string, error) {
	return a.deps.Bridge.ReadPluginFile(a.pluginID, relPath)
}

// OpenExternal opens an http or https URL in the system handler. Requires
// the network permission.
func (a *API) OpenExternal(rawURL string) error {
	if err := a.checker.Check(security.CapabilityNetwork, "open external URL"); err != nil {
		return err
	}
	return a.deps.Bridge.OpenExternal(rawURL)
}

// ClipboardRead returns the clipboard contents. Requires the clipboard
// permission.
func (a *API) ClipboardRead() (string, error) {
	if err := a.checker.Check(security.CapabilityClipboard, "read clipboard"); err != nil {
		return "", err
	}
	return a.deps.Clipboard.Read()
}

// ClipboardWrite replaces the clipboard contents. Requires the clipboard
// permission.
func (a *API) ClipboardWrite(text string) error {
	if err := a.checker.Check(security.CapabilityClipboard, "write clipboard"); err != nil {
		return err
	}
	return a.deps.Clipboard.Write(text)
}

// LoadSettings returns the plugin's reconciled settings record.
func (a *API) LoadSettings() map[string]any {
	return a.deps.Settings.Load(a.pluginID)
}

// SaveSettings persists the plugin's settings record to both tiers.
func (a *API) SaveSettings(record map[string]any) error {
	return a.deps.Settings.Save(a.pluginID, record)
}

// BackupSettings snapshots the plugin's durable settings file.
func (a *API) BackupSettings() (host.BackupHandle, error) {
	return a.deps.Settings.Backup(a.pluginID)
}

// MarkdownToHTML renders markdown through the full processing pipeline,
// including every registered post-processor and code block processor.
func (a *API) MarkdownToHTML(source string) (string, error) {
	return a.deps.Markdown.Render(source)
}

// Notify raises a user-facing notice tagged with the plugin id.
func (a *API) Notify(severity Severity, message string) {
	a.deps.Notifier.Notify(Notice{
		PluginID: a.pluginID,
		Severity: severity,
		Message:  message,
		Time:     time.Now(),
	})
}

// Qualify prefixes an id with the plugin id. Already-qualified ids pass
// through unchanged.
func (a *API) Qualify(id string) string {
	prefix := a.pluginID + "."
	if len(id) > len(prefix) && id[:len(prefix)] == prefix {
		return id
	}
	return prefix + id
}

// AddCommand registers a command under the plugin-qualified id and tracks
// the unregister in the cleanup arena. The handler resolution accepts an
// editor-aware callback, a plain callback, or a legacy callback, in that
// order of precedence.
func (a *API) AddCommand(id string, editorFn func(ed *editor.Editor) error, plainFn, legacyFn func() error) (func(), error) {
	h, err := keymap.Resolve(editorFn, plainFn, legacyFn)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", id, err)
	}
	unregister := a.deps.Keymap.AddCommand(a.Qualify(id), a.pluginID, h)
	a.deps.Arena.Push(a.pluginID, unregister)
	return unregister, nil
}

// AddShortcut binds a keyboard shortcut to a handler and tracks the
// unregister in the cleanup arena.
func (a *API) AddShortcut(shortcut, id string, editorFn func(ed *editor.Editor) error, plainFn, legacyFn func() error) (func(), error) {
	h, err := keymap.Resolve(editorFn, plainFn, legacyFn)
	if err != nil {
		return nil, fmt.Errorf("shortcut %q: %w", shortcut, err)
	}
	unregister := a.deps.Keymap.AddShortcut(shortcut, a.Qualify(id), a.pluginID, h)
	a.deps.Arena.Push(a.pluginID, unregister)
	return unregister, nil
}

// AddStatusBarItem adds a status bar item owned by the plugin and returns
// its qualified id along with the tracked unregister.
func (a *API) AddStatusBarItem(itemID, text, icon string, onClick func()) (string, func()) {
	id, unregister := a.deps.StatusBar.Add(a.pluginID, itemID, text, icon, onClick)
	a.deps.Arena.Push(a.pluginID, unregister)
	return id, unregister
}

// StatusBarSetText updates the text of an item by qualified id.
func (a *API) StatusBarSetText(id, text string) bool {
	return a.deps.StatusBar.SetText(id, text)
}

// RegisterMarkdownPostProcessor appends a post-processor to the markdown
// pipeline and tracks the unregister in the cleanup arena.
func (a *API) RegisterMarkdownPostProcessor(fn markdown.PostProcessor) func() {
	unregister := a.deps.Markdown.RegisterPostProcessor(fn)
	a.deps.Arena.Push(a.pluginID, unregister)
	return unregister
}

// RegisterMarkdownCodeBlockProcessor claims a fenced-code language for the
// plugin and tracks the unregister in the cleanup arena.
func (a *API) RegisterMarkdownCodeBlockProcessor(language string, fn markdown.CodeBlockProcessor) func() {
	unregister := a.deps.Markdown.RegisterCodeBlockProcessor(language, fn)
	a.deps.Arena.Push(a.pluginID, unregister)
	return unregister
}

// RegisterSettingsTab installs the plugin's settings-tab builder,
// replacing any previous one, and tracks the unregister in the cleanup
// arena.
func (a *API) RegisterSettingsTab(build TabBuilder) func() {
	unregister := a.deps.Tabs.Register(a.pluginID, build)
	a.deps.Arena.Push(a.pluginID, unregister)
	return unregister
}

// OnCleanup records an arbitrary disposable to run when the plugin is
// disabled, after its registrations have been purged.
func (a *API) OnCleanup(dispose func()) {
	a.deps.Arena.Push(a.pluginID, dispose)
}

// memoryClipboard is the fallback clipboard when no system clipboard is
// wired in.
type memoryClipboard struct {
	text string
}

func (m *memoryClipboard) Read() (string, error)   { return m.text, nil }
func (m *memoryClipboard) Write(text string) error { m.text = text; return nil }
