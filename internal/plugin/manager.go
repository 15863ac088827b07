package plugin

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/inkwell-editor/inkwell/internal/host"
	"github.com/inkwell-editor/inkwell/internal/keymap"
	"github.com/inkwell-editor/inkwell/internal/plugin/api"
	"github.com/inkwell-editor/inkwell/internal/plugin/cleanup"
	"github.com/inkwell-editor/inkwell/internal/plugin/lua"
	"github.com/inkwell-editor/inkwell/internal/plugin/security"
	"github.com/inkwell-editor/inkwell/internal/settings"
	"github.com/inkwell-editor/inkwell/internal/statusbar"
)

// Config carries the services the manager wires into plugins.
type Config struct {
	Bridge    host.Bridge
	Factory   *api.Factory
	Arena     *cleanup.Arena
	Keymap    *keymap.Registry
	StatusBar *statusbar.Registry
	Settings  *settings.Reconciler
	Log       *slog.Logger

	// HostVersion gates plugins on their minAppVersion. Versions with
	// no numeric segments ("dev") disable the gate.
	HostVersion string
}

// Manager owns the plugin lifecycle. Each loaded plugin runs in its own
// sandboxed Lua state; disabling a plugin purges its registrations before
// its own cleanup code runs, then discards the state entirely.
type Manager struct {
	mu sync.RWMutex

	store       *Store
	hostVersion string

	bridge    host.Bridge
	factory   *api.Factory
	arena     *cleanup.Arena
	keymap    *keymap.Registry
	statusBar *statusbar.Registry
	settings  *settings.Reconciler
	log       *slog.Logger

	records   map[string]*record
	loading   int
	lastError string

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// record is the manager's view of one discovered plugin.
type record struct {
	manifest *Manifest
	status   Status
	err      string

	state    *lua.State
	instance *lua.Instance
}

// Info is the externally visible state of one plugin.
type Info struct {
	Manifest Manifest
	Status   Status
	Err      string
}

// Snapshot is the full lifecycle state pushed to subscribers.
type Snapshot struct {
	Plugins   []Info
	Loading   bool
	LastError string
}

// NewManager creates a manager. Call Refresh to discover plugins.
func NewManager(cfg Config) *Manager {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:       NewStore(cfg.Bridge, log),
		hostVersion: cfg.HostVersion,
		bridge:      cfg.Bridge,
		factory:     cfg.Factory,
		arena:       cfg.Arena,
		keymap:      cfg.Keymap,
		statusBar:   cfg.StatusBar,
		settings:    cfg.Settings,
		log:         log.With("component", "plugin-manager"),
		records:     make(map[string]*record),
		subs:        make(map[int]func(Snapshot)),
	}
}

// Refresh rescans the plugins directory and merges the result into the
// known set. Loaded plugins keep running even if their directory vanished;
// they are dropped on their next disable.
func (m *Manager) Refresh() error {
	manifests, err := m.store.Scan()
	if err != nil {
		return fmt.Errorf("scan plugins: %w", err)
	}

	m.mu.Lock()
	seen := make(map[string]bool, len(manifests))
	for _, manifest := range manifests {
		seen[manifest.ID] = true
		if rec, ok := m.records[manifest.ID]; ok {
			rec.manifest = manifest
			continue
		}
		m.records[manifest.ID] = &record{manifest: manifest, status: StatusDiscovered}
	}
	for id, rec := range m.records {
		if !seen[id] && rec.status != StatusLoaded && rec.status != StatusEnabling {
			delete(m.records, id)
		}
	}
	m.mu.Unlock()

	m.notify()
	return nil
}

// Enable loads a discovered plugin. Enabling a plugin that is already
// loaded is a no-op. On failure every registration the plugin managed to
// make is rolled back, its state is discarded, and the plugin lands in
// StatusError.
func (m *Manager) Enable(id string) error {
	m.mu.Lock()
	rec, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	switch rec.status {
	case StatusLoaded:
		m.mu.Unlock()
		return nil
	case StatusEnabling:
		m.mu.Unlock()
		return fmt.Errorf("%q: %w", id, ErrEnabling)
	}
	rec.status = StatusEnabling
	rec.err = ""
	manifest := rec.manifest
	m.loading++
	m.mu.Unlock()
	m.notify()

	state, inst, err := m.load(manifest)

	m.mu.Lock()
	m.loading--
	if err != nil {
		rec.status = StatusError
		rec.err = err.Error()
		m.lastError = fmt.Sprintf("%s: %v", id, err)
	} else {
		rec.status = StatusLoaded
		rec.state = state
		rec.instance = inst
	}
	m.mu.Unlock()
	m.notify()

	if err != nil {
		m.log.Error("plugin enable failed", "plugin", id, "error", err)
		return fmt.Errorf("enable %q: %w", id, err)
	}
	m.log.Info("plugin enabled", "plugin", id, "version", manifest.Version)
	return nil
}

// load runs outside the manager lock: reading the entry file and running
// plugin code can be slow and must not stall lifecycle queries.
func (m *Manager) load(manifest *Manifest) (*lua.State, *lua.Instance, error) {
	if err := manifest.CompatibleWith(m.hostVersion); err != nil {
		return nil, nil, err
	}

	caps, err := manifest.Capabilities()
	if err != nil {
		return nil, nil, err
	}

	// Reconcile the two settings tiers before the plugin reads them.
	if err := m.settings.Initialize(manifest.ID); err != nil {
		m.log.Warn("settings reconcile failed", "plugin", manifest.ID, "error", err)
	}

	source, err := m.bridge.ReadPluginFile(manifest.ID, manifest.Main)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", manifest.Main, err)
	}

	state := lua.NewState()
	hostAPI := m.factory.ForPlugin(manifest.ID, security.NewChecker(caps))

	inst, err := lua.Execute(state, hostAPI, source, manifest.ID+"/"+manifest.Main, m.log)
	if err != nil {
		// Roll back whatever the chunk registered before it failed.
		m.arena.DisposeAll(manifest.ID)
		m.keymap.PurgePlugin(manifest.ID)
		m.statusBar.RemovePlugin(manifest.ID)
		state.Close()
		return nil, nil, err
	}
	return state, inst, nil
}

// Disable tears down a loaded plugin. Disabling a plugin that is not
// loaded is a no-op. Registrations are purged before the plugin's own
// unload and cleanup code runs, so a handler can never fire against a
// plugin mid-teardown.
func (m *Manager) Disable(id string) error {
	m.mu.Lock()
	rec, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	if rec.status != StatusLoaded {
		m.mu.Unlock()
		return nil
	}

	m.keymap.PurgePlugin(id)
	m.statusBar.RemovePlugin(id)

	if err := rec.instance.Unload(); err != nil {
		m.log.Error("plugin unload failed", "plugin", id, "error", err)
	}

	m.arena.DisposeAll(id)
	rec.state.Close()

	rec.status = StatusDisabled
	rec.state = nil
	rec.instance = nil
	m.mu.Unlock()

	m.notify()
	m.log.Info("plugin disabled", "plugin", id)
	return nil
}

// Reload disables the plugin if it is loaded and enables it again from a
// fresh state.
//
// Like Enable and Disable, Reload tears down a live interpreter, and
// interpreters are single-owner: the caller must ensure no shortcut,
// command, or processor dispatch into the same plugin runs concurrently.
// The shell satisfies this by driving lifecycle changes and dispatch
// from one logical thread.
func (m *Manager) Reload(id string) error {
	if err := m.Disable(id); err != nil {
		return err
	}
	return m.Enable(id)
}

// Get returns the current state of one plugin.
func (m *Manager) Get(id string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return Info{}, false
	}
	return infoOf(rec), true
}

// Plugins returns every known plugin, sorted by id.
func (m *Manager) Plugins() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pluginsLocked()
}

// Loaded returns the plugins currently running, sorted by id. Enabling
// and loading are a single transition here, so this is also the set of
// enabled plugins: a plugin whose load failed is never enabled.
func (m *Manager) Loaded() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Info
	for _, rec := range m.records {
		if rec.status == StatusLoaded {
			out = append(out, infoOf(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.ID < out[j].Manifest.ID })
	return out
}

// ValidatePermissions reports, for each requested permission, whether
// the plugin's manifest grants it.
func (m *Manager) ValidatePermissions(id string, requested []string) (map[string]bool, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	manifest := rec.manifest
	m.mu.RUnlock()

	caps, err := manifest.Capabilities()
	if err != nil {
		return nil, err
	}
	return security.NewChecker(caps).Validate(requested), nil
}

// Subscribe registers a lifecycle listener and returns an unsubscribe
// closure. The listener receives a snapshot after every state change.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// notify pushes the current snapshot to all subscribers. Listeners run
// outside the manager lock; a panicking listener is logged and dropped
// from this round only.
func (m *Manager) notify() {
	m.mu.RLock()
	snap := Snapshot{
		Plugins:   m.pluginsLocked(),
		Loading:   m.loading > 0,
		LastError: m.lastError,
	}
	m.mu.RUnlock()

	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		m.safeNotify(fn, snap)
	}
}

func (m *Manager) safeNotify(fn func(Snapshot), snap Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error("lifecycle listener panicked", "panic", rec)
		}
	}()
	fn(snap)
}

func (m *Manager) pluginsLocked() []Info {
	out := make([]Info, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, infoOf(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.ID < out[j].Manifest.ID })
	return out
}

func infoOf(rec *record) Info {
	return Info{
		Manifest: *rec.manifest,
		Status:   rec.status,
		Err:      rec.err,
	}
}
