package keymap

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/inkwell-editor/inkwell/internal/editor"
)

// Registry holds all command and shortcut bindings and dispatches key
// events and command ids to the currently-registered handler.
//
// Two distinct raw shortcut strings that canonicalize identically resolve
// to the same binding; the last registrant replaces the prior one. This is
// a documented last-write-wins policy, not a multi-handler fan-out.
type Registry struct {
	mu sync.RWMutex

	editor *editor.Editor
	log    *slog.Logger

	shortcuts map[string]*Binding // canonical shortcut -> binding
	commands  map[string]*Binding // qualified command id -> binding

	nextSerial uint64
}

// NewRegistry creates an empty registry dispatching editor-aware handlers
// against ed.
func NewRegistry(ed *editor.Editor, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		editor:    ed,
		log:       log.With("component", "keymap"),
		shortcuts: make(map[string]*Binding),
		commands:  make(map[string]*Binding),
	}
}

// AddCommand registers a command under its qualified id and returns an
// idempotent unregister closure bound to exactly this registration.
func (r *Registry) AddCommand(qualifiedID, pluginID string, h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSerial++
	b := &Binding{ID: qualifiedID, PluginID: pluginID, Handler: h, serial: r.nextSerial}
	r.commands[qualifiedID] = b

	return r.unregisterFunc(r.commands, qualifiedID, b.serial)
}

// AddShortcut canonicalizes the shortcut, registers the binding, and
// returns an idempotent unregister closure. A later registration for the
// same canonical shortcut replaces the binding (last write wins).
func (r *Registry) AddShortcut(rawShortcut, qualifiedID, pluginID string, h Handler) func() {
	canonical := Canonicalize(rawShortcut)

	r.mu.Lock()
	defer r.mu.Unlock()

	if prior, ok := r.shortcuts[canonical]; ok {
		r.log.Warn("shortcut replaced",
			"shortcut", canonical,
			"previous", prior.ID,
			"replacement", qualifiedID)
	}

	r.nextSerial++
	b := &Binding{
		ID:       qualifiedID,
		PluginID: pluginID,
		Shortcut: canonical,
		Handler:  h,
		serial:   r.nextSerial,
	}
	r.shortcuts[canonical] = b

	return r.unregisterFunc(r.shortcuts, canonical, b.serial)
}

// unregisterFunc builds a closure that removes the binding stored under
// key, but only while it is still the binding this registration created.
// Calling the closure twice is a no-op.
func (r *Registry) unregisterFunc(table map[string]*Binding, key string, serial uint64) func() {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if current, ok := table[key]; ok && current.serial == serial {
			delete(table, key)
		}
	}
}

// ExecuteShortcut canonicalizes the raw shortcut, looks up its binding,
// and invokes the handler. The event's default action is suppressed only
// when a binding existed. Returns whether a handler ran to completion;
// handler errors and panics are caught, logged, and reported as false.
func (r *Registry) ExecuteShortcut(rawShortcut string, ev *KeyEvent) bool {
	canonical := Canonicalize(rawShortcut)

	r.mu.RLock()
	b, ok := r.shortcuts[canonical]
	r.mu.RUnlock()

	if !ok {
		return false
	}

	if ev != nil {
		ev.PreventDefault()
	}

	if err := r.safeInvoke(b); err != nil {
		r.log.Error("shortcut handler failed",
			"shortcut", canonical,
			"binding", b.ID,
			"plugin", b.PluginID,
			"error", err)
		return false
	}
	return true
}

// ExecuteCommand looks up the plugin-qualified command id and invokes the
// handler, with the same failure semantics as ExecuteShortcut.
func (r *Registry) ExecuteCommand(qualifiedID string) bool {
	r.mu.RLock()
	b, ok := r.commands[qualifiedID]
	r.mu.RUnlock()

	if !ok {
		return false
	}

	if err := r.safeInvoke(b); err != nil {
		r.log.Error("command handler failed",
			"command", qualifiedID,
			"plugin", b.PluginID,
			"error", err)
		return false
	}
	return true
}

// safeInvoke runs a binding's handler with panic recovery.
func (r *Registry) safeInvoke(b *Binding) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return b.Handler.invoke(r.editor)
}

// PurgePlugin removes every shortcut and command whose qualified id is
// prefixed by pluginID+"." or that is otherwise owned by the plugin.
// Bindings belonging to other plugins are untouched.
func (r *Registry) PurgePlugin(pluginID string) {
	prefix := pluginID + "."

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, b := range r.shortcuts {
		if b.PluginID == pluginID || strings.HasPrefix(b.ID, prefix) {
			delete(r.shortcuts, key)
		}
	}
	for key, b := range r.commands {
		if b.PluginID == pluginID || strings.HasPrefix(b.ID, prefix) {
			delete(r.commands, key)
		}
	}
}

// HasShortcut reports whether a binding exists for the shortcut.
func (r *Registry) HasShortcut(rawShortcut string) bool {
	canonical := Canonicalize(rawShortcut)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.shortcuts[canonical]
	return ok
}

// HasCommand reports whether a command is registered.
func (r *Registry) HasCommand(qualifiedID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[qualifiedID]
	return ok
}

// CommandIDs returns the qualified ids of all registered commands.
func (r *Registry) CommandIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.commands))
	for id := range r.commands {
		ids = append(ids, id)
	}
	return ids
}

// ShortcutCount returns the number of registered shortcuts.
func (r *Registry) ShortcutCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shortcuts)
}
