package keymap

import (
	"errors"

	"github.com/inkwell-editor/inkwell/internal/editor"
)

// Handler variant kinds. Exactly one variant is active per binding,
// chosen at registration time rather than probed at dispatch time.
type handlerKind int

const (
	kindNone handlerKind = iota
	kindCallback
	kindEditorCallback
	kindLegacy
)

// ErrNoHandler is returned when a registration supplies no handler variant.
var ErrNoHandler = errors.New("keymap: binding has no handler")

// Handler is a tagged union over the three supported callback shapes:
// a plain callback, an editor-aware callback receiving the editor bridge,
// and a legacy execute callback.
type Handler struct {
	kind           handlerKind
	callback       func() error
	editorCallback func(ed *editor.Editor) error
}

// Callback builds a plain-callback handler.
func Callback(fn func() error) Handler {
	return Handler{kind: kindCallback, callback: fn}
}

// EditorCallback builds an editor-aware handler.
func EditorCallback(fn func(ed *editor.Editor) error) Handler {
	return Handler{kind: kindEditorCallback, editorCallback: fn}
}

// Legacy builds a handler from an old-style execute callback.
func Legacy(fn func() error) Handler {
	return Handler{kind: kindLegacy, callback: fn}
}

// Resolve selects one handler from the callback shapes a registration may
// supply, in fixed precedence order: editor-aware, then plain, then
// legacy. Returns ErrNoHandler when all three are nil.
func Resolve(editorFn func(ed *editor.Editor) error, plainFn, legacyFn func() error) (Handler, error) {
	switch {
	case editorFn != nil:
		return EditorCallback(editorFn), nil
	case plainFn != nil:
		return Callback(plainFn), nil
	case legacyFn != nil:
		return Legacy(legacyFn), nil
	}
	return Handler{}, ErrNoHandler
}

// invoke runs the active variant.
func (h Handler) invoke(ed *editor.Editor) error {
	switch h.kind {
	case kindEditorCallback:
		return h.editorCallback(ed)
	case kindCallback, kindLegacy:
		return h.callback()
	}
	return ErrNoHandler
}

// Binding associates a qualified id and owning plugin with a handler.
type Binding struct {
	ID       string
	PluginID string
	Shortcut string // canonical form; empty for command bindings
	Handler  Handler

	// serial distinguishes a binding from a later registration that
	// replaced it under the same key, so stale unregister closures stay
	// no-ops.
	serial uint64
}
