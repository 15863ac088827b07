package editor

import (
	"errors"
	"fmt"
	"log/slog"
)

// Editor option names plugins may read and write.
// Anything outside this allow-list is rejected with a warning.
const (
	OptionReadOnly    = "readOnly"
	OptionLineNumbers = "lineNumbers"
)

// ErrUnknownOption is returned when an option name is not on the allow-list.
var ErrUnknownOption = errors.New("editor: unknown option")

// Editor is the bridge plugins use to read and modify the buffer by
// line/column coordinates. It is independent of plugin loading and is
// consumed by command and shortcut handlers.
type Editor struct {
	buffer *Buffer
	log    *slog.Logger

	cursor    Position
	selAnchor Position
	selHead   Position
	selecting bool

	focused   bool
	scrollTop int

	options map[string]bool

	undoStack []snapshot
	redoStack []snapshot
}

// snapshot captures buffer content and cursor for undo/redo.
type snapshot struct {
	text   string
	cursor Position
}

// New creates an editor over an empty buffer.
func New(log *slog.Logger) *Editor {
	if log == nil {
		log = slog.Default()
	}
	return &Editor{
		buffer: NewBuffer(),
		log:    log.With("component", "editor"),
		options: map[string]bool{
			OptionReadOnly:    false,
			OptionLineNumbers: true,
		},
	}
}

// GetValue returns the whole buffer content.
func (e *Editor) GetValue() string {
	return e.buffer.Text()
}

// SetValue replaces the whole buffer content.
// The cursor position is preserved when the new content still contains
// it; otherwise it clamps to the nearest valid position.
func (e *Editor) SetValue(text string) {
	e.pushUndo()
	e.buffer.SetText(text)
	e.cursor = e.buffer.Clamp(e.cursor)
	e.clearSelection()
}

// GetLine returns the text of a line, or "" for an out-of-range index.
func (e *Editor) GetLine(n int) string {
	return e.buffer.Line(n)
}

// LineCount returns the number of lines in the buffer.
func (e *Editor) LineCount() int {
	return e.buffer.LineCount()
}

// GetRange returns the content between two positions.
func (e *Editor) GetRange(from, to Position) string {
	return e.buffer.TextRange(Range{From: from, To: to})
}

// ReplaceRange substitutes the content between two positions with text.
// The cursor moves to the end of the inserted text.
func (e *Editor) ReplaceRange(text string, from, to Position) {
	e.pushUndo()
	e.cursor = e.buffer.Replace(Range{From: from, To: to}, text)
	e.clearSelection()
}

// GetCursor returns the current cursor position.
func (e *Editor) GetCursor() Position {
	return e.cursor
}

// SetCursor moves the cursor, clamping to buffer bounds.
func (e *Editor) SetCursor(p Position) {
	e.cursor = e.buffer.Clamp(p)
	e.clearSelection()
}

// InsertAtCursor inserts text at the cursor position.
func (e *Editor) InsertAtCursor(text string) {
	e.pushUndo()
	e.cursor = e.buffer.Replace(Range{From: e.cursor, To: e.cursor}, text)
	e.clearSelection()
}

// GetSelection returns the selected text, or "" when nothing is selected.
func (e *Editor) GetSelection() string {
	if !e.selecting {
		return ""
	}
	return e.buffer.TextRange(Range{From: e.selAnchor, To: e.selHead})
}

// GetSelectionRange returns the selection span.
// With no selection, both ends equal the cursor position.
func (e *Editor) GetSelectionRange() Range {
	if !e.selecting {
		return Range{From: e.cursor, To: e.cursor}
	}
	return Range{From: e.selAnchor, To: e.selHead}.ordered()
}

// SetSelection selects the span between two positions.
func (e *Editor) SetSelection(from, to Position) {
	e.selAnchor = e.buffer.Clamp(from)
	e.selHead = e.buffer.Clamp(to)
	e.selecting = true
	e.cursor = e.selHead
}

// ReplaceSelection substitutes the selected text.
// With no selection, the text is inserted at the cursor.
func (e *Editor) ReplaceSelection(text string) {
	e.pushUndo()
	r := e.GetSelectionRange()
	e.cursor = e.buffer.Replace(r, text)
	e.clearSelection()
}

// ScrollToLine scrolls the viewport so the line is visible.
// The line index clamps to buffer bounds.
func (e *Editor) ScrollToLine(n int) {
	if n < 0 {
		n = 0
	}
	if max := e.buffer.LineCount() - 1; n > max {
		n = max
	}
	e.scrollTop = n
}

// ScrollTop returns the first visible line.
func (e *Editor) ScrollTop() int {
	return e.scrollTop
}

// Focus gives the editor keyboard focus.
func (e *Editor) Focus() {
	e.focused = true
}

// Blur removes keyboard focus.
func (e *Editor) Blur() {
	e.focused = false
}

// HasFocus returns true if the editor has keyboard focus.
func (e *Editor) HasFocus() bool {
	return e.focused
}

// Undo reverts the most recent change. Returns false with nothing to undo.
func (e *Editor) Undo() bool {
	if len(e.undoStack) == 0 {
		return false
	}
	snap := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.redoStack = append(e.redoStack, e.capture())
	e.restore(snap)
	return true
}

// Redo reapplies the most recently undone change.
func (e *Editor) Redo() bool {
	if len(e.redoStack) == 0 {
		return false
	}
	snap := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.undoStack = append(e.undoStack, e.capture())
	e.restore(snap)
	return true
}

// GetOption reads an allow-listed editor option.
func (e *Editor) GetOption(name string) (bool, error) {
	v, ok := e.options[name]
	if !ok {
		e.log.Warn("rejected unknown editor option", "option", name)
		return false, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	return v, nil
}

// SetOption writes an allow-listed editor option.
func (e *Editor) SetOption(name string, value bool) error {
	if _, ok := e.options[name]; !ok {
		e.log.Warn("rejected unknown editor option", "option", name)
		return fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	e.options[name] = value
	return nil
}

func (e *Editor) capture() snapshot {
	return snapshot{text: e.buffer.Text(), cursor: e.cursor}
}

func (e *Editor) restore(s snapshot) {
	e.buffer.SetText(s.text)
	e.cursor = e.buffer.Clamp(s.cursor)
	e.clearSelection()
}

func (e *Editor) pushUndo() {
	e.undoStack = append(e.undoStack, e.capture())
	e.redoStack = nil
}

func (e *Editor) clearSelection() {
	e.selecting = false
}
