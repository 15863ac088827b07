package editor

import (
	"errors"
	"testing"
)

func TestEditorGetReplaceRange(t *testing.T) {
	e := New(nil)
	e.SetValue("abcdef")

	if got := e.GetRange(Position{0, 0}, Position{0, 3}); got != "abc" {
		t.Errorf("GetRange = %q, want %q", got, "abc")
	}

	e.ReplaceRange("XY", Position{0, 0}, Position{0, 3})
	if got := e.GetLine(0); got != "XYdef" {
		t.Errorf("GetLine(0) = %q, want %q", got, "XYdef")
	}
}

func TestEditorSetValuePreservesCursor(t *testing.T) {
	e := New(nil)
	e.SetValue("one\ntwo\nthree")
	e.SetCursor(Position{1, 2})

	// New content still contains the cursor position.
	e.SetValue("aaa\nbbb\nccc")
	if got := e.GetCursor(); got != (Position{1, 2}) {
		t.Errorf("cursor = %v, want (1:2)", got)
	}

	// Shorter content clamps the cursor.
	e.SetValue("x")
	if got := e.GetCursor(); got != (Position{0, 1}) {
		t.Errorf("cursor = %v, want (0:1)", got)
	}
}

func TestEditorInsertAtCursor(t *testing.T) {
	e := New(nil)
	e.SetValue("hello world")
	e.SetCursor(Position{0, 5})

	e.InsertAtCursor(",")
	if got := e.GetValue(); got != "hello, world" {
		t.Errorf("GetValue() = %q, want %q", got, "hello, world")
	}
	if got := e.GetCursor(); got != (Position{0, 6}) {
		t.Errorf("cursor = %v, want (0:6)", got)
	}
}

func TestEditorSelection(t *testing.T) {
	e := New(nil)
	e.SetValue("abcdef")

	if got := e.GetSelection(); got != "" {
		t.Errorf("GetSelection() = %q before selecting, want empty", got)
	}

	e.SetSelection(Position{0, 1}, Position{0, 4})
	if got := e.GetSelection(); got != "bcd" {
		t.Errorf("GetSelection() = %q, want %q", got, "bcd")
	}

	r := e.GetSelectionRange()
	if r.From != (Position{0, 1}) || r.To != (Position{0, 4}) {
		t.Errorf("GetSelectionRange() = %v", r)
	}

	e.ReplaceSelection("X")
	if got := e.GetValue(); got != "aXef" {
		t.Errorf("GetValue() = %q, want %q", got, "aXef")
	}
}

func TestEditorUndoRedo(t *testing.T) {
	e := New(nil)
	e.SetValue("first")
	e.SetValue("second")

	if !e.Undo() {
		t.Fatal("Undo() = false, want true")
	}
	if got := e.GetValue(); got != "first" {
		t.Errorf("after undo = %q, want %q", got, "first")
	}

	if !e.Redo() {
		t.Fatal("Redo() = false, want true")
	}
	if got := e.GetValue(); got != "second" {
		t.Errorf("after redo = %q, want %q", got, "second")
	}
}

func TestEditorUndoEmpty(t *testing.T) {
	e := New(nil)
	if e.Undo() {
		t.Error("Undo() on fresh editor = true, want false")
	}
	if e.Redo() {
		t.Error("Redo() on fresh editor = true, want false")
	}
}

func TestEditorOptions(t *testing.T) {
	e := New(nil)

	if err := e.SetOption(OptionReadOnly, true); err != nil {
		t.Fatalf("SetOption(readOnly) error = %v", err)
	}
	v, err := e.GetOption(OptionReadOnly)
	if err != nil {
		t.Fatalf("GetOption(readOnly) error = %v", err)
	}
	if !v {
		t.Error("GetOption(readOnly) = false, want true")
	}

	if err := e.SetOption("vimMode", true); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("SetOption(vimMode) error = %v, want ErrUnknownOption", err)
	}
	if _, err := e.GetOption("theme"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("GetOption(theme) error = %v, want ErrUnknownOption", err)
	}
}

func TestEditorFocusAndScroll(t *testing.T) {
	e := New(nil)
	e.SetValue("a\nb\nc")

	if e.HasFocus() {
		t.Error("HasFocus() = true before Focus()")
	}
	e.Focus()
	if !e.HasFocus() {
		t.Error("HasFocus() = false after Focus()")
	}
	e.Blur()
	if e.HasFocus() {
		t.Error("HasFocus() = true after Blur()")
	}

	e.ScrollToLine(99)
	if got := e.ScrollTop(); got != 2 {
		t.Errorf("ScrollTop() = %d, want 2 (clamped)", got)
	}
	e.ScrollToLine(-5)
	if got := e.ScrollTop(); got != 0 {
		t.Errorf("ScrollTop() = %d, want 0 (clamped)", got)
	}
}
