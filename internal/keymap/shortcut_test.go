package keymap

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "Ctrl+Shift+S", "Ctrl+Shift+S"},
		{"lowercase", "ctrl+shift+s", "Ctrl+Shift+S"},
		{"modifier order", "shift+ctrl+s", "Ctrl+Shift+S"},
		{"cmd alias", "cmd+k", "Cmd+K"},
		{"meta alias", "meta+k", "Cmd+K"},
		{"command alias", "command+k", "Cmd+K"},
		{"control alias", "control+a", "Ctrl+A"},
		{"option alias", "option+x", "Alt+X"},
		{"whitespace", " ctrl + k ", "Ctrl+K"},
		{"function key", "ctrl+f4", "Ctrl+F4"},
		{"named key", "ctrl+escape", "Ctrl+Escape"},
		{"bare key", "k", "K"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.raw); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	raws := []string{"ctrl+shift+s", "cmd+k", "Alt+option+Q", "f12"}
	for _, raw := range raws {
		once := Canonicalize(raw)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent: %q -> %q -> %q", raw, once, twice)
		}
	}
}

func TestCanonicalizeCommutativeOverModifiers(t *testing.T) {
	if Canonicalize("Ctrl+Shift+S") != Canonicalize("shift+ctrl+s") {
		t.Error("modifier order should not affect the canonical form")
	}
	if Canonicalize("alt+cmd+ctrl+p") != Canonicalize("ctrl+alt+cmd+p") {
		t.Error("modifier order should not affect the canonical form")
	}
}

func TestKeyEventPreventDefault(t *testing.T) {
	var ev KeyEvent
	if ev.DefaultPrevented() {
		t.Error("DefaultPrevented() = true on fresh event")
	}
	ev.PreventDefault()
	if !ev.DefaultPrevented() {
		t.Error("DefaultPrevented() = false after PreventDefault()")
	}
}
