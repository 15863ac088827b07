package keymap

import "strings"

// Modifier tokens in canonical form, in canonical order.
const (
	modCtrl  = "Ctrl"
	modShift = "Shift"
	modAlt   = "Alt"
	modCmd   = "Cmd"
)

// modifierAlias maps lowercase modifier spellings to their canonical token.
var modifierAlias = map[string]string{
	"ctrl":    modCtrl,
	"control": modCtrl,
	"shift":   modShift,
	"alt":     modAlt,
	"option":  modAlt,
	"cmd":     modCmd,
	"meta":    modCmd,
	"command": modCmd,
}

// modifierOrder fixes the position of each modifier in a canonical
// shortcut, making canonicalization commutative over modifier order.
var modifierOrder = map[string]int{
	modCtrl:  0,
	modShift: 1,
	modAlt:   2,
	modCmd:   3,
}

// Canonicalize normalizes a free-form shortcut string into its canonical
// lookup key: tokens are split on "+", trimmed, modifier aliases are
// resolved, modifiers are sorted into a fixed order, and every remaining
// token is title-cased.
//
// Canonicalize is idempotent: Canonicalize(Canonicalize(s)) == Canonicalize(s).
func Canonicalize(raw string) string {
	parts := strings.Split(raw, "+")

	mods := make([]string, 0, len(parts))
	keys := make([]string, 0, 1)
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		if canonical, ok := modifierAlias[strings.ToLower(token)]; ok {
			mods = append(mods, canonical)
			continue
		}
		keys = append(keys, titleCase(token))
	}

	// Insertion sort by fixed modifier order; the slice has at most four
	// entries.
	for i := 1; i < len(mods); i++ {
		for j := i; j > 0 && modifierOrder[mods[j]] < modifierOrder[mods[j-1]]; j-- {
			mods[j], mods[j-1] = mods[j-1], mods[j]
		}
	}

	return strings.Join(append(mods, keys...), "+")
}

// titleCase uppercases the first rune of a token and lowercases the rest,
// so "s", "S", "esc", and "f4" become "S", "S", "Esc", and "F4".
func titleCase(token string) string {
	lower := strings.ToLower(token)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// KeyEvent is the key event passed to ExecuteShortcut. The registry
// suppresses the event's default action only when a binding existed for
// the shortcut.
type KeyEvent struct {
	defaultPrevented bool
}

// PreventDefault suppresses the event's default action.
func (e *KeyEvent) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented returns true if the default action was suppressed.
func (e *KeyEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}
