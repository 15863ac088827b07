// Package keymap implements the command and keyboard-shortcut registry.
//
// Shortcut strings are free-form ("Ctrl+Shift+S", "cmd+k") and are
// canonicalized before storage and lookup, so two spellings that differ
// only in case or modifier order resolve to the same binding. Dispatch is
// fail-safe: a handler that returns an error or panics is logged and
// reported as not executed, never propagated to the caller.
package keymap
