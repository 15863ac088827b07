// Package lua runs plugin code inside sandboxed gopher-lua states. Each
// plugin owns one State for its whole loaded lifetime; closing the state
// on disable discards everything the plugin defined, so a re-enable
// starts from a clean interpreter.
package lua
