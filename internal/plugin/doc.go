// Package plugin implements the plugin lifecycle: discovering installed
// plugins from disk, enabling them in sandboxed Lua states, and tearing
// them down so that nothing a plugin registered survives its disable.
package plugin
