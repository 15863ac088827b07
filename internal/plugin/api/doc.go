// Package api assembles the host surface a loaded plugin sees. A Factory
// holds the shared host services; ForPlugin carves out a per-plugin view
// that namespaces every registration under the plugin id, gates privileged
// calls on the plugin's declared permissions, and records each unregister
// closure so disabling the plugin drops everything in one pass.
package api
