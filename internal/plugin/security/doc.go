// Package security maps the permission strings a plugin declares in its
// manifest onto the host operations they gate. A plugin only reaches the
// filesystem, the network, or the clipboard through the host API, so the
// checker sits in front of those calls.
package security
