// Package editor provides the text-buffer bridge exposed to plugins.
//
// Plugins address buffer content through line/column Positions rather than
// byte offsets. The bridge translates Positions against the live buffer,
// clamping out-of-range coordinates instead of failing, and exposes read,
// replace, cursor, selection, and history operations over a single buffer.
//
// The underlying rendering widget is not part of this package; the bridge
// only models the narrow position/range surface the widget is consumed
// through.
package editor
