package lua

import "errors"

var (
	// ErrStateClosed is returned when an operation is attempted on a
	// closed Lua state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotTable is returned when a plugin's main chunk does not return
	// a table.
	ErrNotTable = errors.New("plugin main did not return a table")
)
