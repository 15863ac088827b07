package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/inkwell-editor/inkwell/internal/editor"
)

// posToLua converts a buffer position to a {line=, ch=} table. Both
// coordinates are zero-based, matching the editing surface.
func posToLua(L *lua.LState, p editor.Position) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("line", lua.LNumber(p.Line))
	tbl.RawSetString("ch", lua.LNumber(p.Ch))
	return tbl
}

// checkPos reads a {line=, ch=} table argument. Missing fields default
// to zero.
func checkPos(L *lua.LState, n int) editor.Position {
	tbl := L.CheckTable(n)
	p := editor.Position{}
	if v, ok := tbl.RawGetString("line").(lua.LNumber); ok {
		p.Line = int(v)
	}
	if v, ok := tbl.RawGetString("ch").(lua.LNumber); ok {
		p.Ch = int(v)
	}
	return p
}

// buildEditorBinding exposes the shared editor to Lua as a table of
// functions. Out-of-range positions are clamped by the editor, so Lua
// code cannot corrupt the buffer with bad coordinates.
func (m *Module) buildEditorBinding() *lua.LTable {
	L := m.state.L
	ed := func() *editor.Editor { return m.api.Editor() }
	tbl := L.NewTable()

	set := func(name string, fn lua.LGFunction) {
		L.SetField(tbl, name, L.NewFunction(fn))
	}

	set("getValue", func(L *lua.LState) int {
		L.Push(lua.LString(ed().GetValue()))
		return 1
	})
	set("setValue", func(L *lua.LState) int {
		ed().SetValue(L.CheckString(1))
		return 0
	})
	set("getLine", func(L *lua.LState) int {
		L.Push(lua.LString(ed().GetLine(L.CheckInt(1))))
		return 1
	})
	set("lineCount", func(L *lua.LState) int {
		L.Push(lua.LNumber(ed().LineCount()))
		return 1
	})
	set("getRange", func(L *lua.LState) int {
		L.Push(lua.LString(ed().GetRange(checkPos(L, 1), checkPos(L, 2))))
		return 1
	})
	set("replaceRange", func(L *lua.LState) int {
		ed().ReplaceRange(L.CheckString(1), checkPos(L, 2), checkPos(L, 3))
		return 0
	})
	set("getCursor", func(L *lua.LState) int {
		L.Push(posToLua(L, ed().GetCursor()))
		return 1
	})
	set("setCursor", func(L *lua.LState) int {
		ed().SetCursor(checkPos(L, 1))
		return 0
	})
	set("insertAtCursor", func(L *lua.LState) int {
		ed().InsertAtCursor(L.CheckString(1))
		return 0
	})
	set("getSelection", func(L *lua.LState) int {
		L.Push(lua.LString(ed().GetSelection()))
		return 1
	})
	set("getSelectionRange", func(L *lua.LState) int {
		r := ed().GetSelectionRange()
		tbl := L.NewTable()
		tbl.RawSetString("from", posToLua(L, r.From))
		tbl.RawSetString("to", posToLua(L, r.To))
		L.Push(tbl)
		return 1
	})
	set("setSelection", func(L *lua.LState) int {
		ed().SetSelection(checkPos(L, 1), checkPos(L, 2))
		return 0
	})
	set("replaceSelection", func(L *lua.LState) int {
		ed().ReplaceSelection(L.CheckString(1))
		return 0
	})
	set("scrollToLine", func(L *lua.LState) int {
		ed().ScrollToLine(L.CheckInt(1))
		return 0
	})
	set("focus", func(L *lua.LState) int {
		ed().Focus()
		return 0
	})
	set("blur", func(L *lua.LState) int {
		ed().Blur()
		return 0
	})
	set("hasFocus", func(L *lua.LState) int {
		L.Push(lua.LBool(ed().HasFocus()))
		return 1
	})
	set("undo", func(L *lua.LState) int {
		L.Push(lua.LBool(ed().Undo()))
		return 1
	})
	set("redo", func(L *lua.LState) int {
		L.Push(lua.LBool(ed().Redo()))
		return 1
	})
	set("getOption", func(L *lua.LState) int {
		value, err := ed().GetOption(L.CheckString(1))
		if err != nil {
			return pushErr(L, err)
		}
		L.Push(lua.LBool(value))
		return 1
	})
	set("setOption", func(L *lua.LState) int {
		if err := ed().SetOption(L.CheckString(1), L.CheckBool(2)); err != nil {
			return pushErr(L, err)
		}
		L.Push(lua.LTrue)
		return 1
	})

	return tbl
}
