package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/inkwell-editor/inkwell/internal/markdown"
)

// registerElementType installs the userdata metatable for DOM elements
// handed to markdown processors. Methods use colon-call style:
// el:addClass("math"), el:createEl("div", "diagram").
func (m *Module) registerElementType() {
	L := m.state.L
	mt := L.NewTypeMetatable(elementTypeName)
	index := L.NewTable()

	set := func(name string, fn lua.LGFunction) {
		L.SetField(index, name, L.NewFunction(fn))
	}

	set("tag", func(L *lua.LState) int {
		L.Push(lua.LString(checkElement(L).Tag()))
		return 1
	})
	set("text", func(L *lua.LState) int {
		L.Push(lua.LString(checkElement(L).Text()))
		return 1
	})
	set("setText", func(L *lua.LState) int {
		checkElement(L).SetText(L.CheckString(2))
		return 0
	})
	set("attr", func(L *lua.LState) int {
		L.Push(lua.LString(checkElement(L).Attr(L.CheckString(2))))
		return 1
	})
	set("setAttr", func(L *lua.LState) int {
		checkElement(L).SetAttr(L.CheckString(2), L.CheckString(3))
		return 0
	})
	set("hasClass", func(L *lua.LState) int {
		L.Push(lua.LBool(checkElement(L).HasClass(L.CheckString(2))))
		return 1
	})
	set("addClass", func(L *lua.LState) int {
		checkElement(L).AddClass(L.CheckString(2))
		return 0
	})
	set("createEl", func(L *lua.LState) int {
		child := checkElement(L).CreateEl(L.CheckString(2), L.OptString(3, ""))
		L.Push(m.wrapElement(child))
		return 1
	})
	set("parent", func(L *lua.LState) int {
		parent := checkElement(L).Parent()
		if parent == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(m.wrapElement(parent))
		return 1
	})
	set("children", func(L *lua.LState) int {
		tbl := L.NewTable()
		for _, child := range checkElement(L).Children() {
			tbl.Append(m.wrapElement(child))
		}
		L.Push(tbl)
		return 1
	})
	set("remove", func(L *lua.LState) int {
		checkElement(L).Remove()
		return 0
	})
	set("querySelectorAll", func(L *lua.LState) int {
		tbl := L.NewTable()
		for _, el := range checkElement(L).QuerySelectorAll(L.CheckString(2)) {
			tbl.Append(m.wrapElement(el))
		}
		L.Push(tbl)
		return 1
	})

	L.SetField(mt, "__index", index)
}

// wrapElement boxes an element as userdata carrying the element metatable.
func (m *Module) wrapElement(el *markdown.Element) *lua.LUserData {
	L := m.state.L
	ud := L.NewUserData()
	ud.Value = el
	L.SetMetatable(ud, L.GetTypeMetatable(elementTypeName))
	return ud
}

// checkElement extracts the element from the method receiver.
func checkElement(L *lua.LState) *markdown.Element {
	ud := L.CheckUserData(1)
	el, ok := ud.Value.(*markdown.Element)
	if !ok {
		L.ArgError(1, "expected element")
	}
	return el
}
