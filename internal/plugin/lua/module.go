package lua

import (
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/inkwell-editor/inkwell/internal/editor"
	"github.com/inkwell-editor/inkwell/internal/markdown"
	"github.com/inkwell-editor/inkwell/internal/plugin/api"
)

const elementTypeName = "inkwell.element"

// Module binds one plugin's host API into its Lua state. After
// InstallHostModule the plugin can `require("inkwell")` and reach the
// editor, registries, settings, and bridge through it.
type Module struct {
	state         *State
	api           *api.API
	log           *slog.Logger
	editorBinding *lua.LTable
}

// InstallHostModule builds the host module table for the plugin, preloads
// it under HostModuleName, and redirects print to the host log.
func InstallHostModule(state *State, hostAPI *api.API, log *slog.Logger) *Module {
	if log == nil {
		log = slog.Default()
	}
	m := &Module{
		state: state,
		api:   hostAPI,
		log:   log.With("plugin", hostAPI.PluginID()),
	}

	state.Sandbox().RedirectPrint(hostAPI.PluginID(), log)
	m.registerElementType()
	m.editorBinding = m.buildEditorBinding()
	state.Sandbox().Preload(HostModuleName, m.buildModule())
	return m
}

func (m *Module) buildModule() *lua.LTable {
	L := m.state.L
	mod := L.NewTable()

	L.SetField(mod, "editor", m.editorBinding)

	// Notices.
	L.SetField(mod, "notice", L.NewFunction(m.luaNotice))
	L.SetField(mod, "info", m.noticeFn(api.SeverityInfo))
	L.SetField(mod, "success", m.noticeFn(api.SeveritySuccess))
	L.SetField(mod, "warn", m.noticeFn(api.SeverityWarning))
	L.SetField(mod, "error", m.noticeFn(api.SeverityError))

	// Registrations.
	L.SetField(mod, "addCommand", L.NewFunction(m.luaAddCommand))
	L.SetField(mod, "addKeyboardShortcut", L.NewFunction(m.luaAddShortcut))
	L.SetField(mod, "addStatusBarItem", L.NewFunction(m.luaAddStatusBarItem))
	L.SetField(mod, "registerMarkdownPostProcessor", L.NewFunction(m.luaRegisterPostProcessor))
	L.SetField(mod, "registerMarkdownCodeBlockProcessor", L.NewFunction(m.luaRegisterCodeBlockProcessor))
	L.SetField(mod, "createSettingsTab", L.NewFunction(m.luaCreateSettingsTab))
	L.SetField(mod, "onCleanup", L.NewFunction(m.luaOnCleanup))

	// Settings.
	L.SetField(mod, "loadSettings", L.NewFunction(m.luaLoadSettings))
	L.SetField(mod, "saveSettings", L.NewFunction(m.luaSaveSettings))
	L.SetField(mod, "getSetting", L.NewFunction(m.luaGetSetting))
	L.SetField(mod, "setSetting", L.NewFunction(m.luaSetSetting))
	L.SetField(mod, "backupSettings", L.NewFunction(m.luaBackupSettings))

	// Bridge.
	L.SetField(mod, "readFile", L.NewFunction(m.luaReadFile))
	L.SetField(mod, "writeFile", L.NewFunction(m.luaWriteFile))
	L.SetField(mod, "readPluginFile", L.NewFunction(m.luaReadPluginFile))
	L.SetField(mod, "openExternal", L.NewFunction(m.luaOpenExternal))
	L.SetField(mod, "clipboardRead", L.NewFunction(m.luaClipboardRead))
	L.SetField(mod, "clipboardWrite", L.NewFunction(m.luaClipboardWrite))

	// Rendering.
	L.SetField(mod, "markdownToHTML", L.NewFunction(m.luaMarkdownToHTML))

	return mod
}

func pushErr(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

// luaUnregister wraps a Go unregister closure as a Lua function.
func luaUnregister(L *lua.LState, unregister func()) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		unregister()
		return 0
	})
}

// --- notices ---

var severityNames = map[string]api.Severity{
	"info":    api.SeverityInfo,
	"success": api.SeveritySuccess,
	"warning": api.SeverityWarning,
	"error":   api.SeverityError,
}

func (m *Module) luaNotice(L *lua.LState) int {
	message := L.CheckString(1)
	severity := api.SeverityInfo
	if name := L.OptString(2, ""); name != "" {
		sev, ok := severityNames[name]
		if !ok {
			L.ArgError(2, "unknown severity: "+name)
			return 0
		}
		severity = sev
	}
	m.api.Notify(severity, message)
	return 0
}

func (m *Module) noticeFn(severity api.Severity) *lua.LFunction {
	return m.state.L.NewFunction(func(L *lua.LState) int {
		m.api.Notify(severity, L.CheckString(1))
		return 0
	})
}

// --- registrations ---

// callbackFields extracts the handler callbacks from a registration spec
// table. editorCallback receives the editor binding table; callback and
// legacyCallback take no arguments.
func (m *Module) callbackFields(spec *lua.LTable) (editorFn func(*editor.Editor) error, plainFn, legacyFn func() error) {
	L := m.state.L

	if fn := L.GetField(spec, "editorCallback"); fn.Type() == lua.LTFunction {
		cb := fn
		editorFn = func(*editor.Editor) error {
			return m.state.InvokeCallback(cb, m.editorBinding)
		}
	}
	if fn := L.GetField(spec, "callback"); fn.Type() == lua.LTFunction {
		cb := fn
		plainFn = func() error {
			return m.state.InvokeCallback(cb)
		}
	}
	if fn := L.GetField(spec, "legacyCallback"); fn.Type() == lua.LTFunction {
		cb := fn
		legacyFn = func() error {
			return m.state.InvokeCallback(cb)
		}
	}
	return editorFn, plainFn, legacyFn
}

func (m *Module) luaAddCommand(L *lua.LState) int {
	spec := L.CheckTable(1)
	id := L.GetField(spec, "id").String()
	if id == "" || L.GetField(spec, "id") == lua.LNil {
		L.ArgError(1, "id is required")
		return 0
	}

	editorFn, plainFn, legacyFn := m.callbackFields(spec)
	unregister, err := m.api.AddCommand(id, editorFn, plainFn, legacyFn)
	if err != nil {
		return pushErr(L, err)
	}
	L.Push(luaUnregister(L, unregister))
	return 1
}

func (m *Module) luaAddShortcut(L *lua.LState) int {
	spec := L.CheckTable(1)
	key := L.GetField(spec, "key").String()
	if key == "" || L.GetField(spec, "key") == lua.LNil {
		L.ArgError(1, "key is required")
		return 0
	}
	id := L.GetField(spec, "id").String()
	if id == "" || L.GetField(spec, "id") == lua.LNil {
		L.ArgError(1, "id is required")
		return 0
	}

	editorFn, plainFn, legacyFn := m.callbackFields(spec)
	unregister, err := m.api.AddShortcut(key, id, editorFn, plainFn, legacyFn)
	if err != nil {
		return pushErr(L, err)
	}
	L.Push(luaUnregister(L, unregister))
	return 1
}

func (m *Module) luaAddStatusBarItem(L *lua.LState) int {
	spec := L.CheckTable(1)
	itemID := L.GetField(spec, "id").String()
	if itemID == "" || L.GetField(spec, "id") == lua.LNil {
		L.ArgError(1, "id is required")
		return 0
	}
	text := ""
	if v := L.GetField(spec, "text"); v != lua.LNil {
		text = v.String()
	}
	icon := ""
	if v := L.GetField(spec, "icon"); v != lua.LNil {
		icon = v.String()
	}

	var onClick func()
	if fn := L.GetField(spec, "onClick"); fn.Type() == lua.LTFunction {
		cb := fn
		onClick = func() {
			if err := m.state.InvokeCallback(cb); err != nil {
				m.log.Error("status bar onClick failed", "item", itemID, "error", err)
			}
		}
	}

	qualifiedID, unregister := m.api.AddStatusBarItem(itemID, text, icon, onClick)

	handle := L.NewTable()
	L.SetField(handle, "id", lua.LString(qualifiedID))
	L.SetField(handle, "setText", L.NewFunction(func(L *lua.LState) int {
		// tolerate both handle:setText(x) and handle.setText(x)
		text := L.CheckString(L.GetTop())
		L.Push(lua.LBool(m.api.StatusBarSetText(qualifiedID, text)))
		return 1
	}))
	L.SetField(handle, "remove", L.NewFunction(func(L *lua.LState) int {
		unregister()
		return 0
	}))
	L.Push(handle)
	return 1
}

func (m *Module) luaRegisterPostProcessor(L *lua.LState) int {
	fn := L.CheckFunction(1)
	cb := lua.LValue(fn)

	unregister := m.api.RegisterMarkdownPostProcessor(func(doc *markdown.Element) error {
		return m.state.InvokeCallback(cb, m.wrapElement(doc))
	})
	L.Push(luaUnregister(L, unregister))
	return 1
}

func (m *Module) luaRegisterCodeBlockProcessor(L *lua.LState) int {
	language := L.CheckString(1)
	fn := L.CheckFunction(2)
	cb := lua.LValue(fn)

	unregister := m.api.RegisterMarkdownCodeBlockProcessor(language, func(source string, parent *markdown.Element) error {
		return m.state.InvokeCallback(cb, lua.LString(source), m.wrapElement(parent))
	})
	L.Push(luaUnregister(L, unregister))
	return 1
}

// luaCreateSettingsTab registers a settings-tab builder. The callback
// receives a tab table with addHeading/addText/addToggle/addDropdown;
// it runs each time the host builds the tab, so the declared controls
// can follow the plugin's current state.
func (m *Module) luaCreateSettingsTab(L *lua.LState) int {
	fn := L.CheckFunction(1)
	cb := lua.LValue(fn)

	unregister := m.api.RegisterSettingsTab(func() ([]api.Control, error) {
		var controls []api.Control
		if err := m.state.InvokeCallback(cb, m.buildTabBinding(&controls)); err != nil {
			return nil, err
		}
		return controls, nil
	})
	L.Push(luaUnregister(L, unregister))
	return 1
}

// buildTabBinding returns the builder table handed to a settings-tab
// callback. Each method appends one declared control. The argument is
// read from the stack top so both tab.addText(spec) and
// tab:addText(spec) work.
func (m *Module) buildTabBinding(controls *[]api.Control) *lua.LTable {
	L := m.state.L
	tbl := L.NewTable()

	fieldString := func(spec *lua.LTable, key string) string {
		if v, ok := spec.RawGetString(key).(lua.LString); ok {
			return string(v)
		}
		return ""
	}
	controlFromSpec := func(kind api.ControlKind, spec *lua.LTable) api.Control {
		return api.Control{
			Kind:        kind,
			Key:         fieldString(spec, "key"),
			Label:       fieldString(spec, "label"),
			Description: fieldString(spec, "desc"),
			Placeholder: fieldString(spec, "placeholder"),
		}
	}

	L.SetField(tbl, "addHeading", L.NewFunction(func(L *lua.LState) int {
		*controls = append(*controls, api.Control{
			Kind:  api.ControlHeading,
			Label: L.CheckString(L.GetTop()),
		})
		return 0
	}))
	L.SetField(tbl, "addText", L.NewFunction(func(L *lua.LState) int {
		*controls = append(*controls, controlFromSpec(api.ControlText, L.CheckTable(L.GetTop())))
		return 0
	}))
	L.SetField(tbl, "addToggle", L.NewFunction(func(L *lua.LState) int {
		*controls = append(*controls, controlFromSpec(api.ControlToggle, L.CheckTable(L.GetTop())))
		return 0
	}))
	L.SetField(tbl, "addDropdown", L.NewFunction(func(L *lua.LState) int {
		spec := L.CheckTable(L.GetTop())
		control := controlFromSpec(api.ControlDropdown, spec)
		if opts, ok := spec.RawGetString("options").(*lua.LTable); ok {
			opts.ForEach(func(_, v lua.LValue) {
				control.Options = append(control.Options, v.String())
			})
		}
		*controls = append(*controls, control)
		return 0
	}))

	return tbl
}

func (m *Module) luaOnCleanup(L *lua.LState) int {
	fn := L.CheckFunction(1)
	cb := lua.LValue(fn)

	m.api.OnCleanup(func() {
		if err := m.state.InvokeCallback(cb); err != nil {
			m.log.Error("cleanup callback failed", "error", err)
		}
	})
	return 0
}

// --- settings ---

func (m *Module) luaLoadSettings(L *lua.LState) int {
	L.Push(RecordToLua(L, m.api.LoadSettings()))
	return 1
}

func (m *Module) luaSaveSettings(L *lua.LState) int {
	record := RecordToGo(L.CheckTable(1))
	if err := m.api.SaveSettings(record); err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// luaGetSetting returns one settings key, or the optional second
// argument as a default when the key is absent.
func (m *Module) luaGetSetting(L *lua.LState) int {
	key := L.CheckString(1)
	value, ok := m.api.LoadSettings()[key]
	if !ok {
		L.Push(L.Get(2)) // LNil when no default was given
		return 1
	}
	L.Push(ToLua(L, value))
	return 1
}

func (m *Module) luaSetSetting(L *lua.LState) int {
	key := L.CheckString(1)
	record := m.api.LoadSettings()
	record[key] = ToGo(L.Get(2))
	if err := m.api.SaveSettings(record); err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Module) luaBackupSettings(L *lua.LState) int {
	handle, err := m.api.BackupSettings()
	if err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LString(handle.Path))
	return 1
}

// --- bridge ---

func (m *Module) luaReadFile(L *lua.LState) int {
	content, err := m.api.ReadFile(L.CheckString(1))
	if err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LString(content))
	return 1
}

func (m *Module) luaWriteFile(L *lua.LState) int {
	if err := m.api.WriteFile(L.CheckString(1), L.CheckString(2)); err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Module) luaReadPluginFile(L *lua.LState) int {
	content, err := m.api.ReadPluginFile(L.CheckString(1))
	if err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LString(content))
	return 1
}

func (m *Module) luaOpenExternal(L *lua.LState) int {
	if err := m.api.OpenExternal(L.CheckString(1)); err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Module) luaClipboardRead(L *lua.LState) int {
	text, err := m.api.ClipboardRead()
	if err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LString(text))
	return 1
}

func (m *Module) luaClipboardWrite(L *lua.LState) int {
	if err := m.api.ClipboardWrite(L.CheckString(1)); err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// --- rendering ---

func (m *Module) luaMarkdownToHTML(L *lua.LState) int {
	html, err := m.api.MarkdownToHTML(L.CheckString(1))
	if err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LString(html))
	return 1
}
