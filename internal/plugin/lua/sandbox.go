package lua

import (
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// HostModuleName is the virtual module name plugins require to reach the
// host API. It is served from memory, never from disk.
const HostModuleName = "inkwell"

// Sandbox strips code-loading escape hatches from a Lua state and replaces
// require with a shim that serves only the host module and safe builtins.
type Sandbox struct {
	L         *lua.LState
	preloaded *lua.LTable
}

// NewSandbox creates a sandbox for the state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{L: L, preloaded: L.NewTable()}
}

// Install applies the restrictions. Must run before any plugin code.
func (s *Sandbox) Install() {
	// Builtins that load arbitrary code bypass the sandbox entirely.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installRequire()
}

// safeBuiltins are gopher-lua built-in modules a plugin may still require
// by name even though they are already open as globals.
var safeBuiltins = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// installRequire replaces require with a whitelist shim. The host module
// is resolved from a registry populated by PreloadModule; everything else
// is rejected with a descriptive error so a plugin pulling in an npm-style
// dependency fails loudly at load time.
func (s *Sandbox) installRequire() {
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		if mod := L.GetField(s.preloaded, modName); mod != lua.LNil {
			L.Push(mod)
			return 1
		}

		if safeBuiltins[modName] {
			L.Push(L.GetGlobal(modName))
			return 1
		}

		L.RaiseError("module %q is not available; plugins may require only %q and the builtin string, table, and math libraries", modName, HostModuleName)
		return 0
	}))
}

// Preload registers a module table under name so require can serve it.
func (s *Sandbox) Preload(name string, mod lua.LValue) {
	s.L.SetField(s.preloaded, name, mod)
}

// RedirectPrint replaces print with a function that forwards to the host
// log, tagged with the plugin id. Plugin stdout is meaningless in a GUI
// host, so print output goes to the structured log instead.
func (s *Sandbox) RedirectPrint(pluginID string, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	plog := log.With("plugin", pluginID)

	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		plog.Info("plugin print", "message", strings.Join(parts, "\t"))
		return 0
	}))
}
