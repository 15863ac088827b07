package lua

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/inkwell-editor/inkwell/internal/plugin/api"
)

// Instance is one plugin's live Lua runtime: the sandboxed state, the
// installed host module, and the table the plugin's main chunk returned.
type Instance struct {
	state  *State
	module *Module
	plugin *lua.LTable
	log    *slog.Logger
}

// Execute installs the host module into the state, runs the plugin's main
// chunk, and calls the returned table's optional onload method.
//
// The chunk must return a table; anything else fails with ErrNotTable.
// An onload error fails the load. On failure the state is left open so
// the caller can drain registrations the chunk already made before
// closing it.
func Execute(state *State, hostAPI *api.API, source, chunkName string, log *slog.Logger) (*Instance, error) {
	if log == nil {
		log = slog.Default()
	}

	module := InstallHostModule(state, hostAPI, log)

	result, err := state.EvalChunk(source, chunkName)
	if err != nil {
		return nil, err
	}

	tbl, ok := result.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w (got %s)", ErrNotTable, result.Type())
	}

	inst := &Instance{
		state:  state,
		module: module,
		plugin: tbl,
		log:    log.With("plugin", hostAPI.PluginID()),
	}

	if _, err := state.CallMethod(tbl, "onload"); err != nil {
		return nil, fmt.Errorf("onload: %w", err)
	}
	return inst, nil
}

// Unload calls the plugin table's optional onunload method. Errors are
// returned for logging; unload proceeds regardless.
func (i *Instance) Unload() error {
	ran, err := i.state.CallMethod(i.plugin, "onunload")
	if err != nil {
		return fmt.Errorf("onunload: %w", err)
	}
	if ran {
		i.log.Debug("onunload completed")
	}
	return nil
}

// State returns the instance's Lua state.
func (i *Instance) State() *State {
	return i.state
}

// Plugin returns the table the plugin's main chunk returned.
func (i *Instance) Plugin() *lua.LTable {
	return i.plugin
}
