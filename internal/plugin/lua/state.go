package lua

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Default limits for a plugin state.
const (
	DefaultExecutionTimeout = 5 * time.Second // best-effort, long native loops cannot be interrupted
	DefaultCallStackSize    = 128
)

// State wraps a sandboxed gopher-lua interpreter owned by one plugin.
//
// LState is not goroutine-safe. The mutex serializes access from Go; Lua
// execution itself is single-threaded.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	sandbox          *Sandbox
	closed           atomic.Bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the best-effort timeout for Lua calls.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// NewState creates a sandboxed Lua state: only the base, table, string,
// and math libraries are opened, code-loading builtins are stripped, and
// require is replaced with a shim that serves the host module plus safe
// builtins.
func NewState(opts ...StateOption) *State {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: DefaultCallStackSize,
	})
	state.L = L

	openSafeLibraries(L)

	state.sandbox = NewSandbox(L)
	state.sandbox.Install()

	return state
}

// openSafeLibraries opens only the Lua standard libraries a plugin may use.
// io, os, debug, and package stay closed: plugins reach the outside world
// through the host module only.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Sandbox returns the state's sandbox.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// DoString compiles and runs a Lua chunk, discarding return values.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrStateClosed
	}
	defer s.applyDeadline()()
	return s.withRecovery(func() error {
		return s.L.DoString(code)
	})
}

// EvalChunk compiles and runs a Lua chunk and returns its first return
// value, or lua.LNil if the chunk returns nothing. The chunk name appears
// in Lua tracebacks.
func (s *State) EvalChunk(code, name string) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return lua.LNil, ErrStateClosed
	}
	defer s.applyDeadline()()

	fn, err := s.L.LoadString(code)
	if err != nil {
		return lua.LNil, fmt.Errorf("compile %s: %w", name, err)
	}

	top := s.L.GetTop()
	s.L.Push(fn)

	if err := s.pcallRecovered(0, lua.MultRet); err != nil {
		return lua.LNil, fmt.Errorf("run %s: %w", name, err)
	}

	nRet := s.L.GetTop() - top
	if nRet <= 0 {
		return lua.LNil, nil
	}
	result := s.L.Get(top + 1)
	s.L.Pop(nRet)
	return result, nil
}

// CallValue invokes a Lua function value with the given arguments,
// discarding return values. Errors raised in Lua and Go panics both come
// back as errors.
func (s *State) CallValue(fn lua.LValue, args ...lua.LValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrStateClosed
	}
	if fn == lua.LNil {
		return fmt.Errorf("not a function: nil")
	}
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("not a function: %s", fn.Type())
	}
	defer s.applyDeadline()()

	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}
	return s.pcallRecovered(len(args), 0)
}

// CallMethod invokes obj[method](obj, args...) if the method exists.
// Returns (false, nil) when the method is absent or nil.
func (s *State) CallMethod(obj *lua.LTable, method string, args ...lua.LValue) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return false, ErrStateClosed
	}

	fn := s.L.GetField(obj, method)
	if fn == lua.LNil {
		return false, nil
	}
	if fn.Type() != lua.LTFunction {
		return false, fmt.Errorf("%s is not a function (got %s)", method, fn.Type())
	}
	defer s.applyDeadline()()

	s.L.Push(fn)
	s.L.Push(obj)
	for _, arg := range args {
		s.L.Push(arg)
	}
	if err := s.pcallRecovered(len(args)+1, 0); err != nil {
		return true, err
	}
	return true, nil
}

// applyDeadline arms the execution timeout on the interpreter and
// returns the disarm. Only top-level entry points set a deadline;
// nested callback invocations run under the outer call's budget.
func (s *State) applyDeadline() func() {
	if s.executionTimeout <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.executionTimeout)
	s.L.SetContext(ctx)
	return func() {
		s.L.RemoveContext()
		cancel()
	}
}

// pcallRecovered runs PCall with panic recovery. Callers must hold s.mu
// and have pushed the function and arguments already.
func (s *State) pcallRecovered(nargs, nret int) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return s.L.PCall(nargs, nret, nil)
}

func (s *State) withRecovery(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return fn()
}

// InvokeCallback calls a Lua function captured from plugin code,
// discarding return values. Unlike CallValue it does not take the state
// lock: callbacks run on the goroutine that owns the state and may fire
// nested inside an outer Lua call (a post-processor triggered by a render
// the plugin itself requested), where locking would self-deadlock.
func (s *State) InvokeCallback(fn lua.LValue, args ...lua.LValue) error {
	if s.closed.Load() {
		return ErrStateClosed
	}
	if fn == lua.LNil || fn.Type() != lua.LTFunction {
		return fmt.Errorf("not a function: %s", fn.Type())
	}

	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}
	return s.pcallRecovered(len(args), 0)
}

// IsClosed reports whether the state has been closed.
func (s *State) IsClosed() bool {
	return s.closed.Load()
}

// Close tears down the interpreter. Safe to call twice.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return
	}
	s.L.Close()
	s.closed.Store(true)
}
