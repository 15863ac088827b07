package lua

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestSandboxStripsLoaders(t *testing.T) {
	s := NewState()
	defer s.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		if got := s.L.GetGlobal(name); got != lua.LNil {
			t.Errorf("%s still present: %v", name, got)
		}
	}
}

func TestSandboxSafeBuiltinsAvailable(t *testing.T) {
	s := NewState()
	defer s.Close()

	err := s.DoString(`
		local str = require("string")
		assert(str.upper("ab") == "AB")
		assert(require("table") ~= nil)
		assert(require("math").floor(1.5) == 1)
	`)
	if err != nil {
		t.Fatalf("DoString: %v", err)
	}
}

func TestSandboxRejectsUnknownModule(t *testing.T) {
	s := NewState()
	defer s.Close()

	err := s.DoString(`require("socket")`)
	if err == nil {
		t.Fatal("require of unknown module succeeded")
	}
	if !strings.Contains(err.Error(), "not available") {
		t.Errorf("error = %v, want module rejection", err)
	}
}

func TestSandboxIoOsAbsent(t *testing.T) {
	s := NewState()
	defer s.Close()

	err := s.DoString(`
		assert(io == nil, "io should not be open")
		assert(os == nil, "os should not be open")
		assert(debug == nil, "debug should not be open")
	`)
	if err != nil {
		t.Fatalf("DoString: %v", err)
	}
}

func TestPreloadServedByRequire(t *testing.T) {
	s := NewState()
	defer s.Close()

	mod := s.L.NewTable()
	s.L.SetField(mod, "answer", lua.LNumber(42))
	s.Sandbox().Preload(HostModuleName, mod)

	err := s.DoString(`
		local inkwell = require("inkwell")
		assert(inkwell.answer == 42)
	`)
	if err != nil {
		t.Fatalf("DoString: %v", err)
	}
}

func TestStateClosedErrors(t *testing.T) {
	s := NewState()
	s.Close()

	if err := s.DoString("return 1"); err != ErrStateClosed {
		t.Errorf("DoString after close = %v, want ErrStateClosed", err)
	}
	if !s.IsClosed() {
		t.Error("IsClosed = false after close")
	}
	// double close is a no-op
	s.Close()
}

func TestEvalChunkReturnsFirstValue(t *testing.T) {
	s := NewState()
	defer s.Close()

	v, err := s.EvalChunk("return 7, 8", "test")
	if err != nil {
		t.Fatalf("EvalChunk: %v", err)
	}
	if n, ok := v.(lua.LNumber); !ok || n != 7 {
		t.Errorf("EvalChunk = %v, want 7", v)
	}

	v, err = s.EvalChunk("local x = 1", "test")
	if err != nil {
		t.Fatalf("EvalChunk: %v", err)
	}
	if v != lua.LNil {
		t.Errorf("EvalChunk no-return = %v, want nil", v)
	}
}

func TestEvalChunkCompileError(t *testing.T) {
	s := NewState()
	defer s.Close()

	if _, err := s.EvalChunk("return ((", "broken"); err == nil {
		t.Fatal("compile error not reported")
	}
}
