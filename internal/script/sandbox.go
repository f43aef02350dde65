package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// openSafeLibraries opens the standard libraries hook scripts may use.
// io, os, debug, and package are never opened.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installSandbox removes the loaders the base library ships with and
// redirects print to the host sink.
func installSandbox(L *lua.LState, print func(string)) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		print(strings.Join(parts, "\t"))
		return 0
	}))

	installRequire(L)
}

// installRequire provides a require that only serves the opened libraries.
// The package library is not loaded, so this is the only loader scripts see.
func installRequire(L *lua.LState) {
	safe := map[string]bool{"string": true, "table": true, "math": true}

	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !safe[name] {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(L.GetGlobal(name))
		return 1
	}))
}
