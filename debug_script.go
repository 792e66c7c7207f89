// debug_script.go - Lua scripting for debugger conditions and automated runs.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// DebugScripts exposes a DebuggableCPU to Lua scripts run from the
// debugger's "script" command, for conditional breakpoint actions and
// scripted test sequences more complex than the addr==value grammar
// ParseCondition understands ("dump registers every 1000 steps until r2
// goes negative", say).
type DebugScripts struct {
	cpu DebuggableCPU
}

// NewDebugScripts records cpu; each RunFile call wires its
// register/memory/step surface into a fresh Lua environment's global
// functions.
func NewDebugScripts(cpu DebuggableCPU) *DebugScripts {
	return &DebugScripts{cpu: cpu}
}

// RunFile loads and executes a Lua script with psxcore's debugger
// functions available as globals: reg(name), setreg(name, value), pc(),
// step(n), mem(addr), poke(addr, value), running().
func (s *DebugScripts) RunFile(path string) error {
	L := lua.NewState()
	defer L.Close()
	s.register(L)

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("debug script: %w", err)
	}
	return nil
}

func (s *DebugScripts) register(L *lua.LState) {
	L.SetGlobal("reg", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		v, ok := s.cpu.GetRegister(name)
		if !ok {
			L.RaiseError("unknown register %q", name)
			return 0
		}
		L.Push(lua.LNumber(v))
		return 1
	}))

	L.SetGlobal("setreg", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		value := L.CheckInt64(2)
		s.cpu.SetRegister(name, uint64(value))
		return 0
	}))

	L.SetGlobal("pc", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(s.cpu.GetPC()))
		return 1
	}))

	L.SetGlobal("step", L.NewFunction(func(L *lua.LState) int {
		n := 1
		if L.GetTop() >= 1 {
			n = L.CheckInt(1)
		}
		cycles := 0
		for i := 0; i < n; i++ {
			cycles += s.cpu.Step()
		}
		L.Push(lua.LNumber(cycles))
		return 1
	}))

	L.SetGlobal("mem", L.NewFunction(func(L *lua.LState) int {
		addr := L.CheckInt64(1)
		data := s.cpu.ReadMemory(uint64(addr), 1)
		v := 0
		if len(data) == 1 {
			v = int(data[0])
		}
		L.Push(lua.LNumber(v))
		return 1
	}))

	L.SetGlobal("poke", L.NewFunction(func(L *lua.LState) int {
		addr := L.CheckInt64(1)
		value := L.CheckInt(2)
		s.cpu.WriteMemory(uint64(addr), []byte{byte(value)})
		return 0
	}))

	L.SetGlobal("running", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(s.cpu.IsRunning()))
		return 1
	}))
}
