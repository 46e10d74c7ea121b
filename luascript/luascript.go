// Package luascript embeds gopher-lua as the batch-automation surface
// SPEC_FULL.md describes: a Lua script drives the monitor through the
// same verbs a human types at the REPL, plus a couple of host functions
// for inspecting registers/memory and computing a CMAC directly, so a
// regression suite of firmware MAC vectors can run unattended.
//
// The teacher's go.mod already names gopher-lua as a dependency without
// exercising it anywhere in the retrieval pack — this package is that
// dependency's first real caller, built from the library's documented
// embedding conventions (lua.NewState/SetGlobal/NewFunction) rather than
// a pack example.
package luascript

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/tagsim/st7xiss/crypto/cmac"
	"github.com/tagsim/st7xiss/monitor"
)

// Engine is a Lua interpreter with the monitor's commands and a direct
// CMAC helper installed as globals.
type Engine struct {
	state *lua.LState
	mon   *monitor.Monitor
}

// New creates an engine bound to mon. Close must be called when done.
func New(mon *monitor.Monitor) *Engine {
	e := &Engine{state: lua.NewState(), mon: mon}
	e.install()
	return e
}

// Close releases the underlying Lua state.
func (e *Engine) Close() {
	e.state.Close()
}

// RunFile loads and executes a Lua script, satisfying monitor.ScriptRunner.
func (e *Engine) RunFile(path string) error {
	if err := e.state.DoFile(path); err != nil {
		return fmt.Errorf("luascript: %w", err)
	}
	return nil
}

func (e *Engine) install() {
	L := e.state
	L.SetGlobal("dispatch", L.NewFunction(e.luaDispatch))
	L.SetGlobal("step", L.NewFunction(e.luaStep))
	L.SetGlobal("run", L.NewFunction(e.luaRun))
	L.SetGlobal("reg", L.NewFunction(e.luaGetReg))
	L.SetGlobal("setreg", L.NewFunction(e.luaSetReg))
	L.SetGlobal("peek", L.NewFunction(e.luaPeek))
	L.SetGlobal("poke", L.NewFunction(e.luaPoke))
	L.SetGlobal("cmac", L.NewFunction(e.luaCmac))
	L.SetGlobal("log", L.NewFunction(e.luaLog))
}

// luaDispatch(cmd) runs one monitor command line exactly as a human
// would type it, e.g. dispatch("b $4200").
func (e *Engine) luaDispatch(L *lua.LState) int {
	e.mon.Dispatch(L.CheckString(1))
	return 0
}

// luaStep(n) steps n instructions (default 1).
func (e *Engine) luaStep(L *lua.LState) int {
	n := 1
	if L.GetTop() >= 1 {
		n = L.CheckInt(1)
	}
	e.mon.Dispatch(fmt.Sprintf("s %d", n))
	return 0
}

// luaRun() continues until a breakpoint or fault, mirroring the
// monitor's "g" command.
func (e *Engine) luaRun(L *lua.LState) int {
	e.mon.Dispatch("g")
	return 0
}

func (e *Engine) luaGetReg(L *lua.LState) int {
	name := L.CheckString(1)
	v, ok := e.mon.Cpu.GetRegister(name)
	if !ok {
		L.RaiseError("luascript: unknown register %q", name)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (e *Engine) luaSetReg(L *lua.LState) int {
	name := L.CheckString(1)
	v := L.CheckInt64(2)
	if !e.mon.Cpu.SetRegister(name, uint64(v)) {
		L.RaiseError("luascript: unknown register %q", name)
	}
	return 0
}

func (e *Engine) luaPeek(L *lua.LState) int {
	a := L.CheckInt64(1)
	v := e.mon.Access.LoadRaw(toAddress(a))
	L.Push(lua.LNumber(v))
	return 1
}

func (e *Engine) luaPoke(L *lua.LState) int {
	a := L.CheckInt64(1)
	v := L.CheckInt(2)
	e.mon.Access.StoreRaw(toAddress(a), byte(v))
	return 0
}

// luaCmac(param, keyHex, inputHex, length, prevHex) -> tagHex. A direct
// host-side CMAC call, bypassing the simulator entirely — the natural
// shape for batch-verifying dozens of (key, input, expected-tag) vectors
// without stepping firmware at all.
func (e *Engine) luaCmac(L *lua.LState) int {
	param := L.CheckInt(1)
	key, err := parseHexKey(L.CheckString(2))
	if err != nil {
		L.RaiseError("luascript: %s", err)
		return 0
	}
	input, err := parseHexBytes(L.CheckString(3))
	if err != nil {
		L.RaiseError("luascript: %s", err)
		return 0
	}
	length := L.CheckInt(4)
	var prev [16]byte
	if L.GetTop() >= 5 {
		p, err := parseHexKey(L.CheckString(5))
		if err != nil {
			L.RaiseError("luascript: %s", err)
			return 0
		}
		prev = p
	}
	engine, err := cmac.New(key)
	if err != nil {
		L.RaiseError("luascript: %s", err)
		return 0
	}
	tag, err := engine.Sign(param, input, length, prev)
	if err != nil {
		L.RaiseError("luascript: %s", err)
		return 0
	}
	L.Push(lua.LString(formatHex(tag[:])))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	fmt.Fprintln(e.mon.Out, L.CheckString(1))
	return 0
}
