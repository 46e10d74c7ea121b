package breakpoint

import (
	"fmt"

	"github.com/tagsim/st7xiss/addr"
)

// Engine holds the four breakpoint-kind tables of spec.md §4.5: up to 8
// instruction breakpoints, a single always-on application trigger, up to
// 8 data breakpoints, and a call trap. It does not itself decide what a
// "stop" means — runloop maps a hit to the matching tagged stop reason.
type Engine struct {
	Instr      [8]Breakpoint
	AppTrigger Breakpoint
	Data       [8]Breakpoint

	CallTrapEnabled bool
	callPending     bool

	Scoreboard *Scoreboard
}

// NewEngine returns an engine with all slots cleared.
func NewEngine() *Engine {
	return &Engine{Scoreboard: NewScoreboard()}
}

// SetInstr arms instruction breakpoint slot i. cond may be nil.
func (e *Engine) SetInstr(i int, address uint32, cond *Condition) error {
	if i < 0 || i >= len(e.Instr) {
		return fmt.Errorf("breakpoint: instr slot %d out of range", i)
	}
	e.Instr[i] = Breakpoint{Used: true, Enable: true, Kind: KindInstrAddr, Address: address, Condition: cond}
	return nil
}

// ClearInstr disarms slot i.
func (e *Engine) ClearInstr(i int) error {
	if i < 0 || i >= len(e.Instr) {
		return fmt.Errorf("breakpoint: instr slot %d out of range", i)
	}
	e.Instr[i] = Breakpoint{}
	return nil
}

// SetApp arms the single application-trigger slot — used to mark "the
// current command handler has returned" (spec.md §4.5).
func (e *Engine) SetApp(address uint32) {
	e.AppTrigger = Breakpoint{Used: true, Enable: true, Kind: KindApplicationTrigger, Address: address}
}

// ClearApp disarms the application trigger.
func (e *Engine) ClearApp() {
	e.AppTrigger = Breakpoint{}
}

// SetData arms data breakpoint slot i with a direction kind (DataRead,
// DataWrite, or DataRW).
func (e *Engine) SetData(i int, address uint32, kind Kind, cond *Condition) error {
	if i < 0 || i >= len(e.Data) {
		return fmt.Errorf("breakpoint: data slot %d out of range", i)
	}
	e.Data[i] = Breakpoint{Used: true, Enable: true, Kind: kind, Address: address, Condition: cond}
	return nil
}

// ClearData disarms data slot i.
func (e *Engine) ClearData(i int) error {
	if i < 0 || i >= len(e.Data) {
		return fmt.Errorf("breakpoint: data slot %d out of range", i)
	}
	e.Data[i] = Breakpoint{}
	return nil
}

// CheckInstr evaluates instruction and application-trigger breakpoints
// against the PC about to be fetched. Hit counts accumulate on every
// structural address match, even when an attached condition suppresses
// the actual stop — so `hitcount>N`-style conditions can fire later.
func (e *Engine) CheckInstr(pc uint32, regs RegisterReader, mem MemReader) (Kind, bool) {
	for i := range e.Instr {
		if k, hit := checkOne(&e.Instr[i], pc, regs, mem); hit {
			return k, true
		}
	}
	if k, hit := checkOne(&e.AppTrigger, pc, regs, mem); hit {
		return k, true
	}
	return KindInstrAddr, false
}

func checkOne(bp *Breakpoint, pc uint32, regs RegisterReader, mem MemReader) (Kind, bool) {
	if !bp.Used || !bp.Enable || bp.Address != pc {
		return bp.Kind, false
	}
	bp.tickTerminal()
	if bp.Condition == nil {
		return bp.Kind, true
	}
	ok, err := bp.Condition.Eval(regs, mem, bp.Count)
	return bp.Kind, err == nil && ok
}

// DataWatch returns the addr.DataWatch hook Access.OnAccess should call
// on every data load/store. It only records that a matching slot's
// Triggered flag should be raised; CheckData (called once per
// instruction, per spec.md §4.5) consumes those flags.
func (e *Engine) DataWatch() addr.DataWatch {
	return func(a addr.Address, isWrite bool, value byte) {
		target := uint32(a)
		for i := range e.Data {
			bp := &e.Data[i]
			if bp.matchesData(target, isWrite, value) {
				bp.Triggered = true
			}
		}
	}
}

// CheckData consumes any Triggered flags raised since the last call,
// evaluating attached conditions, and reports whether the run loop
// should stop with DataBreak.
func (e *Engine) CheckData(regs RegisterReader, mem MemReader) bool {
	hit := false
	for i := range e.Data {
		bp := &e.Data[i]
		if !bp.Triggered {
			continue
		}
		bp.Triggered = false
		bp.tickTerminal()
		if bp.Condition == nil {
			hit = true
			continue
		}
		if ok, err := bp.Condition.Eval(regs, mem, bp.Count); err == nil && ok {
			hit = true
		}
	}
	return hit
}

// MarkCall records that the instruction just executed was a call —
// decode.Executor.OnCall wires here. CheckCall consumes it.
func (e *Engine) MarkCall(target uint32) {
	if e.CallTrapEnabled {
		e.callPending = true
	}
}

// CheckCall reports (and clears) whether a call trap is pending.
func (e *Engine) CheckCall() bool {
	hit := e.callPending
	e.callPending = false
	return hit
}
