package runloop

import (
	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/breakpoint"
	"github.com/tagsim/st7xiss/cpu"
	"github.com/tagsim/st7xiss/decode"
)

// ProbeFunc runs when execution reaches a programmed probe point
// (spec.md §4.5's "notable locations in the firmware" note). It never
// stops execution — only the run loop's caller decides whether to log.
type ProbeFunc func(rl *RunLoop)

type memAdapter struct{ access *addr.Access }

func (m memAdapter) Load(a uint32) byte { return m.access.Load(addr.Address(a)) }

// RunLoop is the single-threaded cooperative driver of spec.md §4.6: it
// owns no memory or registers itself, only the stepping/run/step-over
// state machine layered over an Executor and a breakpoint Engine.
type RunLoop struct {
	Cpu    *cpu.Cpu
	Access *addr.Access
	Exec   *decode.Executor
	BP     *breakpoint.Engine

	State      State
	CycleCount uint64

	Probes      map[uint32]ProbeFunc
	lastWasCall bool

	mem memAdapter
}

const clockFrequencyHz = 4_000_000

// New wires an Executor and Engine into a RunLoop and installs the
// call-trap hook the Executor needs (spec.md §4.5's call-trap kind).
func New(c *cpu.Cpu, ac *addr.Access, ex *decode.Executor, bp *breakpoint.Engine) *RunLoop {
	rl := &RunLoop{
		Cpu: c, Access: ac, Exec: ex, BP: bp,
		Probes: make(map[uint32]ProbeFunc),
		mem:    memAdapter{access: ac},
	}
	ex.OnCall = func(target addr.Address) {
		bp.MarkCall(uint32(target))
		rl.lastWasCall = true
	}
	ex.OnExecuted = func(prefix decode.Prefix, opcode byte) {
		bp.Scoreboard.Record(int(prefix), opcode)
	}
	return rl
}

// AddProbe registers pc as a programmed probe point.
func (rl *RunLoop) AddProbe(pc uint32, fn ProbeFunc) {
	rl.Probes[pc] = fn
}

// CycleNanos converts the accumulated cycle count to elapsed simulated
// time, per spec.md §4.4's `cycles × (1s / clock_frequency)` rule.
func (rl *RunLoop) CycleNanos() uint64 {
	return rl.CycleCount * uint64(1_000_000_000/clockFrequencyHz)
}

// singleInstruction drives decode.Executor.Step until a full logical
// instruction (prefix bytes included) has executed, per spec.md §4.6's
// "step() executes exactly one instruction (including prefix bytes,
// which form a single logical instruction)".
func (rl *RunLoop) singleInstruction() (int, error) {
	total := 0
	for {
		c, err := rl.Exec.Step()
		total += c
		if err != nil {
			return total, err
		}
		if !rl.Cpu.AnyPrecodeSet() {
			return total, nil
		}
	}
}

func (rl *RunLoop) checkProbes() {
	if fn, ok := rl.Probes[rl.Cpu.PC]; ok {
		fn(rl)
	}
}

func stopReasonForKind(k breakpoint.Kind) StopReason {
	if k == breakpoint.KindApplicationTrigger {
		return ApplicationBreak
	}
	return InstrBreak
}

// Step executes exactly one instruction and evaluates every breakpoint
// kind in the order spec.md §4.5 lists them: instruction/application,
// then data, then call trap.
func (rl *RunLoop) Step() Result {
	rl.lastWasCall = false
	cycles, err := rl.singleInstruction()
	rl.CycleCount += uint64(cycles)
	if err != nil {
		rl.State = Stopped
		return Result{Reason: AbnormalTermination, Err: err, CyclesUsed: cycles}
	}
	rl.checkProbes()

	if kind, hit := rl.BP.CheckInstr(rl.Cpu.PC, rl.Cpu, rl.mem); hit {
		rl.State = Stopped
		return Result{Reason: stopReasonForKind(kind), CyclesUsed: cycles}
	}
	if rl.BP.CheckData(rl.Cpu, rl.mem) {
		rl.State = Stopped
		return Result{Reason: DataBreak, CyclesUsed: cycles}
	}
	if rl.BP.CheckCall() {
		rl.State = Stopped
		return Result{Reason: CallBreak, CyclesUsed: cycles}
	}
	return Result{Reason: NoStop, CyclesUsed: cycles}
}

// Run executes until a breakpoint fires, a fatal condition occurs, or
// interrupt() reports a pending user keypress. interrupt is polled once
// per step, per spec.md §5's single-poll-per-step concurrency rule.
func (rl *RunLoop) Run(interrupt func() bool) Result {
	rl.State = Running
	total := 0
	for {
		if interrupt != nil && interrupt() {
			rl.State = Stopped
			return Result{Reason: UserBreak, CyclesUsed: total}
		}
		res := rl.Step()
		total += res.CyclesUsed
		if res.Reason != NoStop {
			res.CyclesUsed = total
			return res
		}
	}
}

// StepOver executes one instruction; if it was a call, it continues
// (tracing silenced, breakpoints not consulted) until the stack pointer
// returns to its pre-call value, per spec.md §4.6.
func (rl *RunLoop) StepOver(interrupt func() bool) Result {
	preCallSP := rl.Cpu.SP
	res := rl.Step()
	if res.Reason != NoStop || !rl.lastWasCall {
		return res
	}

	rl.State = SteppingOver
	traced := rl.Exec.OnExecuted
	rl.Exec.OnExecuted = func(prefix decode.Prefix, opcode byte) {
		rl.BP.Scoreboard.Record(int(prefix), opcode)
	}
	defer func() { rl.Exec.OnExecuted = traced }()
	total := res.CyclesUsed
	for rl.Cpu.SP != preCallSP {
		if interrupt != nil && interrupt() {
			rl.State = Stopped
			return Result{Reason: UserBreak, CyclesUsed: total}
		}
		cycles, err := rl.singleInstruction()
		rl.CycleCount += uint64(cycles)
		total += cycles
		if err != nil {
			rl.State = Stopped
			return Result{Reason: AbnormalTermination, Err: err, CyclesUsed: total}
		}
		rl.checkProbes()
	}
	rl.State = Stopped
	return Result{Reason: NoStop, CyclesUsed: total}
}
