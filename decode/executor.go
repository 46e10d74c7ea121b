package decode

import (
	"fmt"

	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/cpu"
)

// Executor ties the register file, address space, and opcode tables
// together into the single-instruction step function spec.md §4.5's
// RunLoop drives. It has no notion of breakpoints or run state itself;
// OnCall is the one hook runloop/breakpoint need (call-trap triggers
// fire on the target address of CALL/CALLR/CALLF, which only decode
// can see).
type Executor struct {
	Cpu    *cpu.Cpu
	Access *addr.Access
	OnCall func(target addr.Address)

	// OnExecuted fires once per completed (non-prefix) instruction, with
	// the (prefix, opcode) pair that ran — the breakpoint scoreboard's
	// only hook into decode (spec.md §3's per-prefix-class coverage
	// cells).
	OnExecuted func(prefix Prefix, opcode byte)
}

// NewExecutor wires a CPU and address-space/peripheral stack together.
func NewExecutor(c *cpu.Cpu, ac *addr.Access) *Executor {
	return &Executor{Cpu: c, Access: ac}
}

// Step executes exactly one instruction (or consumes exactly one prefix
// byte, leaving its Precode flag set for the next Step to see) and
// returns the cycle count spent. Every instruction on this target costs
// one cycle at 4MHz (spec.md §4.5's clocking note) regardless of
// addressing-mode length.
func (ex *Executor) Step() (int, error) {
	ex.Cpu.PreviousPC = ex.Cpu.PC
	ex.Cpu.PreviousSP = uint32(ex.Cpu.SP)

	prefix := ex.activePrefix()
	opByte, err := ex.fetchByte()
	if err != nil {
		return 0, err
	}

	if prefix == PrefixNone {
		if p, ok := prefixForByte(opByte); ok {
			ex.setPrecode(p)
			return 1, nil
		}
	}

	instr, ok := lookup(prefix, opByte)
	if !ok {
		return 0, fmt.Errorf("%w: prefix=%d opcode=0x%02X", ErrUnknownOpcode, prefix, opByte)
	}
	ex.clearPrecode(prefix)
	if ex.Cpu.AnyPrecodeSet() {
		return 0, ErrUnhandledPrefix
	}
	if ex.OnExecuted != nil {
		ex.OnExecuted(prefix, opByte)
	}

	op, err := ex.resolveOperand(instr.Mode, prefix)
	if err != nil {
		return 0, err
	}
	if err := ex.execute(instr, prefix, op); err != nil {
		return 0, err
	}
	return instr.Cycles, nil
}

func (ex *Executor) fetchByte() (byte, error) {
	b, err := ex.Access.Fetch(addr.Address(ex.Cpu.PC))
	if err != nil {
		return 0, err
	}
	ex.advancePC(1)
	return b, nil
}

func (ex *Executor) advancePC(n uint32) {
	page := ex.Cpu.PC &^ 0xFFFF
	offset := (ex.Cpu.PC&0xFFFF + n) & 0xFFFF
	ex.Cpu.PC = page | offset
}

func (ex *Executor) activePrefix() Prefix {
	switch {
	case ex.Cpu.Precode72:
		return Prefix72
	case ex.Cpu.Precode90:
		return Prefix90
	case ex.Cpu.Precode91:
		return Prefix91
	case ex.Cpu.Precode92:
		return Prefix92
	default:
		return PrefixNone
	}
}

func (ex *Executor) setPrecode(p Prefix) {
	switch p {
	case Prefix72:
		ex.Cpu.Precode72 = true
	case Prefix90:
		ex.Cpu.Precode90 = true
	case Prefix91:
		ex.Cpu.Precode91 = true
	case Prefix92:
		ex.Cpu.Precode92 = true
	}
}

func (ex *Executor) clearPrecode(p Prefix) {
	switch p {
	case Prefix72:
		ex.Cpu.Precode72 = false
	case Prefix90:
		ex.Cpu.Precode90 = false
	case Prefix91:
		ex.Cpu.Precode91 = false
	case Prefix92:
		ex.Cpu.Precode92 = false
	}
}

// PrefixForByte exposes prefixForByte to disassembly callers outside
// the package.
func PrefixForByte(b byte) (Prefix, bool) {
	return prefixForByte(b)
}

func prefixForByte(b byte) (Prefix, bool) {
	switch b {
	case 0x72:
		return Prefix72, true
	case 0x90:
		return Prefix90, true
	case 0x91:
		return Prefix91, true
	case 0x92:
		return Prefix92, true
	default:
		return PrefixNone, false
	}
}

// regPtr returns the register a Reg selector addresses, honoring the
// Prefix90 X<->Y swap.
func (ex *Executor) regPtr(r RegSel, prefix Prefix) *byte {
	switch r {
	case RegA:
		return &ex.Cpu.A
	case RegX:
		if prefix == Prefix90 {
			return &ex.Cpu.Y
		}
		return &ex.Cpu.X
	case RegY:
		if prefix == Prefix90 {
			return &ex.Cpu.X
		}
		return &ex.Cpu.Y
	default:
		return nil
	}
}

func (ex *Executor) push(v byte) {
	ex.Access.StoreRaw(addr.Address(ex.Cpu.SP), v)
	ex.Cpu.SP--
}

func (ex *Executor) pop() byte {
	ex.Cpu.SP++
	return ex.Access.LoadRaw(addr.Address(ex.Cpu.SP))
}

func (ex *Executor) pushWord(v uint32) {
	ex.push(byte(v >> 8))
	ex.push(byte(v))
}

func (ex *Executor) popWord() uint32 {
	lo := ex.pop()
	hi := ex.pop()
	return uint32(hi)<<8 | uint32(lo)
}
