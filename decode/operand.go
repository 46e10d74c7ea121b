package decode

import "github.com/tagsim/st7xiss/addr"

// Operand is a resolved addressing-mode result: either an addressable
// location (Addr valid) or an immediate/relative value carried in Imm.
type Operand struct {
	Mode AddrMode
	Addr addr.Address
	Imm  byte
}

// Load reads the operand's value, treating ModeImmed/ModeRelative as
// carrying their value directly rather than through memory.
func (o Operand) Load(ac *addr.Access) byte {
	if o.Mode == ModeImmed || o.Mode == ModeRelative {
		return o.Imm
	}
	return ac.Load(o.Addr)
}

// Store writes v to the operand's addressed location. Callers never
// invoke Store on an immediate/relative operand.
func (o Operand) Store(ac *addr.Access, v byte) {
	ac.Store(o.Addr, v)
}

// withPage folds the current fetch page into a 16-bit offset, so that
// RAM/IO/XIO operands (shared across both pages, spec.md §4.1) and code
// operands alike land in the page the instruction stream is executing
// from.
func withPage(page uint32, offset uint32) addr.Address {
	return addr.Address((page << 16) | (offset & 0xFFFF))
}

func addPage1(a addr.Address) addr.Address {
	page := uint32(a) &^ 0xFFFF
	return addr.Address(page | ((uint32(a) + 1) & 0xFFFF))
}

// resolveOperand consumes the bytes an addressing mode needs from the
// instruction stream (via fetchByte) and returns the resolved location.
// prefix is the active index-register prefix (for RegInd/RegIndOff
// forms); it does not affect ModeFar/ModeSPInd/ModeRelative.
func (ex *Executor) resolveOperand(mode AddrMode, prefix Prefix) (Operand, error) {
	page := (ex.Cpu.PC >> 16) & 1
	switch mode {
	case ModeImplied:
		return Operand{Mode: mode}, nil

	case ModeImmed:
		b, err := ex.fetchByte()
		return Operand{Mode: mode, Imm: b}, err

	case ModeShort, ModeBitShort:
		b, err := ex.fetchByte()
		return Operand{Mode: mode, Addr: withPage(page, uint32(b))}, err

	case ModeLong:
		hi, err := ex.fetchByte()
		if err != nil {
			return Operand{}, err
		}
		lo, err := ex.fetchByte()
		a := uint32(hi)<<8 | uint32(lo)
		return Operand{Mode: mode, Addr: withPage(page, a)}, err

	case ModeRegInd:
		idx := ex.indexValue(prefix)
		return Operand{Mode: mode, Addr: withPage(page, uint32(idx))}, nil

	case ModeRegIndOffShort:
		disp, err := ex.fetchByte()
		idx := ex.indexValue(prefix)
		a := (uint32(idx) + uint32(disp)) & 0xFFFF
		return Operand{Mode: mode, Addr: withPage(page, a)}, err

	case ModeRegIndOffLong:
		hi, err := ex.fetchByte()
		if err != nil {
			return Operand{}, err
		}
		lo, err := ex.fetchByte()
		idx := ex.indexValue(prefix)
		a := (uint32(idx) + uint32(hi)<<8 + uint32(lo)) & 0xFFFF
		return Operand{Mode: mode, Addr: withPage(page, a)}, err

	case ModeSPInd:
		disp, err := ex.fetchByte()
		a := (uint32(ex.Cpu.SP) + uint32(disp)) & 0xFFFF
		return Operand{Mode: mode, Addr: addr.Address(a)}, err

	case ModeFar:
		pg, err := ex.fetchByte()
		if err != nil {
			return Operand{}, err
		}
		hi, err := ex.fetchByte()
		if err != nil {
			return Operand{}, err
		}
		lo, err := ex.fetchByte()
		a := uint32(pg&1)<<16 | uint32(hi)<<8 | uint32(lo)
		return Operand{Mode: mode, Addr: addr.Address(a)}, err

	case ModeIndirShort:
		ptr, err := ex.fetchByte()
		if err != nil {
			return Operand{}, err
		}
		pa := withPage(page, uint32(ptr))
		hi := ex.Access.Load(pa)
		lo := ex.Access.Load(addPage1(pa))
		final := uint32(hi)<<8 | uint32(lo)
		return Operand{Mode: mode, Addr: withPage(page, final)}, nil

	case ModeIndirLong:
		hi0, err := ex.fetchByte()
		if err != nil {
			return Operand{}, err
		}
		lo0, err := ex.fetchByte()
		if err != nil {
			return Operand{}, err
		}
		pa := withPage(page, uint32(hi0)<<8|uint32(lo0))
		hi := ex.Access.Load(pa)
		lo := ex.Access.Load(addPage1(pa))
		final := uint32(hi)<<8 | uint32(lo)
		return Operand{Mode: mode, Addr: withPage(page, final)}, nil

	case ModeIndirShortOffY:
		ptr, err := ex.fetchByte()
		if err != nil {
			return Operand{}, err
		}
		pa := withPage(page, uint32(ptr))
		hi := ex.Access.Load(pa)
		lo := ex.Access.Load(addPage1(pa))
		final := (uint32(hi)<<8 | uint32(lo)) + uint32(ex.Cpu.Y)
		return Operand{Mode: mode, Addr: withPage(page, final&0xFFFF)}, nil

	case ModeRelative:
		disp, err := ex.fetchByte()
		return Operand{Mode: mode, Imm: disp}, err

	default:
		return Operand{}, ErrUnknownMode
	}
}

// OperandByteLen reports how many bytes a mode consumes after the
// opcode byte, for disassembly purposes (resolveOperand is the
// authoritative consumer; this mirrors its byte counts without touching
// memory so a disassembler can advance over unexecuted code).
func OperandByteLen(mode AddrMode) int {
	switch mode {
	case ModeImplied, ModeRegInd:
		return 0
	case ModeImmed, ModeShort, ModeBitShort, ModeRegIndOffShort,
		ModeSPInd, ModeIndirShort, ModeIndirShortOffY, ModeRelative:
		return 1
	case ModeLong, ModeRegIndOffLong, ModeIndirLong:
		return 2
	case ModeFar:
		return 3
	default:
		return 0
	}
}

// indexValue returns X, or Y when Prefix90 is active — the "swap X<->Y
// in addressing" rule of spec.md §4.4.
func (ex *Executor) indexValue(prefix Prefix) byte {
	if prefix == Prefix90 {
		return ex.Cpu.Y
	}
	return ex.Cpu.X
}

// indexPtr returns a pointer to the register indexValue reads from, so
// writers (e.g. none currently — index registers are never addressing
// destinations) could update it in place if a future family needs to.
func (ex *Executor) indexPtr(prefix Prefix) *byte {
	if prefix == Prefix90 {
		return &ex.Cpu.Y
	}
	return &ex.Cpu.X
}
