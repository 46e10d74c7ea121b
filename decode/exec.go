package decode

import (
	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/cpu"
)

// execute runs the effect of one decoded instruction against the
// already-resolved operand. Register-family instructions (LD/ADD/... A,
// and the PUSH/POP register set) read instr.Reg through regPtr, which
// folds in the Prefix90 X<->Y swap; memory-destination instructions use
// op.Load/op.Store directly.
func (ex *Executor) execute(instr Instruction, prefix Prefix, op Operand) error {
	switch instr.Family {
	case FamLD, FamLDF:
		return ex.execLD(instr, prefix, op)

	case FamADD:
		ex.Cpu.Add(op.Load(ex.Access))
	case FamADC:
		ex.Cpu.Adc(op.Load(ex.Access))
	case FamSUB:
		ex.Cpu.Sub(op.Load(ex.Access))
	case FamSBC:
		ex.Cpu.Sbc(op.Load(ex.Access))
	case FamAND:
		ex.Cpu.A &= op.Load(ex.Access)
		ex.Cpu.SetNZ(ex.Cpu.A)
	case FamOR:
		ex.Cpu.A |= op.Load(ex.Access)
		ex.Cpu.SetNZ(ex.Cpu.A)
	case FamXOR:
		ex.Cpu.A ^= op.Load(ex.Access)
		ex.Cpu.SetNZ(ex.Cpu.A)
	case FamBCP:
		ex.Cpu.SetNZ(ex.Cpu.A & op.Load(ex.Access))
	case FamCP:
		v := op.Load(ex.Access)
		ex.Cpu.SetC(ex.Cpu.A < v)
		ex.Cpu.SetNZ(ex.Cpu.A - v)

	case FamINC:
		v := ex.readRW(instr, prefix, op) + 1
		ex.Cpu.SetNZ(v)
		ex.writeRW(instr, prefix, op, v)
	case FamDEC:
		v := ex.readRW(instr, prefix, op) - 1
		ex.Cpu.SetNZ(v)
		ex.writeRW(instr, prefix, op, v)
	case FamNEG:
		v := ex.readRW(instr, prefix, op)
		ex.Cpu.SetC(v != 0)
		nv := byte(0) - v
		ex.Cpu.SetNZ(nv)
		ex.writeRW(instr, prefix, op, nv)
	case FamCLR:
		ex.writeRW(instr, prefix, op, 0)
		ex.Cpu.SetZ(true)
		ex.Cpu.SetN(false)
	case FamCPL:
		v := ^ex.readRW(instr, prefix, op)
		ex.Cpu.SetC(true)
		ex.Cpu.SetNZ(v)
		ex.writeRW(instr, prefix, op, v)
	case FamSWAP:
		v := ex.readRW(instr, prefix, op)
		nv := (v << 4) | (v >> 4)
		ex.Cpu.SetNZ(nv)
		ex.writeRW(instr, prefix, op, nv)
	case FamTNZ:
		ex.Cpu.SetNZ(ex.readRW(instr, prefix, op))
	case FamSLA:
		v := ex.readRW(instr, prefix, op)
		ex.writeRW(instr, prefix, op, ex.Cpu.Sla(v))
	case FamSRA:
		v := ex.readRW(instr, prefix, op)
		ex.writeRW(instr, prefix, op, ex.Cpu.Sra(v))
	case FamSRL:
		v := ex.readRW(instr, prefix, op)
		ex.writeRW(instr, prefix, op, ex.Cpu.Srl(v))
	case FamRLC:
		v := ex.readRW(instr, prefix, op)
		ex.writeRW(instr, prefix, op, ex.Cpu.Rlc(v))
	case FamRRC:
		v := ex.readRW(instr, prefix, op)
		ex.writeRW(instr, prefix, op, ex.Cpu.Rrc(v))

	case FamPUSH:
		ex.push(ex.regValue(instr.Reg, prefix))
	case FamPOP:
		v := ex.pop()
		if instr.Reg == RegCC {
			ex.Cpu.CC = v
		} else {
			*ex.regPtr(instr.Reg, prefix) = v
			ex.Cpu.SetNZ(v)
		}

	case FamJP:
		ex.jumpTo(op.Addr)
	case FamCALL, FamCALLR:
		target := op.Addr
		if instr.Family == FamCALLR {
			off := (int32(ex.Cpu.PC&0xFFFF) + int32(int8(op.Imm))) & 0xFFFF
			target = addr.Address((ex.Cpu.PC &^ 0xFFFF) | uint32(off))
		}
		ret := ex.Cpu.PC & 0xFFFF
		ex.pushWord(ret)
		if ex.OnCall != nil {
			ex.OnCall(target)
		}
		ex.jumpTo(target)
	case FamCALLF:
		page := (ex.Cpu.PC >> 16) & 1
		ex.push(byte(page))
		ex.pushWord(ex.Cpu.PC & 0xFFFF)
		if ex.OnCall != nil {
			ex.OnCall(op.Addr)
		}
		ex.jumpTo(op.Addr)
	case FamRET:
		off := ex.popWord()
		target := (ex.Cpu.PC &^ 0xFFFF) | off
		if !addr.Classify(addr.Address(target)).IsCode() {
			return addr.ErrFetchFromNonCodeRegion
		}
		ex.Cpu.PC = target
	case FamRETF:
		off := ex.popWord()
		pg := uint32(ex.pop()) & 1
		target := pg<<16 | off
		if !addr.Classify(addr.Address(target)).IsCode() {
			return addr.ErrFetchFromNonCodeRegion
		}
		ex.Cpu.PC = target
	case FamTRAP:
		ex.pushWord(ex.Cpu.PC & 0xFFFF)
		ex.push(ex.Cpu.CC)
		ex.Cpu.SetI1(true)
	case FamIRET:
		ex.Cpu.CC = ex.pop()
		off := ex.popWord()
		ex.Cpu.PC = (ex.Cpu.PC &^ 0xFFFF) | off

	case FamWFI:
		ex.Cpu.Mode = cpu.ModeWaiting
	case FamHALT:
		ex.Cpu.Mode = cpu.ModeHalted
	case FamNOP:
		// no-op

	case FamRSP:
		ex.Cpu.SP = 0x03FF
	case FamRCF:
		ex.Cpu.SetC(false)
	case FamSCF:
		ex.Cpu.SetC(true)
	case FamCCF:
		ex.Cpu.SetC(!ex.Cpu.C())
	case FamRIM:
		ex.Cpu.SetI1(false)
	case FamSIM:
		ex.Cpu.SetI1(true)

	case FamBranch:
		if ex.evalCond(instr.Cond) {
			ex.branchTake(op.Imm)
		}

	case FamBSET:
		v := ex.Access.Load(op.Addr)
		ex.Access.Store(op.Addr, v|(1<<uint(instr.Bit)))
	case FamBRES:
		v := ex.Access.Load(op.Addr)
		ex.Access.Store(op.Addr, v&^(1<<uint(instr.Bit)))
	case FamBTJT, FamBTJF:
		return ex.execBTJ(instr, op)

	case FamMOVImmLong:
		return ex.execMOVImmLong()
	case FamMOVShortShort:
		return ex.execMOVShortShort()
	case FamMOVLongLong:
		return ex.execMOVLongLong()

	case FamEXGW:
		ex.Cpu.X, ex.Cpu.Y = ex.Cpu.Y, ex.Cpu.X
	case FamMUL:
		rx := ex.regPtr(RegX, prefix)
		product := uint16(*rx) * uint16(ex.Cpu.A)
		*rx = byte(product >> 8)
		ex.Cpu.A = byte(product)
		ex.Cpu.SetC(false)
	case FamDIV:
		ex.Cpu.Div(ex.Cpu.Y)

	default:
		return ErrUnknownOpcode
	}
	return nil
}

func (ex *Executor) execLD(instr Instruction, prefix Prefix, op Operand) error {
	if instr.Dir == DirStore {
		v := *ex.regPtr(instr.Reg, prefix)
		op.Store(ex.Access, v)
		ex.Cpu.SetNZ(v)
		return nil
	}
	v := op.Load(ex.Access)
	*ex.regPtr(instr.Reg, prefix) = v
	ex.Cpu.SetNZ(v)
	return nil
}

// readRW/writeRW handle the read-modify-write families (INC/DEC/NEG/
// CLR/CPL/SWAP/TNZ/shifts/rotates), which target either a register (A,
// via ModeImplied+Reg) or a memory operand.
func (ex *Executor) readRW(instr Instruction, prefix Prefix, op Operand) byte {
	if instr.Mode == ModeImplied && instr.Reg != RegNone {
		return *ex.regPtr(instr.Reg, prefix)
	}
	return op.Load(ex.Access)
}

func (ex *Executor) writeRW(instr Instruction, prefix Prefix, op Operand, v byte) {
	if instr.Mode == ModeImplied && instr.Reg != RegNone {
		*ex.regPtr(instr.Reg, prefix) = v
		return
	}
	op.Store(ex.Access, v)
}

func (ex *Executor) regValue(r RegSel, prefix Prefix) byte {
	if r == RegCC {
		return ex.Cpu.CC
	}
	return *ex.regPtr(r, prefix)
}

func (ex *Executor) jumpTo(a addr.Address) {
	ex.Cpu.PC = uint32(a)
}

// branchTake applies a signed relative displacement to PC, as every
// conditional and unconditional branch in spec.md §4.4 does.
func (ex *Executor) branchTake(disp byte) {
	page := ex.Cpu.PC &^ 0xFFFF
	offset := int32(ex.Cpu.PC&0xFFFF) + int32(int8(disp))
	ex.Cpu.PC = page | (uint32(offset) & 0xFFFF)
}

func (ex *Executor) execBTJ(instr Instruction, op Operand) error {
	v := ex.Access.Load(op.Addr)
	bitSet := v&(1<<uint(instr.Bit)) != 0
	disp, err := ex.fetchByte()
	if err != nil {
		return err
	}
	take := bitSet
	if instr.Family == FamBTJF {
		take = !bitSet
	}
	if take {
		ex.branchTake(disp)
	}
	return nil
}

func (ex *Executor) currentPage() uint32 {
	return (ex.Cpu.PC >> 16) & 1
}

func (ex *Executor) execMOVImmLong() error {
	imm, err := ex.fetchByte()
	if err != nil {
		return err
	}
	hi, err := ex.fetchByte()
	if err != nil {
		return err
	}
	lo, err := ex.fetchByte()
	if err != nil {
		return err
	}
	dst := withPage(ex.currentPage(), uint32(hi)<<8|uint32(lo))
	ex.Access.Store(dst, imm)
	return nil
}

func (ex *Executor) execMOVShortShort() error {
	src, err := ex.fetchByte()
	if err != nil {
		return err
	}
	dst, err := ex.fetchByte()
	if err != nil {
		return err
	}
	page := ex.currentPage()
	v := ex.Access.Load(withPage(page, uint32(src)))
	ex.Access.Store(withPage(page, uint32(dst)), v)
	return nil
}

func (ex *Executor) execMOVLongLong() error {
	srcHi, err := ex.fetchByte()
	if err != nil {
		return err
	}
	srcLo, err := ex.fetchByte()
	if err != nil {
		return err
	}
	dstHi, err := ex.fetchByte()
	if err != nil {
		return err
	}
	dstLo, err := ex.fetchByte()
	if err != nil {
		return err
	}
	page := ex.currentPage()
	v := ex.Access.Load(withPage(page, uint32(srcHi)<<8|uint32(srcLo)))
	ex.Access.Store(withPage(page, uint32(dstHi)<<8|uint32(dstLo)), v)
	return nil
}
