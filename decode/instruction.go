package decode

// Family names an opcode family contract from spec.md §4.4.
type Family int

const (
	FamLD Family = iota
	FamLDF
	FamADD
	FamADC
	FamSUB
	FamSBC
	FamAND
	FamOR
	FamXOR
	FamBCP
	FamCP
	FamINC
	FamDEC
	FamNEG
	FamCLR
	FamCPL
	FamSLA
	FamSRA
	FamSRL
	FamRLC
	FamRRC
	FamSWAP
	FamTNZ
	FamPUSH
	FamPOP
	FamJP
	FamCALL
	FamCALLR
	FamCALLF
	FamRET
	FamRETF
	FamTRAP
	FamIRET
	FamWFI
	FamHALT
	FamNOP
	FamRSP
	FamRCF
	FamSCF
	FamCCF
	FamRIM
	FamSIM
	FamBranch
	FamBSET
	FamBRES
	FamBTJT
	FamBTJF
	FamMOVImmLong
	FamMOVShortShort
	FamMOVLongLong
	FamEXGW
	FamMUL
	FamDIV
)

// RegSel names which register an instruction reads or writes. Under
// Prefix90 ("swap X<->Y in addressing and in ALU", spec.md §4.4), RegX
// resolves to the Y register and RegY resolves to X; RegA is unaffected.
type RegSel int

const (
	RegNone RegSel = iota
	RegA
	RegX
	RegY
	RegCC
)

// Dir names whether an instruction's addressed operand flows into the
// selected register (Load) or the register flows out to the operand
// (Store). DirNone instructions only read the operand (CP, BCP, TNZ) or
// have no register operand at all (NOP, RET, branches).
type Dir int

const (
	DirNone Dir = iota
	DirLoad
	DirStore
)

// Cond names a branch condition from spec.md §4.4's branch table.
type Cond int

const (
	CondAlways Cond = iota
	CondNever
	CondC
	CondNC
	CondEQ
	CondNE
	CondH
	CondNH
	CondM
	CondNM
	CondMI
	CondPL
	CondUGT
	CondULE
)

// Instruction is one (prefix, opcode) table entry: the static contract
// the executor dispatches on. Bit is only meaningful for the bit-test/
// bit-manipulation families; Cond only for FamBranch.
type Instruction struct {
	Prefix  Prefix
	Opcode  byte
	Mnemonic string
	Family  Family
	Mode    AddrMode
	Reg     RegSel
	Dir     Dir
	Bit     int
	Cond    Cond
	Cycles  int
}
