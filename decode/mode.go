// Package decode implements the ST7/ST8 fetch-decode-execute engine:
// prefix handling, opcode dispatch, and operand addressing for the
// mnemonic/addressing-mode matrix in spec.md §4.4.
package decode

// AddrMode enumerates the operand addressing forms of spec.md §4.4.
type AddrMode int

const (
	ModeImplied AddrMode = iota
	ModeImmed
	ModeShort
	ModeLong
	ModeRegInd
	ModeRegIndOffShort
	ModeRegIndOffLong
	ModeSPInd
	ModeFar
	ModeIndirShort
	ModeIndirLong
	ModeIndirShortOffY // prefix 0x91's ([short],Y) form
	ModeRelative       // signed 8-bit branch displacement
	ModeBitShort       // short direct address, bit number from opcode nibble
)

// Prefix identifies which of the five instruction tables a byte stream
// selects (spec.md §4.4's "Prefix semantics").
type Prefix int

const (
	PrefixNone Prefix = iota
	Prefix72          // ST8 superset
	Prefix90          // swap X<->Y
	Prefix91          // ([short],Y)
	Prefix92          // [short] / [short.w] indirect
)

// prefixByte returns the opcode byte that selects a prefix, used only
// for documentation/disassembly; decode itself tracks prefixes via the
// Cpu.Precode* flags, which is the authoritative state spec.md §3 names.
func prefixByte(p Prefix) (byte, bool) {
	switch p {
	case Prefix72:
		return 0x72, true
	case Prefix90:
		return 0x90, true
	case Prefix91:
		return 0x91, true
	case Prefix92:
		return 0x92, true
	default:
		return 0, false
	}
}
