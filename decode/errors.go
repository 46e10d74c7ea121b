package decode

import "errors"

var (
	// ErrUnknownMode is an internal-consistency guard: every table entry
	// is built with a mode resolveOperand knows how to handle.
	ErrUnknownMode = errors.New("decode: unknown addressing mode")

	// ErrUnknownOpcode fires when a (prefix, opcode) pair has no table
	// entry — an undefined instruction byte, per spec.md §4.4.
	ErrUnknownOpcode = errors.New("decode: unknown opcode")

	// ErrUnhandledPrefix fires when a prefix byte's Precode flag is still
	// set after the instruction it was meant to modify has executed —
	// the defensive invariant spec.md §4.4 calls out explicitly.
	ErrUnhandledPrefix = errors.New("decode: unhandled prefix")
)
