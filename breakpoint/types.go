// Package breakpoint implements the four breakpoint kinds, the
// instruction-coverage scoreboard, and the condition-expression evaluator the
// monitor's `b`/`bc`/`bl` commands and the run loop rely on (spec.md
// §4.5).
package breakpoint

// Kind enumerates the breakpoint kinds spec.md §3 names.
type Kind int

const (
	KindInstrAddr Kind = iota
	KindDataRead
	KindDataWrite
	KindDataRW
	KindApplicationTrigger
	KindAnyCall
)

func (k Kind) String() string {
	switch k {
	case KindInstrAddr:
		return "instr"
	case KindDataRead:
		return "dataR"
	case KindDataWrite:
		return "dataW"
	case KindDataRW:
		return "dataRW"
	case KindApplicationTrigger:
		return "apptrig"
	case KindAnyCall:
		return "anycall"
	default:
		return "?"
	}
}

// Breakpoint is one table slot: `{used, enable, kind, address, value?,
// count?, terminal_count?, triggered}` per spec.md §3.
type Breakpoint struct {
	Used      bool
	Enable    bool
	Kind      Kind
	Address   uint32
	Condition *Condition // optional: parsed from a string like "A==$FF"

	Value         *byte   // optional: data breakpoints only match this byte value
	TerminalCount *uint64 // optional: auto-disable once Count reaches this

	Count     uint64 // hit count so far, readable as `hitcount` in a condition
	Triggered bool   // set by the memory-access path for data breakpoints
}

// matchesData reports whether this slot fires for the given access,
// ignoring any attached Condition (the engine checks that separately
// once it knows the slot structurally matched, so it can read live
// register/memory state at the right moment).
func (bp *Breakpoint) matchesData(addr uint32, isWrite bool, value byte) bool {
	if !bp.Used || !bp.Enable || bp.Address != addr {
		return false
	}
	if bp.Value != nil && *bp.Value != value {
		return false
	}
	switch bp.Kind {
	case KindDataRead:
		return !isWrite
	case KindDataWrite:
		return isWrite
	case KindDataRW:
		return true
	default:
		return false
	}
}

// tickTerminal increments Count and auto-disables the slot once it
// reaches TerminalCount, the optional "fire N times then stop arming"
// field spec.md §3's Breakpoint record names.
func (bp *Breakpoint) tickTerminal() {
	bp.Count++
	if bp.TerminalCount != nil && bp.Count >= *bp.TerminalCount {
		bp.Enable = false
	}
}
