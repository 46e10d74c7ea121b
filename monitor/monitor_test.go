package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/breakpoint"
	"github.com/tagsim/st7xiss/cpu"
	"github.com/tagsim/st7xiss/decode"
	"github.com/tagsim/st7xiss/runloop"
)

func TestParseCommandSplitsVerbAndLowersIt(t *testing.T) {
	cmd := ParseCommand("  B $4010 A==1 ")
	if cmd.Name != "b" {
		t.Errorf("Name = %q, want %q", cmd.Name, "b")
	}
	if len(cmd.Args) != 2 || cmd.Args[0] != "$4010" || cmd.Args[1] != "A==1" {
		t.Errorf("Args = %v, want [$4010 A==1]", cmd.Args)
	}
}

func TestParseCommandEmptyInput(t *testing.T) {
	if cmd := ParseCommand("   "); cmd.Name != "" {
		t.Errorf("Name = %q, want empty", cmd.Name)
	}
}

func TestParseAddressForms(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"$4010", 0x4010, true},
		{"0x4010", 0x4010, true},
		{"0X4010", 0x4010, true},
		{"4010", 0x4010, true},
		{"#100", 100, true},
		{"", 0, false},
		{"$zz", 0, false},
		{"#abc", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseAddress(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseAddress(%q) = (%#x, %v), want (%#x, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestEvalAddressRegisterOnly(t *testing.T) {
	c := cpu.New()
	c.PC = 0x4020
	got, ok := EvalAddress("pc", c)
	if !ok || got != 0x4020 {
		t.Errorf("EvalAddress(pc) = (%#x, %v), want (0x4020, true)", got, ok)
	}
}

func TestEvalAddressRegisterPlusLiteral(t *testing.T) {
	c := cpu.New()
	c.PC = 0x4000
	got, ok := EvalAddress("pc+$10", c)
	if !ok || got != 0x4010 {
		t.Errorf("EvalAddress(pc+$10) = (%#x, %v), want (0x4010, true)", got, ok)
	}
}

func TestEvalAddressLiteralMinusLiteral(t *testing.T) {
	got, ok := EvalAddress("$4010-$10", nil)
	if !ok || got != 0x4000 {
		t.Errorf("EvalAddress($4010-$10) = (%#x, %v), want (0x4000, true)", got, ok)
	}
}

func TestEvalAddressUnknownTokenFails(t *testing.T) {
	if _, ok := EvalAddress("not-an-address", nil); ok {
		t.Error("expected EvalAddress to fail on an unparseable token")
	}
}

func TestEvalAddressEmptyFails(t *testing.T) {
	if _, ok := EvalAddress("", nil); ok {
		t.Error("expected EvalAddress to fail on empty input")
	}
}

// rig wires a Monitor over a real simulator instance, the same way
// cmd/st7xiss/main.go does, so Dispatch exercises the full command path.
type rig struct {
	m   *Monitor
	out *bytes.Buffer
}

func newRig() *rig {
	space := addr.NewSpace()
	ac := addr.NewAccess(space, nil)
	c := cpu.New()
	ex := decode.NewExecutor(c, ac)
	bp := breakpoint.NewEngine()
	rl := runloop.New(c, ac, ex, bp)
	out := &bytes.Buffer{}
	m := New(c, space, ac, ex, rl, bp, out)
	return &rig{m: m, out: out}
}

func (r *rig) lastOutput() string {
	s := r.out.String()
	r.out.Reset()
	return s
}

func TestDispatchRegistersShowsAndSets(t *testing.T) {
	r := newRig()
	r.m.Dispatch("r a $42")
	if got := r.lastOutput(); !strings.Contains(got, "A = $42") {
		t.Errorf("output = %q, want it to contain %q", got, "A = $42")
	}
	if v, _ := r.m.Cpu.GetRegister("A"); v != 0x42 {
		t.Errorf("Cpu.A = %#x, want 0x42", v)
	}
	r.m.Dispatch("r")
	if got := r.lastOutput(); !strings.Contains(got, "A   $42") {
		t.Errorf("register dump = %q, want it to contain A $42", got)
	}
}

func TestDispatchStepAdvancesPC(t *testing.T) {
	r := newRig()
	// NOP (no operand, one cycle) at the reset PC; confirm the step
	// command actually runs one instruction and reports it.
	r.m.Space.CodePage(0)[0x4000] = findOpcode(t, decode.PrefixNone, decode.FamNOP, decode.ModeImplied)
	r.m.Cpu.PC = 0x4000
	r.m.Dispatch("s")
	out := r.lastOutput()
	if !strings.Contains(out, "step: 1 instruction") {
		t.Errorf("output = %q, want a step summary", out)
	}
	if r.m.Cpu.PC != 0x4001 {
		t.Errorf("PC = %#x, want 0x4001", r.m.Cpu.PC)
	}
}

func TestDispatchBreakpointSetListClear(t *testing.T) {
	r := newRig()
	r.m.Dispatch("b $4010")
	if got := r.lastOutput(); !strings.Contains(got, "breakpoint 0 set at $04010") {
		t.Errorf("set output = %q", got)
	}
	r.m.Dispatch("bl")
	if got := r.lastOutput(); !strings.Contains(got, "$04010") {
		t.Errorf("list output = %q, want it to mention $04010", got)
	}
	r.m.Dispatch("bc $4010")
	if got := r.lastOutput(); !strings.Contains(got, "breakpoint cleared") {
		t.Errorf("clear output = %q", got)
	}
	r.m.Dispatch("bl")
	if got := r.lastOutput(); !strings.Contains(got, "no instruction breakpoints set") {
		t.Errorf("list-after-clear output = %q", got)
	}
}

func TestDispatchBreakpointInvalidConditionIsRejected(t *testing.T) {
	r := newRig()
	r.m.Dispatch("b $4010 bogus")
	if got := r.lastOutput(); !strings.Contains(got, "invalid condition") {
		t.Errorf("output = %q, want an invalid-condition message", got)
	}
	if r.m.BP.Instr[0].Used {
		t.Error("a rejected condition should not leave the breakpoint slot armed")
	}
}

func TestDispatchWatchpointSetListClear(t *testing.T) {
	r := newRig()
	r.m.Dispatch("ww $0020 w")
	if got := r.lastOutput(); !strings.Contains(got, "watchpoint 0 set") {
		t.Errorf("set output = %q", got)
	}
	r.m.Dispatch("wl")
	if got := r.lastOutput(); !strings.Contains(got, "$00020") {
		t.Errorf("list output = %q", got)
	}
	r.m.Dispatch("wc *")
	if got := r.lastOutput(); !strings.Contains(got, "all data watchpoints cleared") {
		t.Errorf("clear-all output = %q", got)
	}
}

func TestDispatchEditWritesMemory(t *testing.T) {
	r := newRig()
	r.m.Dispatch("e $0020 AA BB")
	if got := r.m.Access.LoadRaw(addr.Address(0x0020)); got != 0xAA {
		t.Errorf("mem[$0020] = %#x, want 0xAA", got)
	}
	if got := r.m.Access.LoadRaw(addr.Address(0x0021)); got != 0xBB {
		t.Errorf("mem[$0021] = %#x, want 0xBB", got)
	}
}

func TestDispatchUnknownCommandReports(t *testing.T) {
	r := newRig()
	r.m.Dispatch("frobnicate")
	if got := r.lastOutput(); !strings.Contains(got, "unknown command: frobnicate") {
		t.Errorf("output = %q", got)
	}
}

func TestDispatchMacroRecordsAndReplays(t *testing.T) {
	r := newRig()
	r.m.Dispatch("macro setup r a $01 ; r x $02")
	if got := r.lastOutput(); !strings.Contains(got, `macro "setup" defined (2 commands)`) {
		t.Errorf("define output = %q", got)
	}
	r.m.Dispatch("setup")
	if v, _ := r.m.Cpu.GetRegister("A"); v != 0x01 {
		t.Errorf("Cpu.A = %#x, want 0x01 after macro replay", v)
	}
	if v, _ := r.m.Cpu.GetRegister("X"); v != 0x02 {
		t.Errorf("Cpu.X = %#x, want 0x02 after macro replay", v)
	}
}

func TestDispatchTraceTogglesWithoutArg(t *testing.T) {
	r := newRig()
	r.m.Dispatch("trace")
	if got := r.lastOutput(); !strings.Contains(got, "trace on") {
		t.Errorf("output = %q, want trace on", got)
	}
	r.m.Dispatch("trace")
	if got := r.lastOutput(); !strings.Contains(got, "trace off") {
		t.Errorf("output = %q, want trace off", got)
	}
}

func TestDispatchProtocolHarnessRunsAndReportsStatus(t *testing.T) {
	r := newRig()
	nop := findOpcode(t, decode.PrefixNone, decode.FamNOP, decode.ModeImplied)
	r.m.Space.CodePage(0)[0x4000] = nop
	r.m.BP.SetApp(0x4001)
	key := strings.Repeat("00", 16)
	r.m.Dispatch("ph " + key + " $4000 00 00")
	got := r.lastOutput()
	if !strings.Contains(got, "status: $00") {
		t.Errorf("output = %q, want a status line", got)
	}
	if strings.Contains(got, "MISMATCH") {
		t.Errorf("output = %q, should not report a MAC mismatch when none was requested", got)
	}
}

func TestDispatchProtocolHarnessRejectsBadKey(t *testing.T) {
	r := newRig()
	r.m.Dispatch("ph nothex $4000 00 00")
	if got := r.lastOutput(); !strings.Contains(got, "key must be") {
		t.Errorf("output = %q, want a key-format error", got)
	}
}

func TestDispatchExitReturnsTrue(t *testing.T) {
	r := newRig()
	if !r.m.Dispatch("x") {
		t.Error("dispatching x should return true to end the REPL loop")
	}
}

func TestDispatchSnapshotSaveLoadRoundTrip(t *testing.T) {
	r := newRig()
	dir := t.TempDir()
	r.m.Cpu.A = 0x55
	r.m.Dispatch("ss " + dir)
	if got := r.lastOutput(); !strings.Contains(got, "snapshot saved") {
		t.Errorf("save output = %q", got)
	}
	r.m.Cpu.A = 0x00
	r.m.Dispatch("sl " + dir)
	if got := r.lastOutput(); !strings.Contains(got, "snapshot loaded") {
		t.Errorf("load output = %q", got)
	}
	if r.m.Cpu.A != 0x55 {
		t.Errorf("Cpu.A = %#x, want 0x55 restored from the snapshot", r.m.Cpu.A)
	}
}

// findOpcode scans decode.Lookup across all byte values for one matching
// family and addressing mode, so tests don't hardcode the datasheet byte
// values tables.go transcribes.
func findOpcode(t *testing.T, prefix decode.Prefix, fam decode.Family, mode decode.AddrMode) byte {
	t.Helper()
	for op := 0; op < 256; op++ {
		instr, ok := decode.Lookup(prefix, byte(op))
		if ok && instr.Family == fam && instr.Mode == mode {
			return byte(op)
		}
	}
	t.Fatalf("no opcode found for family %v mode %v", fam, mode)
	return 0
}
