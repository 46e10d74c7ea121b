package breakpoint

import (
	"testing"

	"github.com/tagsim/st7xiss/addr"
)

type fakeRegs map[string]uint64

func (f fakeRegs) GetRegister(name string) (uint64, bool) {
	v, ok := f[name]
	return v, ok
}

type fakeMem map[uint32]byte

func (f fakeMem) Load(addr uint32) byte { return f[addr] }

func TestConditionParseAndEvalRegister(t *testing.T) {
	c, err := ParseCondition("A==$FF")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	ok, err := c.Eval(fakeRegs{"A": 0xFF}, nil, 0)
	if err != nil || !ok {
		t.Errorf("Eval = %v, %v; want true, nil", ok, err)
	}
	ok, err = c.Eval(fakeRegs{"A": 0x01}, nil, 0)
	if err != nil || ok {
		t.Errorf("Eval = %v, %v; want false, nil", ok, err)
	}
}

func TestConditionParseMemoryOperand(t *testing.T) {
	c, err := ParseCondition("[$4000]!=0")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	ok, err := c.Eval(nil, fakeMem{0x4000: 0x01}, 0)
	if err != nil || !ok {
		t.Errorf("Eval = %v, %v; want true, nil", ok, err)
	}
}

func TestConditionHitCountOperand(t *testing.T) {
	c, err := ParseCondition("hitcount>=3")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if ok, _ := c.Eval(nil, nil, 2); ok {
		t.Error("hitcount 2 should not satisfy >=3")
	}
	if ok, _ := c.Eval(nil, nil, 3); !ok {
		t.Error("hitcount 3 should satisfy >=3")
	}
}

func TestConditionUnknownRegisterErrors(t *testing.T) {
	c, err := ParseCondition("ZZ==1")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if _, err := c.Eval(fakeRegs{}, nil, 0); err == nil {
		t.Error("expected an error for an unknown register name")
	}
}

func TestEngineInstrBreakpointFires(t *testing.T) {
	e := NewEngine()
	if err := e.SetInstr(0, 0x4010, nil); err != nil {
		t.Fatalf("SetInstr: %v", err)
	}
	if _, hit := e.CheckInstr(0x4000, nil, nil); hit {
		t.Error("should not fire at an unrelated PC")
	}
	kind, hit := e.CheckInstr(0x4010, nil, nil)
	if !hit || kind != KindInstrAddr {
		t.Errorf("CheckInstr = %v, %v; want KindInstrAddr, true", kind, hit)
	}
}

func TestEngineInstrBreakpointHonorsCondition(t *testing.T) {
	e := NewEngine()
	cond, _ := ParseCondition("A==$10")
	if err := e.SetInstr(0, 0x4010, cond); err != nil {
		t.Fatalf("SetInstr: %v", err)
	}
	regs := fakeRegs{"A": 0x01}
	if _, hit := e.CheckInstr(0x4010, regs, nil); hit {
		t.Error("condition A==$10 should not be satisfied by A=$01")
	}
	regs["A"] = 0x10
	if _, hit := e.CheckInstr(0x4010, regs, nil); !hit {
		t.Error("condition A==$10 should be satisfied by A=$10")
	}
}

func TestEngineTerminalCountAutoDisables(t *testing.T) {
	e := NewEngine()
	two := uint64(2)
	e.Instr[0] = Breakpoint{Used: true, Enable: true, Kind: KindInstrAddr, Address: 0x4010, TerminalCount: &two}
	e.CheckInstr(0x4010, nil, nil)
	if !e.Instr[0].Enable {
		t.Fatal("should still be enabled after first hit")
	}
	e.CheckInstr(0x4010, nil, nil)
	if e.Instr[0].Enable {
		t.Error("should auto-disable once Count reaches TerminalCount")
	}
}

func TestEngineDataWatchAndCheckData(t *testing.T) {
	e := NewEngine()
	if err := e.SetData(0, 0x0020, KindDataWrite, nil); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	watch := e.DataWatch()
	watch(addr.Address(0x0020), false, 0x01) // a read: should not trigger a write-only slot
	if e.CheckData(nil, nil) {
		t.Error("read access should not trip a DataWrite breakpoint")
	}
	watch(addr.Address(0x0020), true, 0x01)
	if !e.CheckData(nil, nil) {
		t.Error("write access should trip a DataWrite breakpoint")
	}
	if e.CheckData(nil, nil) {
		t.Error("Triggered flag should be consumed by the first CheckData call")
	}
}

func TestEngineCallTrap(t *testing.T) {
	e := NewEngine()
	e.MarkCall(0x4000) // trap disabled: should not latch
	if e.CheckCall() {
		t.Error("call trap should not fire while disabled")
	}
	e.CallTrapEnabled = true
	e.MarkCall(0x4000)
	if !e.CheckCall() {
		t.Error("call trap should fire once enabled")
	}
	if e.CheckCall() {
		t.Error("CheckCall should clear the pending flag")
	}
}

func TestScoreboardRecordAndReset(t *testing.T) {
	s := NewScoreboard()
	if s.IsSet(0, 0x80) {
		t.Fatal("fresh scoreboard should have no cells set")
	}
	s.Record(0, 0x80)
	if !s.IsSet(0, 0x80) {
		t.Error("expected cell (0, 0x80) set after Record")
	}
	entries := s.Entries()
	if len(entries) != 1 || entries[0] != (ScoreboardEntry{Prefix: 0, Opcode: 0x80}) {
		t.Errorf("Entries() = %v, want one entry (0, 0x80)", entries)
	}
	s.Reset()
	if s.IsSet(0, 0x80) {
		t.Error("expected all cells clear after Reset")
	}
}
