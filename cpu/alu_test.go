package cpu

import "testing"

func requireEqualU8(t *testing.T, name string, got, want byte) {
	t.Helper()
	if got != want {
		t.Errorf("%s = $%02X, want $%02X", name, got, want)
	}
}

func TestAddSetsHalfCarry(t *testing.T) {
	c := New()
	c.A = 0x0F
	c.Add(0x01)
	requireEqualU8(t, "A", c.A, 0x10)
	if !c.H() {
		t.Error("H not set")
	}
	if c.C() || c.Z() || c.N() {
		t.Error("C/Z/N should be clear")
	}
}

func TestAddWrapsAndSetsCarryZero(t *testing.T) {
	c := New()
	c.A = 0xFF
	c.Add(0x01)
	requireEqualU8(t, "A", c.A, 0x00)
	if !c.C() || !c.Z() {
		t.Error("expected C and Z set on wraparound")
	}
}

func TestAdcHonorsIncomingCarry(t *testing.T) {
	c := New()
	c.A = 0xFE
	c.SetC(true)
	c.Adc(0x01)
	requireEqualU8(t, "A", c.A, 0x00)
	if !c.C() || !c.Z() {
		t.Error("expected C and Z set")
	}
}

func TestSubSetsCarryOnBorrow(t *testing.T) {
	c := New()
	c.A = 0x00
	c.Sub(0x01)
	requireEqualU8(t, "A", c.A, 0xFF)
	if !c.C() {
		t.Error("expected C set on borrow")
	}
	if !c.N() {
		t.Error("expected N set, result is negative")
	}
}

func TestSbcSubtractsBorrowBit(t *testing.T) {
	c := New()
	c.A = 0x05
	c.SetC(true)
	c.Sbc(0x02)
	requireEqualU8(t, "A", c.A, 0x02)
}

func TestRlcRotatesThroughCarry(t *testing.T) {
	c := New()
	c.SetC(false)
	out := c.Rlc(0x81)
	requireEqualU8(t, "out", out, 0x02)
	if !c.C() {
		t.Error("expected C set from vacated bit 7")
	}
	out = c.Rlc(0x01)
	requireEqualU8(t, "out", out, 0x03) // carry-in from previous rotate feeds bit 0
}

func TestRrcRotatesThroughCarry(t *testing.T) {
	c := New()
	c.SetC(false)
	out := c.Rrc(0x01)
	requireEqualU8(t, "out", out, 0x00)
	if !c.C() {
		t.Error("expected C set from vacated bit 0")
	}
	out = c.Rrc(0x00)
	requireEqualU8(t, "out", out, 0x80) // carry-in from previous rotate feeds bit 7
}

func TestSlaShiftsInZero(t *testing.T) {
	c := New()
	out := c.Sla(0xC0)
	requireEqualU8(t, "out", out, 0x80)
	if !c.C() {
		t.Error("expected C set from vacated bit 7")
	}
}

func TestSraPreservesSignBit(t *testing.T) {
	c := New()
	out := c.Sra(0x81)
	requireEqualU8(t, "out", out, 0xC0)
	if !c.C() {
		t.Error("expected C set from vacated bit 0")
	}
}

func TestSrlZeroFillsMSB(t *testing.T) {
	c := New()
	out := c.Srl(0x81)
	requireEqualU8(t, "out", out, 0x40)
	if !c.C() {
		t.Error("expected C set from vacated bit 0")
	}
}

func TestDivQuotientAndRemainder(t *testing.T) {
	c := New()
	c.X, c.A = 0x00, 0x0A
	c.Div(0x03)
	requireEqualU8(t, "A", c.A, 0x03)
	requireEqualU8(t, "X", c.X, 0x01)
	if c.C() {
		t.Error("C should be clear, quotient fits in a byte")
	}
}

func TestDivByZeroSetsCarry(t *testing.T) {
	c := New()
	c.X, c.A = 0x01, 0x00
	c.Div(0x00)
	if !c.C() {
		t.Error("expected C set on divide by zero")
	}
}

func TestGetSetRegisterRoundTrip(t *testing.T) {
	c := New()
	if !c.SetRegister("X", 0x42) {
		t.Fatal("SetRegister(X) reported failure")
	}
	v, ok := c.GetRegister("X")
	if !ok || v != 0x42 {
		t.Errorf("GetRegister(X) = %d, %v; want 0x42, true", v, ok)
	}
	if _, ok := c.GetRegister("ZZ"); ok {
		t.Error("expected unknown register name to report !ok")
	}
}

func TestAnyPrecodeSetAndClear(t *testing.T) {
	c := New()
	if c.AnyPrecodeSet() {
		t.Fatal("fresh Cpu should have no precode flags set")
	}
	c.Precode91 = true
	if !c.AnyPrecodeSet() {
		t.Error("expected AnyPrecodeSet true")
	}
	c.ClearPrecodes()
	if c.AnyPrecodeSet() {
		t.Error("expected all precode flags clear after ClearPrecodes")
	}
}
