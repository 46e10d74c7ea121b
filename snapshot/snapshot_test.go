package snapshot

import (
	"testing"

	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/cpu"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	space := addr.NewSpace()
	space.CodePage(0)[0x4000] = 0xAA
	space.CodePage(1)[0x8000] = 0xBB
	space.StoreRaw(addr.Address(0x0020), 0xCC)
	space.FlashBuffer()[0] = 0xDD

	regs := Registers{A: 0x11, X: 0x22, Y: 0x33, SP: 0x01FF, PC: 0x14020, CC: 0x44, SimTime: 123456789}
	if err := Save(dir, space, regs); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := addr.NewSpace()
	got, err := Load(dir, loaded)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != regs {
		t.Errorf("Load registers = %+v, want %+v", got, regs)
	}
	if loaded.CodePage(0)[0x4000] != 0xAA {
		t.Error("page 0 byte not restored")
	}
	if loaded.CodePage(1)[0x8000] != 0xBB {
		t.Error("page 1 byte not restored")
	}
	if loaded.LoadRaw(addr.Address(0x0020)) != 0xCC {
		t.Error("low-mem byte not restored")
	}
	if loaded.FlashBuffer()[0] != 0xDD {
		t.Error("flash byte not restored")
	}
}

func TestLoadRejectsWrongSizedBundle(t *testing.T) {
	dir := t.TempDir()
	space := addr.NewSpace()
	if err := Save(dir, space, Registers{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Truncate one of the bundle files; Load must reject the size mismatch.
	if err := writeRegisters(dir+"/snapshot.rom0", Registers{}); err != nil {
		t.Fatalf("corrupting fixture: %v", err)
	}
	if _, err := Load(dir, addr.NewSpace()); err == nil {
		t.Error("expected an error loading a truncated bundle file")
	}
}

func TestFromCpuAndApplyRoundTrip(t *testing.T) {
	c := cpu.New()
	c.A, c.X, c.Y = 0x01, 0x02, 0x03
	c.SP, c.PC, c.CC = 0x0100, 0x4000, 0x80
	regs := FromCpu(c, 999)
	if regs.SimTime != 999 {
		t.Errorf("SimTime = %d, want 999", regs.SimTime)
	}
	other := cpu.New()
	regs.Apply(other)
	if other.A != 0x01 || other.X != 0x02 || other.Y != 0x03 {
		t.Error("Apply did not restore A/X/Y")
	}
	if other.SP != 0x0100 || other.PC != 0x4000 || other.CC != 0x80 {
		t.Error("Apply did not restore SP/PC/CC")
	}
}

func TestLoadMissingDirErrors(t *testing.T) {
	if _, err := Load(t.TempDir()+"/does-not-exist", addr.NewSpace()); err == nil {
		t.Error("expected an error loading a nonexistent directory")
	}
}
