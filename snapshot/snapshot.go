// Package snapshot implements the save/restore bundle of spec.md §6:
// four raw-binary memory dumps plus a text register file.
package snapshot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/cpu"
)

// Registers is the text register file's content, keyed by the names
// spec.md §6 lists: REG_A, REG_X, REG_Y, REG_SP, REG_PC, REG_CC, SIMTIME.
type Registers struct {
	A, X, Y byte
	SP      uint16
	PC      uint32
	CC      byte
	SimTime uint64 // nanoseconds, from RunLoop.CycleNanos
}

// FromCpu captures a Registers snapshot from a live Cpu.
func FromCpu(c *cpu.Cpu, simTimeNanos uint64) Registers {
	return Registers{A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC, CC: c.CC, SimTime: simTimeNanos}
}

// Apply restores a Registers snapshot onto a live Cpu.
func (r Registers) Apply(c *cpu.Cpu) {
	c.A, c.X, c.Y = r.A, r.X, r.Y
	c.SP, c.PC, c.CC = r.SP, r.PC, r.CC
}

// bundleNames are the four raw-binary files a snapshot directory holds.
const (
	fileROM0     = "snapshot.rom0"
	fileROM1     = "snapshot.rom1"
	fileRAMIO    = "snapshot.ramio"
	fileFlash    = "snapshot.flsh"
	fileRegister = "snapshot.reg"
)

// Save writes the four-file bundle plus register file into dir.
func Save(dir string, space *addr.Space, regs Registers) error {
	writes := []struct {
		name string
		data []byte
	}{
		{fileROM0, space.CodePage(0)},
		{fileROM1, space.CodePage(1)},
		{fileRAMIO, space.LowMem()},
		{fileFlash, space.FlashBuffer()},
	}
	for _, w := range writes {
		if err := os.WriteFile(filepath.Join(dir, w.name), w.data, 0o644); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	return writeRegisters(filepath.Join(dir, fileRegister), regs)
}

// Load reads the bundle back, overwriting space's buffers in place and
// returning the register file's contents.
func Load(dir string, space *addr.Space) (Registers, error) {
	reads := []struct {
		name string
		dst  []byte
	}{
		{fileROM0, space.CodePage(0)},
		{fileROM1, space.CodePage(1)},
		{fileRAMIO, space.LowMem()},
		{fileFlash, space.FlashBuffer()},
	}
	for _, r := range reads {
		data, err := os.ReadFile(filepath.Join(dir, r.name))
		if err != nil {
			return Registers{}, fmt.Errorf("snapshot: %w", err)
		}
		if len(data) != len(r.dst) {
			return Registers{}, fmt.Errorf("snapshot: %s is %d bytes, want %d", r.name, len(data), len(r.dst))
		}
		copy(r.dst, data)
	}
	return readRegisters(filepath.Join(dir, fileRegister))
}

func writeRegisters(path string, r Registers) error {
	lines := []string{
		fmt.Sprintf("REG_A=0x%02X", r.A),
		fmt.Sprintf("REG_X=0x%02X", r.X),
		fmt.Sprintf("REG_Y=0x%02X", r.Y),
		fmt.Sprintf("REG_SP=0x%04X", r.SP),
		fmt.Sprintf("REG_PC=0x%05X", r.PC),
		fmt.Sprintf("REG_CC=0x%02X", r.CC),
		fmt.Sprintf("SIMTIME=%d", r.SimTime),
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

func readRegisters(path string) (Registers, error) {
	f, err := os.Open(path)
	if err != nil {
		return Registers{}, fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()

	var r Registers
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return Registers{}, fmt.Errorf("snapshot: malformed register line %q", line)
		}
		n, err := parseRegValue(val)
		if err != nil {
			return Registers{}, fmt.Errorf("snapshot: %s: %w", key, err)
		}
		switch key {
		case "REG_A":
			r.A = byte(n)
		case "REG_X":
			r.X = byte(n)
		case "REG_Y":
			r.Y = byte(n)
		case "REG_SP":
			r.SP = uint16(n)
		case "REG_PC":
			r.PC = uint32(n)
		case "REG_CC":
			r.CC = byte(n)
		case "SIMTIME":
			r.SimTime = n
		default:
			return Registers{}, fmt.Errorf("snapshot: unknown register key %q", key)
		}
	}
	return r, sc.Err()
}

func parseRegValue(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
