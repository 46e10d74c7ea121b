package addr

import "errors"

// ErrFetchFromNonCodeRegion is raised when an instruction fetch (or a
// far-return landing address) targets IO, XIO, or RAM.
var ErrFetchFromNonCodeRegion = errors.New("FETCHING FROM RAM REGION")

// WriteLog receives a record every time a write lands in ROM. ROM writes
// are permitted (the firmware self-patches at startup) but are always
// reported — set this to nil to discard the records.
type WriteLog func(a Address, value byte)

// Space owns the three physical buffers that back the 20-bit address
// space: the shared low-memory mirror (IO|RAM|XIO, visible identically
// from both pages), the two 64KB code-page buffers, and the flash buffer.
// It performs region classification and page selection only; peripheral
// trapping lives one layer up in Access.
type Space struct {
	lowMem [LowMemSize]byte
	code   [2][CodePageSize]byte
	flash  [FlashSize]byte

	OnROMWrite WriteLog
}

// NewSpace returns a zeroed address space.
func NewSpace() *Space {
	return &Space{}
}

// Reset clears all three buffers to zero.
func (s *Space) Reset() {
	for i := range s.lowMem {
		s.lowMem[i] = 0
	}
	for p := range s.code {
		for i := range s.code[p] {
			s.code[p][i] = 0
		}
	}
	for i := range s.flash {
		s.flash[i] = 0
	}
}

// Fetch reads one instruction byte. Fetching from IO, XIO, or RAM is
// fatal (spec.md §4.1's invariant); fetching from an unmapped address
// reads as 0xFF, the conventional unprogrammed-cell value.
func (s *Space) Fetch(a Address) (byte, error) {
	switch Classify(a) {
	case RegionIO, RegionXIO, RegionRAM:
		return 0, ErrFetchFromNonCodeRegion
	case RegionROM:
		return s.code[a.Page()][a.Offset()], nil
	case RegionFlash:
		return s.flash[a.Offset()-flashStart], nil
	default:
		return 0xFF, nil
	}
}

// LoadRaw reads a data byte with no peripheral-bus trapping and no
// breakpoint side effects — used by inspection tools and the protocol
// harness to seed or inspect packet bytes directly.
func (s *Space) LoadRaw(a Address) byte {
	switch Classify(a) {
	case RegionIO, RegionRAM, RegionXIO:
		return s.lowMem[a.Offset()]
	case RegionROM:
		return s.code[a.Page()][a.Offset()]
	case RegionFlash:
		return s.flash[a.Offset()-flashStart]
	default:
		return 0xFF
	}
}

// StoreRaw writes a data byte with no peripheral-bus trapping and no
// breakpoint side effects. Writes to ROM are logged but permitted, per
// spec.md §3 ("firmware contains self-patches at startup").
func (s *Space) StoreRaw(a Address, v byte) {
	switch Classify(a) {
	case RegionIO, RegionRAM, RegionXIO:
		// Both pages share one low-memory mirror (spec.md §3's mirror
		// invariant) — there is only one lowMem array, so this is
		// automatic: the same cell is read from either page.
		s.lowMem[a.Offset()] = v
	case RegionROM:
		s.code[a.Page()][a.Offset()] = v
		if s.OnROMWrite != nil {
			s.OnROMWrite(a, v)
		}
	case RegionFlash:
		s.flash[a.Offset()-flashStart] = v
	default:
		// Unmapped: discarded. spec.md is silent on this case; real
		// hardware would likely bus-fault, but nothing downstream reads
		// it back so a silent discard is observationally equivalent.
	}
}

// LoadRawBlock reads n consecutive bytes starting at a, for bulk dumps
// (memory display, snapshot capture).
func (s *Space) LoadRawBlock(a Address, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = s.LoadRaw(Address(uint32(a) + uint32(i)))
	}
	return out
}

// CodePage returns a direct slice onto one of the two 64KB code-page
// buffers, for bulk loading by the S-record / raw-binary loaders.
func (s *Space) CodePage(page int) []byte {
	return s.code[page&1][:]
}

// FlashBuffer returns a direct slice onto the flash buffer, for bulk
// loading by the flash-text loader.
func (s *Space) FlashBuffer() []byte {
	return s.flash[:]
}

// LowMem returns a direct slice onto the shared RAM/IO/XIO mirror, for
// snapshot capture/restore.
func (s *Space) LowMem() []byte {
	return s.lowMem[:]
}
