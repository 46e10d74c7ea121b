// Package protocol implements TagProtocolHarness: it builds command
// packets in emulated RAM, drives a runloop.RunLoop to execute the
// firmware's handler, and cross-checks the chip-produced MAC against an
// independently computed one via crypto/cmac (spec.md §4.7, §6).
package protocol

// Packet field addresses, relative to the fixed low-mem base the
// firmware's command dispatcher reads from (spec.md §6).
const (
	AddrCmd     = 0x00FA
	AddrStatus  = 0x00FB
	AddrLenHi   = 0x00FC
	AddrLenLo   = 0x00FD
	AddrPayload = 0x00FE
)

// Modifier bits packed into the command byte.
const (
	ModOutboundMacExpected byte = 0x40 // tag-to-peer MAC expected on response
	ModInboundMacPresent   byte = 0x80 // peer-to-tag MAC present in request
)

// Command codes in use (spec.md §6).
const (
	CmdEcho    byte = 0x00
	CmdAuth    byte = 0x03
	CmdRead    byte = 0x05
	CmdWrite   byte = 0x06
	CmdGetInfo byte = 0x14
)

// Status codes: 0x00 is success; the rest are a closed set of error
// reasons (spec.md §6's "invalid CRC, invalid length, invalid command,
// no key, no auth, invalid MAC, invalid region" list, in that order).
const (
	StatusOK            byte = 0x00
	StatusInvalidCRC    byte = 0x01
	StatusInvalidLength byte = 0x02
	StatusInvalidCmd    byte = 0x03
	StatusNoKey         byte = 0x04
	StatusNoAuth        byte = 0x05
	StatusInvalidMAC    byte = 0x06
	StatusInvalidRegion byte = 0x07
)

// Request describes one outbound command before it is written into
// emulated RAM.
type Request struct {
	Cmd       byte
	Modifiers byte
	Seq       byte
	Payload   []byte
}

// Response is what Harness.ReadResponse reads back out of emulated RAM after
// the firmware's handler returns.
type Response struct {
	Status     byte
	Payload    []byte
	OutboundMAC [4]byte
	HasMAC     bool
}
