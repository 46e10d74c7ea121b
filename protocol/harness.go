package protocol

import (
	"fmt"

	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/crypto/cmac"
	"github.com/tagsim/st7xiss/runloop"
)

// Harness is TagProtocolHarness: it writes command packets into
// emulated RAM, drives a RunLoop to the firmware's application-trigger
// exit point, and independently recomputes the MACs the firmware is
// expected to have produced (spec.md §4.7's three wrappers).
type Harness struct {
	Access *addr.Access
	Cmac   *cmac.Engine
}

// NewHarness builds a harness around a session key.
func NewHarness(ac *addr.Access, key [16]byte) (*Harness, error) {
	engine, err := cmac.New(key)
	if err != nil {
		return nil, fmt.Errorf("protocol: %w", err)
	}
	return &Harness{Access: ac, Cmac: engine}, nil
}

// WriteRequest lays out a Request's fields at the fixed packet
// addresses and appends a 4-byte inbound MAC when the request carries
// ModInboundMacPresent.
func (h *Harness) WriteRequest(req Request) error {
	h.Access.StoreRaw(addr.Address(AddrCmd), req.Cmd|req.Modifiers)
	h.Access.StoreRaw(addr.Address(AddrLenHi), byte(len(req.Payload)>>8))
	h.Access.StoreRaw(addr.Address(AddrLenLo), byte(len(req.Payload)))
	for i, b := range req.Payload {
		h.Access.StoreRaw(addr.Address(AddrPayload+i), b)
	}
	if req.Modifiers&ModInboundMacPresent == 0 {
		return nil
	}
	mac, err := h.GenerateInboundMac(req.Seq, req.Cmd, req.Payload)
	if err != nil {
		return err
	}
	base := AddrPayload + len(req.Payload)
	for i := 0; i < 4; i++ {
		h.Access.StoreRaw(addr.Address(base+i), mac[i])
	}
	return nil
}

// ReadResponse reads the response fields back out of emulated RAM.
// expectMAC must match ModOutboundMacExpected on the originating
// request — it determines whether the final 4 payload bytes are split
// off as the outbound MAC.
func (h *Harness) ReadResponse(expectMAC bool) Response {
	status := h.Access.LoadRaw(addr.Address(AddrStatus))
	lenHi := h.Access.LoadRaw(addr.Address(AddrLenHi))
	lenLo := h.Access.LoadRaw(addr.Address(AddrLenLo))
	length := int(lenHi)<<8 | int(lenLo)
	raw := h.Access.LoadRawBlock(addr.Address(AddrPayload), length)

	resp := Response{Status: status}
	if expectMAC && length >= 4 {
		copy(resp.OutboundMAC[:], raw[length-4:])
		resp.HasMAC = true
		resp.Payload = raw[:length-4]
		return resp
	}
	resp.Payload = raw
	return resp
}

// Execute writes req, sets PC to entryPC, and runs until the firmware
// hits the application-trigger exit point (or a fatal stop). A
// non-ApplicationBreak stop is reported as a command failure, per
// spec.md §4.6's "protocol harness treats a stop reason other than
// ApplicationBreak as a command failure" rule.
func (h *Harness) Execute(rl *runloop.RunLoop, entryPC uint32, req Request, expectMAC bool) (Response, error) {
	if err := h.WriteRequest(req); err != nil {
		return Response{}, err
	}
	rl.Cpu.PC = entryPC
	res := rl.Run(nil)
	if res.Reason != runloop.ApplicationBreak {
		if res.Err != nil {
			return Response{}, fmt.Errorf("protocol: command failed: stop reason %s: %w", res.Reason, res.Err)
		}
		return Response{}, fmt.Errorf("protocol: command failed: stop reason %s", res.Reason)
	}
	return h.ReadResponse(expectMAC), nil
}

// GenerateInboundMac reproduces the firmware's inbound-MAC wrapper:
// prepend [seq, cmd&0x1F] and sign under param 1 with a zero prev.
func (h *Harness) GenerateInboundMac(seq, cmd byte, payload []byte) ([16]byte, error) {
	buf := append([]byte{seq, cmd & 0x1F}, payload...)
	return h.Cmac.Sign(1, buf, len(buf), [16]byte{})
}

// GeneratePrevMac reproduces the firmware's chained "prev" MAC:
// prepend [0x80, cmd] and sign under param 4 with a zero prev.
func (h *Harness) GeneratePrevMac(cmd byte, payload []byte) ([16]byte, error) {
	buf := append([]byte{0x80, cmd}, payload...)
	return h.Cmac.Sign(4, buf, len(buf), [16]byte{})
}

// GenerateMac reproduces the firmware's outbound packet MAC: prepend
// [0x00, status] and sign under param 5 chained from prev; only the
// first 4 bytes go on the wire.
func (h *Harness) GenerateMac(status byte, payload []byte, prev [16]byte) ([4]byte, error) {
	buf := append([]byte{0x00, status}, payload...)
	full, err := h.Cmac.Sign(5, buf, len(buf), prev)
	if err != nil {
		return [4]byte{}, err
	}
	var out [4]byte
	copy(out[:], full[:4])
	return out, nil
}
