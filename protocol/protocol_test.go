package protocol

import (
	"testing"

	"github.com/tagsim/st7xiss/addr"
)

func newTestHarness(t *testing.T) (*Harness, *addr.Access) {
	t.Helper()
	space := addr.NewSpace()
	ac := addr.NewAccess(space, nil)
	h, err := NewHarness(ac, [16]byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("NewHarness: %v", err)
	}
	return h, ac
}

func TestWriteRequestLaysOutFieldsWithoutMAC(t *testing.T) {
	h, ac := newTestHarness(t)
	req := Request{Cmd: CmdEcho, Payload: []byte{0xAA, 0xBB, 0xCC}}
	if err := h.WriteRequest(req); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	if got := ac.LoadRaw(addr.Address(AddrCmd)); got != CmdEcho {
		t.Errorf("cmd byte = $%02X, want $%02X", got, CmdEcho)
	}
	if got := ac.LoadRaw(addr.Address(AddrLenLo)); got != 3 {
		t.Errorf("len lo = %d, want 3", got)
	}
	for i, want := range req.Payload {
		if got := ac.LoadRaw(addr.Address(AddrPayload + i)); got != want {
			t.Errorf("payload[%d] = $%02X, want $%02X", i, got, want)
		}
	}
}

func TestWriteRequestAppendsInboundMacWhenPresent(t *testing.T) {
	h, ac := newTestHarness(t)
	req := Request{Cmd: CmdAuth, Modifiers: ModInboundMacPresent, Seq: 7, Payload: []byte{0x01, 0x02}}
	if err := h.WriteRequest(req); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	want, err := h.GenerateInboundMac(7, CmdAuth, req.Payload)
	if err != nil {
		t.Fatalf("GenerateInboundMac: %v", err)
	}
	base := AddrPayload + len(req.Payload)
	for i := 0; i < 4; i++ {
		if got := ac.LoadRaw(addr.Address(base + i)); got != want[i] {
			t.Errorf("mac byte %d = $%02X, want $%02X", i, got, want[i])
		}
	}
}

func TestReadResponseSplitsOutboundMac(t *testing.T) {
	h, ac := newTestHarness(t)
	payload := []byte{0x11, 0x22}
	mac := [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
	full := append(append([]byte{}, payload...), mac[:]...)
	ac.StoreRaw(addr.Address(AddrStatus), StatusOK)
	ac.StoreRaw(addr.Address(AddrLenHi), byte(len(full)>>8))
	ac.StoreRaw(addr.Address(AddrLenLo), byte(len(full)))
	for i, b := range full {
		ac.StoreRaw(addr.Address(AddrPayload+i), b)
	}
	resp := h.ReadResponse(true)
	if resp.Status != StatusOK {
		t.Errorf("Status = $%02X, want StatusOK", resp.Status)
	}
	if !resp.HasMAC || resp.OutboundMAC != mac {
		t.Errorf("OutboundMAC = %x, want %x (HasMAC=%v)", resp.OutboundMAC, mac, resp.HasMAC)
	}
	if len(resp.Payload) != 2 || resp.Payload[0] != 0x11 || resp.Payload[1] != 0x22 {
		t.Errorf("Payload = %v, want [0x11 0x22]", resp.Payload)
	}
}

func TestReadResponseWithoutMACExpectationKeepsFullPayload(t *testing.T) {
	h, ac := newTestHarness(t)
	ac.StoreRaw(addr.Address(AddrStatus), StatusInvalidCmd)
	ac.StoreRaw(addr.Address(AddrLenHi), 0)
	ac.StoreRaw(addr.Address(AddrLenLo), 2)
	ac.StoreRaw(addr.Address(AddrPayload), 0x01)
	ac.StoreRaw(addr.Address(AddrPayload+1), 0x02)
	resp := h.ReadResponse(false)
	if resp.HasMAC {
		t.Error("HasMAC should be false when not requested")
	}
	if len(resp.Payload) != 2 {
		t.Errorf("len(Payload) = %d, want 2", len(resp.Payload))
	}
}

func TestMacWrapperHelpersAreDeterministicAndDistinct(t *testing.T) {
	h, _ := newTestHarness(t)
	payload := []byte{0x01, 0x02, 0x03}
	inA, err := h.GenerateInboundMac(1, CmdRead, payload)
	if err != nil {
		t.Fatalf("GenerateInboundMac: %v", err)
	}
	inB, err := h.GenerateInboundMac(1, CmdRead, payload)
	if err != nil {
		t.Fatalf("GenerateInboundMac: %v", err)
	}
	if inA != inB {
		t.Error("GenerateInboundMac should be deterministic for identical inputs")
	}
	prevA, err := h.GeneratePrevMac(CmdRead, payload)
	if err != nil {
		t.Fatalf("GeneratePrevMac: %v", err)
	}
	if inA == prevA {
		t.Error("inbound MAC and prev MAC use different params/prefixes and should differ")
	}
	out1, err := h.GenerateMac(StatusOK, payload, [16]byte{})
	if err != nil {
		t.Fatalf("GenerateMac: %v", err)
	}
	out2, err := h.GenerateMac(StatusOK, payload, prevA)
	if err != nil {
		t.Fatalf("GenerateMac: %v", err)
	}
	if out1 == out2 {
		t.Error("GenerateMac should depend on the chained prev value")
	}
}
