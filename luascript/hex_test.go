package luascript

import "testing"

func TestParseHexKeyRoundTrips(t *testing.T) {
	const s = "2b7e151628aed2a6abf7158809cf4f3c"
	key, err := parseHexKey(s)
	if err != nil {
		t.Fatalf("parseHexKey: %v", err)
	}
	if formatHex(key[:]) != s {
		t.Errorf("formatHex(parseHexKey(%q)) = %q, want %q", s, formatHex(key[:]), s)
	}
}

func TestParseHexKeyRejectsWrongLength(t *testing.T) {
	if _, err := parseHexKey("aabb"); err == nil {
		t.Error("expected an error for a key shorter than 16 bytes")
	}
}

func TestParseHexBytesRejectsOddLength(t *testing.T) {
	if _, err := parseHexBytes("abc"); err == nil {
		t.Error("expected an error for an odd-length hex string")
	}
}

func TestParseHexBytesRejectsNonHex(t *testing.T) {
	if _, err := parseHexBytes("zzzz"); err == nil {
		t.Error("expected an error for non-hex characters")
	}
}

func TestFormatHexLowercases(t *testing.T) {
	if got := formatHex([]byte{0xAB, 0xCD}); got != "abcd" {
		t.Errorf("formatHex = %q, want %q", got, "abcd")
	}
}

func TestToAddressKeepsPageBit(t *testing.T) {
	if got := toAddress(0x14000); uint32(got) != 0x14000 {
		t.Errorf("toAddress(0x14000) = %#x, want 0x14000", uint32(got))
	}
}
