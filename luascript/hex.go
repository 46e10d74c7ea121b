package luascript

import (
	"encoding/hex"
	"fmt"

	"github.com/tagsim/st7xiss/addr"
)

func toAddress(v int64) addr.Address {
	return addr.Address(uint32(v))
}

func parseHexKey(s string) ([16]byte, error) {
	b, err := parseHexBytes(s)
	if err != nil {
		return [16]byte{}, err
	}
	if len(b) != 16 {
		return [16]byte{}, fmt.Errorf("want 16 bytes, got %d", len(b))
	}
	var out [16]byte
	copy(out[:], b)
	return out, nil
}

func parseHexBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

func formatHex(b []byte) string {
	return hex.EncodeToString(b)
}
