package loader

import (
	"fmt"

	"github.com/tagsim/st7xiss/addr"
)

// Default raw-binary load origins (spec.md §6): page 0 starts at
// 0x4000 (ROM0's base); page 1 offers two conventional starting
// offsets depending on which half of ROM1 the image targets.
const (
	DefaultOriginPage0     = 0x4000
	DefaultOriginPage1Low  = 0x8000
	DefaultOriginPage1High = 0x9000
)

// LoadRawBinary copies data into code page `page` starting at origin.
func LoadRawBinary(space *addr.Space, page int, origin uint16, data []byte) error {
	if page != 0 && page != 1 {
		return fmt.Errorf("loader: invalid code page %d", page)
	}
	dst := space.CodePage(page)
	if int(origin)+len(data) > len(dst) {
		return fmt.Errorf("loader: raw binary of %d bytes at origin 0x%04X overflows page %d", len(data), origin, page)
	}
	copy(dst[origin:], data)
	return nil
}

// LoadFlashText parses whitespace-separated 2-digit hex byte pairs and
// loads them starting at the flash buffer's base (spec.md §6).
func LoadFlashText(space *addr.Space, text []byte) error {
	dst := space.FlashBuffer()
	bytes, err := parseHexPairs(text)
	if err != nil {
		return err
	}
	if len(bytes) > len(dst) {
		return fmt.Errorf("loader: flash text of %d bytes overflows %d-byte flash buffer", len(bytes), len(dst))
	}
	copy(dst, bytes)
	return nil
}

func parseHexPairs(text []byte) ([]byte, error) {
	var out []byte
	var tok []byte
	flush := func() error {
		if len(tok) == 0 {
			return nil
		}
		if len(tok) != 2 {
			return fmt.Errorf("loader: flash text token %q is not a 2-digit hex pair", tok)
		}
		var b byte
		for _, c := range tok {
			v, ok := hexDigit(c)
			if !ok {
				return fmt.Errorf("loader: flash text token %q is not hex", tok)
			}
			b = b<<4 | v
		}
		out = append(out, b)
		tok = tok[:0]
		return nil
	}
	for _, c := range text {
		switch c {
		case ' ', '\t', '\n', '\r':
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			tok = append(tok, c)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
