package loader

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/tagsim/st7xiss/addr"
)

// LoadSRecord parses Motorola S-record text and applies S1 records into
// page-0 code memory, per spec.md §6: "S1 records deliver bytecount,
// 16-bit address, and hex bytes into page-0 code memory". S0 (header)
// and S9 (termination) records are recognized and skipped; any other
// record type is an error.
func LoadSRecord(space *addr.Space, data []byte) error {
	page0 := space.CodePage(0)
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != 'S' {
			return fmt.Errorf("loader: srec line %d: missing 'S' marker", lineNo)
		}
		recType := line[1]
		raw, err := hex.DecodeString(string(line[2:]))
		if err != nil {
			return fmt.Errorf("loader: srec line %d: %w", lineNo, err)
		}
		if len(raw) < 1 {
			return fmt.Errorf("loader: srec line %d: empty record", lineNo)
		}
		byteCount := int(raw[0])
		if len(raw) != byteCount+1 {
			return fmt.Errorf("loader: srec line %d: byte count %d does not match record length", lineNo, byteCount)
		}
		body := raw[1 : len(raw)-1] // address + data, checksum byte excluded
		checksum := raw[len(raw)-1]
		if !verifyChecksum(raw[:len(raw)-1], checksum) {
			return fmt.Errorf("loader: srec line %d: checksum mismatch", lineNo)
		}

		switch recType {
		case '0', '9':
			continue // header / termination: no payload to apply
		case '1':
			if len(body) < 2 {
				return fmt.Errorf("loader: srec line %d: S1 record too short", lineNo)
			}
			address := uint16(body[0])<<8 | uint16(body[1])
			payload := body[2:]
			for i, b := range payload {
				page0[uint32(address)+uint32(i)] = b
			}
		default:
			return fmt.Errorf("loader: srec line %d: unsupported record type S%c", lineNo, recType)
		}
	}
	return sc.Err()
}

func verifyChecksum(fields []byte, checksum byte) bool {
	var sum byte
	for _, b := range fields {
		sum += b
	}
	return byte(0xFF-sum) == checksum
}
