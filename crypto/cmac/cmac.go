// Package cmac implements the firmware's parameterized CMAC-like
// signer (spec.md §4.7): standard AES-CMAC subkey derivation for
// params {1,3,5}, and a non-standard "virtual extra block" padding
// quirk for params {2,4} that must be reproduced bit-for-bit against
// the original firmware, not against NIST SP 800-38B.
package cmac

import (
	"fmt"

	"github.com/tagsim/st7xiss/crypto/aescore"
)

// Context mirrors the firmware's CmacContext: the running 16-byte
// scratch block and the two derived subkeys (the session key itself is
// not kept here). Engine.Last holds the Context of the most recent Sign
// call so a caller can inspect that intermediate state.
type Context struct {
	X, K1, K2 [16]byte
}

// Engine signs messages under one fixed session key.
type Engine struct {
	core *aescore.Core
	Last Context
}

// New builds an Engine for a 128-bit session key.
func New(key [16]byte) (*Engine, error) {
	core, err := aescore.New(key)
	if err != nil {
		return nil, fmt.Errorf("cmac: %w", err)
	}
	return &Engine{core: core}, nil
}

// Sign computes the 16-byte tag for input[:length], parameterized by
// param per spec.md §4.7. prev seeds the running state for params 3
// and 5 (chained packet MACs); it is ignored otherwise.
func (e *Engine) Sign(param int, input []byte, length int, prev [16]byte) ([16]byte, error) {
	if param < 1 || param > 5 {
		return [16]byte{}, fmt.Errorf("cmac: invalid param %d", param)
	}
	if length < 0 || length > len(input) {
		return [16]byte{}, fmt.Errorf("cmac: length %d out of range for %d-byte input", length, len(input))
	}

	nOrig := 1
	if length > 0 {
		nOrig = (length + 15) / 16
	}
	complete := length != 0 && length%16 == 0
	firmwareQuirk := param == 2 || param == 4
	virtualExtra := firmwareQuirk && complete

	var x [16]byte
	if param == 3 || param == 5 {
		x = prev
	}

	n := nOrig
	if virtualExtra {
		n++
	}

	for i := 0; i < n-1; i++ {
		blk, _ := block(input, i, length)
		x = e.core.EncryptBlock(xorBlocks(x, blk))
	}

	var mLast [16]byte
	var k1, k2 [16]byte
	if firmwareQuirk {
		switch {
		case complete && virtualExtra:
			mLast = [16]byte{0x80}
		case complete:
			mLast, _ = block(input, nOrig-1, length)
		default:
			partial, _ := block(input, nOrig-1, length)
			mLast = padBlock(partial, length%16)
		}
	} else {
		l := e.core.EncryptBlock([16]byte{})
		k1 = dbl(l)
		k2 = dbl(k1)
		if complete {
			last, _ := block(input, nOrig-1, length)
			mLast = xorBlocks(last, k1)
		} else {
			partial, _ := block(input, nOrig-1, length)
			mLast = xorBlocks(padBlock(partial, length%16), k2)
		}
	}

	out := e.core.EncryptBlock(xorBlocks(x, mLast))
	e.Last = Context{X: x, K1: k1, K2: k2}
	return out, nil
}

// block extracts logical 16-byte block i from input[:length]. The
// result may be a short slice copied into the low bytes of a zeroed
// array when it is the final, partial block — callers that need the
// partial length re-derive it from length%16 themselves.
func block(input []byte, i, length int) ([16]byte, bool) {
	var out [16]byte
	start := i * 16
	if start >= length {
		return out, false
	}
	end := start + 16
	full := end <= length
	if !full {
		end = length
	}
	copy(out[:], input[start:end])
	return out, full
}

// padBlock copies a partial final block's bytes (partialLen of them)
// and writes the firmware's 0x80 padding marker immediately after,
// zero-filling the rest — spec.md §4.7's `pad` helper.
func padBlock(partial [16]byte, partialLen int) [16]byte {
	var out [16]byte
	copy(out[:], partial[:partialLen])
	out[partialLen] = 0x80
	return out
}

func xorBlocks(a, b [16]byte) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// dbl is the standard CMAC subkey-derivation doubling: a 128-bit
// left shift (MSB-first byte order) XORed with 0x87 on the last byte
// when the original top bit was set.
func dbl(in [16]byte) [16]byte {
	var out [16]byte
	msb := in[0] & 0x80
	for i := 0; i < 16; i++ {
		out[i] = in[i] << 1
		if i < 15 && in[i+1]&0x80 != 0 {
			out[i] |= 1
		}
	}
	if msb != 0 {
		out[15] ^= 0x87
	}
	return out
}
