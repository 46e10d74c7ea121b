// Package aescore implements the single block-cipher primitive the
// firmware's CMAC variant is built on: AES-128 ECB block encryption
// (spec.md §4.7 — "no other key sizes are used despite a keysize
// parameter").
package aescore

import (
	"crypto/aes"
	"fmt"
)

// Core wraps a fixed AES-128 key. Constructed once per session key;
// EncryptBlock is stateless and safe to call repeatedly.
type Core struct {
	cipher cipherBlock
}

type cipherBlock interface {
	Encrypt(dst, src []byte)
}

// New rejects anything but a 128-bit key — spec.md §4.7 permits that.
func New(key [16]byte) (*Core, error) {
	c, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aescore: %w", err)
	}
	return &Core{cipher: c}, nil
}

// EncryptBlock runs one AES-128 ECB block encryption.
func (c *Core) EncryptBlock(in [16]byte) [16]byte {
	var out [16]byte
	c.cipher.Encrypt(out[:], in[:])
	return out
}
