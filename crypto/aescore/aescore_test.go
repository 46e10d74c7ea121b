package aescore

import "testing"

// FIPS-197 Appendix B test vector.
func TestEncryptBlockFIPS197Vector(t *testing.T) {
	key := [16]byte{
		0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6,
		0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c,
	}
	plain := [16]byte{
		0x32, 0x43, 0xf6, 0xa8, 0x88, 0x5a, 0x30, 0x8d,
		0x31, 0x31, 0x98, 0xa2, 0xe0, 0x37, 0x07, 0x34,
	}
	want := [16]byte{
		0x39, 0x25, 0x84, 0x1d, 0x02, 0xdc, 0x09, 0xfb,
		0xdc, 0x11, 0x85, 0x97, 0x19, 0x6a, 0x0b, 0x32,
	}
	c, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := c.EncryptBlock(plain)
	if got != want {
		t.Errorf("EncryptBlock = %x, want %x", got, want)
	}
}

func TestNewAcceptsA128BitKey(t *testing.T) {
	// [16]byte is the only key type accepted by the type system itself;
	// confirm a well-formed key never errors.
	var key [16]byte
	if _, err := New(key); err != nil {
		t.Errorf("New with an all-zero 128-bit key should not error: %v", err)
	}
}
