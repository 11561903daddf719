// Package secret holds raw key material in guarded memory.
//
// Bytes seals key bytes into a memguard enclave: the material lives in
// locked, canary-guarded memory and is only decrypted transiently when a
// primitive is constructed from it. Callers that obtain a plaintext copy
// via Data own that copy and should wipe it when done.
package secret

import (
	"crypto/subtle"
	"fmt"

	"github.com/awnumar/memguard"
)

// Bytes is an immutable, guarded byte string for key material. The zero
// value is an empty Bytes. Bytes is safe for concurrent use.
type Bytes struct {
	enclave *memguard.Enclave
	size    int
}

// NewBytesFromData seals a copy of data. The caller keeps ownership of
// data and may wipe it after the call.
func NewBytesFromData(data []byte) Bytes {
	if len(data) == 0 {
		return Bytes{}
	}
	// NewEnclave wipes its argument, so seal a private copy.
	b := make([]byte, len(data))
	copy(b, data)
	return Bytes{enclave: memguard.NewEnclave(b), size: len(data)}
}

// NewBytesFromRand seals size fresh random bytes.
func NewBytesFromRand(size int) (Bytes, error) {
	if size <= 0 {
		return Bytes{}, fmt.Errorf("secret: size must be positive, got %d", size)
	}
	buf := memguard.NewBufferRandom(size)
	return Bytes{enclave: buf.Seal(), size: size}, nil
}

// Len returns the length of the key material in bytes.
func (b Bytes) Len() int {
	return b.size
}

// Data returns a plaintext copy of the key material. The caller owns the
// returned slice and should wipe it when no longer needed.
func (b Bytes) Data() ([]byte, error) {
	if b.enclave == nil {
		return []byte{}, nil
	}
	buf, err := b.enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("secret: opening enclave: %w", err)
	}
	defer buf.Destroy()
	out := make([]byte, b.size)
	copy(out, buf.Bytes())
	return out, nil
}

// Equal compares two Bytes in constant time with respect to the key
// material. Lengths are not secret.
func (b Bytes) Equal(other Bytes) bool {
	if b.size != other.size {
		return false
	}
	x, err := b.Data()
	if err != nil {
		return false
	}
	defer memguard.WipeBytes(x)
	y, err := other.Data()
	if err != nil {
		return false
	}
	defer memguard.WipeBytes(y)
	return subtle.ConstantTimeCompare(x, y) == 1
}
