// Package subtle implements the XChaCha20-Poly1305 primitive underlying
// the aead package.
package subtle

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kingjay66/tink"
)

// XChaCha20Poly1305 implements tink.AEAD. The ciphertext layout is
// nonce (24) || sealed data. It is safe for concurrent use.
type XChaCha20Poly1305 struct {
	aead cipher.AEAD
}

// NewXChaCha20Poly1305 creates the primitive from a 32-byte key. The key
// is not retained beyond cipher initialization.
func NewXChaCha20Poly1305(key []byte) (*XChaCha20Poly1305, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: key has %d bytes, want %d", tink.ErrInvalidArgument, len(key), chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tink.ErrInvalidArgument, err)
	}
	return &XChaCha20Poly1305{aead: aead}, nil
}

// Compile-time interface check.
var _ tink.AEAD = (*XChaCha20Poly1305)(nil)

// Encrypt seals plaintext under a fresh random nonce, binding
// associatedData to the ciphertext.
func (x *XChaCha20Poly1305) Encrypt(plaintext, associatedData []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("aead: generating nonce: %w", err)
	}
	return x.aead.Seal(nonce, nonce, plaintext, associatedData), nil
}

// Decrypt opens ciphertext. Any failure, including a truncated input, is
// reported as the uniform tink.ErrDecryption.
func (x *XChaCha20Poly1305) Decrypt(ciphertext, associatedData []byte) ([]byte, error) {
	if len(ciphertext) < chacha20poly1305.NonceSizeX {
		return nil, tink.ErrDecryption
	}
	nonce := ciphertext[:chacha20poly1305.NonceSizeX]
	plaintext, err := x.aead.Open(nil, nonce, ciphertext[chacha20poly1305.NonceSizeX:], associatedData)
	if err != nil {
		return nil, tink.ErrDecryption
	}
	return plaintext, nil
}
