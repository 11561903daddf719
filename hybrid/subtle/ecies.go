// Package subtle implements the ECIES construction underlying the hybrid
// package: X25519 key agreement, HKDF-SHA256 key derivation, and
// XChaCha20-Poly1305 data encapsulation.
package subtle

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/kingjay66/tink"
)

// Ciphertext layout: ephemeral public key (32) || nonce (24) || sealed data.

// ECIESX25519Encrypt implements tink.HybridEncrypt for one recipient
// public key. It is safe for concurrent use.
type ECIESX25519Encrypt struct {
	recipientPublicKey []byte
}

// NewECIESX25519Encrypt creates the encrypt side for a 32-byte X25519
// public key.
func NewECIESX25519Encrypt(recipientPublicKey []byte) (*ECIESX25519Encrypt, error) {
	if len(recipientPublicKey) != curve25519.PointSize {
		return nil, fmt.Errorf("%w: public key has %d bytes, want %d", tink.ErrInvalidArgument, len(recipientPublicKey), curve25519.PointSize)
	}
	pub := make([]byte, curve25519.PointSize)
	copy(pub, recipientPublicKey)
	return &ECIESX25519Encrypt{recipientPublicKey: pub}, nil
}

// Compile-time interface check.
var _ tink.HybridEncrypt = (*ECIESX25519Encrypt)(nil)

// Encrypt encapsulates a fresh key to the recipient and seals plaintext
// under it. The contextInfo enters the key derivation and must be
// reproduced at decryption.
func (e *ECIESX25519Encrypt) Encrypt(plaintext, contextInfo []byte) ([]byte, error) {
	ephemeralPrivate := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(rand.Reader, ephemeralPrivate); err != nil {
		return nil, fmt.Errorf("hybrid: generating ephemeral key: %w", err)
	}
	ephemeralPublic, err := curve25519.X25519(ephemeralPrivate, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("hybrid: ephemeral basepoint multiplication: %w", err)
	}
	shared, err := curve25519.X25519(ephemeralPrivate, e.recipientPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tink.ErrInvalidArgument, err)
	}
	dek, err := deriveDEK(shared, ephemeralPublic, e.recipientPublicKey, contextInfo)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(dek)
	if err != nil {
		return nil, fmt.Errorf("hybrid: %v", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("hybrid: generating nonce: %w", err)
	}
	out := make([]byte, 0, len(ephemeralPublic)+len(nonce)+len(plaintext)+chacha20poly1305.Overhead)
	out = append(out, ephemeralPublic...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// ECIESX25519Decrypt implements tink.HybridDecrypt for one X25519
// private key. It is safe for concurrent use.
type ECIESX25519Decrypt struct {
	privateKey []byte
	publicKey  []byte
}

// NewECIESX25519Decrypt creates the decrypt side for a 32-byte X25519
// private key.
func NewECIESX25519Decrypt(privateKey []byte) (*ECIESX25519Decrypt, error) {
	if len(privateKey) != curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: private key has %d bytes, want %d", tink.ErrInvalidArgument, len(privateKey), curve25519.ScalarSize)
	}
	priv := make([]byte, curve25519.ScalarSize)
	copy(priv, privateKey)
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tink.ErrInvalidArgument, err)
	}
	return &ECIESX25519Decrypt{privateKey: priv, publicKey: pub}, nil
}

// Compile-time interface check.
var _ tink.HybridDecrypt = (*ECIESX25519Decrypt)(nil)

// Decrypt reverses Encrypt. Any failure is the uniform tink.ErrDecryption.
func (d *ECIESX25519Decrypt) Decrypt(ciphertext, contextInfo []byte) ([]byte, error) {
	minSize := curve25519.PointSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(ciphertext) < minSize {
		return nil, tink.ErrDecryption
	}
	ephemeralPublic := ciphertext[:curve25519.PointSize]
	nonce := ciphertext[curve25519.PointSize : curve25519.PointSize+chacha20poly1305.NonceSizeX]
	sealed := ciphertext[curve25519.PointSize+chacha20poly1305.NonceSizeX:]
	shared, err := curve25519.X25519(d.privateKey, ephemeralPublic)
	if err != nil {
		return nil, tink.ErrDecryption
	}
	dek, err := deriveDEK(shared, ephemeralPublic, d.publicKey, contextInfo)
	if err != nil {
		return nil, tink.ErrDecryption
	}
	aead, err := chacha20poly1305.NewX(dek)
	if err != nil {
		return nil, tink.ErrDecryption
	}
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, tink.ErrDecryption
	}
	return plaintext, nil
}

// deriveDEK derives the data-encapsulation key with HKDF-SHA256, binding
// both key-agreement public keys and the context info.
func deriveDEK(shared, ephemeralPublic, recipientPublic, contextInfo []byte) ([]byte, error) {
	salt := make([]byte, 0, len(ephemeralPublic)+len(recipientPublic))
	salt = append(salt, ephemeralPublic...)
	salt = append(salt, recipientPublic...)
	reader := hkdf.New(sha256.New, shared, salt, contextInfo)
	dek := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, dek); err != nil {
		return nil, fmt.Errorf("hybrid: hkdf: %w", err)
	}
	return dek, nil
}
