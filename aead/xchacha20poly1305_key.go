// Package aead provides authenticated encryption backed by keysets with
// rotation support: encryption uses the primary key, decryption tries
// every enabled key the ciphertext's output prefix points at.
package aead

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/secret"
)

// Variant is the output-prefix variant of an XChaCha20-Poly1305 key.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantTink
	VariantCrunchy
	VariantNoPrefix
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantTink:
		return "TINK"
	case VariantCrunchy:
		return "CRUNCHY"
	case VariantNoPrefix:
		return "NO_PREFIX"
	default:
		return "UNKNOWN"
	}
}

// XChaCha20Poly1305Parameters describe an XChaCha20-Poly1305 key. The
// key size is fixed at 32 bytes, so the variant is the only degree of
// freedom.
type XChaCha20Poly1305Parameters struct {
	variant Variant
}

// NewXChaCha20Poly1305Parameters creates validated parameters.
func NewXChaCha20Poly1305Parameters(variant Variant) (*XChaCha20Poly1305Parameters, error) {
	if variant == VariantUnknown || variant > VariantNoPrefix {
		return nil, fmt.Errorf("%w: unsupported variant", tink.ErrInvalidArgument)
	}
	return &XChaCha20Poly1305Parameters{variant: variant}, nil
}

// Variant returns the output-prefix variant.
func (p *XChaCha20Poly1305Parameters) Variant() Variant { return p.variant }

// KeySizeInBytes returns the fixed key size.
func (p *XChaCha20Poly1305Parameters) KeySizeInBytes() int { return chacha20poly1305.KeySize }

// HasIDRequirement returns true unless the variant is NO_PREFIX.
func (p *XChaCha20Poly1305Parameters) HasIDRequirement() bool { return p.variant != VariantNoPrefix }

// Equal reports whether other describes the same parameters.
func (p *XChaCha20Poly1305Parameters) Equal(other key.Parameters) bool {
	o, ok := other.(*XChaCha20Poly1305Parameters)
	return ok && *p == *o
}

// Compile-time interface check.
var _ key.Parameters = (*XChaCha20Poly1305Parameters)(nil)

// XChaCha20Poly1305Key is a typed XChaCha20-Poly1305 key.
type XChaCha20Poly1305Key struct {
	parameters    *XChaCha20Poly1305Parameters
	keyBytes      secret.Bytes
	idRequirement uint32
}

// NewXChaCha20Poly1305Key creates a key from 32 bytes of guarded
// material. idRequirement must be 0 for NO_PREFIX keys.
func NewXChaCha20Poly1305Key(parameters *XChaCha20Poly1305Parameters, keyBytes secret.Bytes, idRequirement uint32) (*XChaCha20Poly1305Key, error) {
	if parameters == nil {
		return nil, fmt.Errorf("%w: parameters must not be nil", tink.ErrInvalidArgument)
	}
	if keyBytes.Len() != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: key has %d bytes, want %d", tink.ErrInvalidArgument, keyBytes.Len(), chacha20poly1305.KeySize)
	}
	if !parameters.HasIDRequirement() && idRequirement != 0 {
		return nil, fmt.Errorf("%w: NO_PREFIX keys must not have an ID requirement", tink.ErrInvalidArgument)
	}
	return &XChaCha20Poly1305Key{parameters: parameters, keyBytes: keyBytes, idRequirement: idRequirement}, nil
}

// KeyBytes returns the guarded key material.
func (k *XChaCha20Poly1305Key) KeyBytes() secret.Bytes { return k.keyBytes }

// Parameters returns the key's parameters.
func (k *XChaCha20Poly1305Key) Parameters() key.Parameters { return k.parameters }

// IDRequirement returns the required key ID and whether one is required.
func (k *XChaCha20Poly1305Key) IDRequirement() (uint32, bool) {
	return k.idRequirement, k.parameters.HasIDRequirement()
}

// Equal reports whether other is the same key.
func (k *XChaCha20Poly1305Key) Equal(other key.Key) bool {
	o, ok := other.(*XChaCha20Poly1305Key)
	return ok && k.parameters.Equal(o.parameters) &&
		k.idRequirement == o.idRequirement &&
		k.keyBytes.Equal(o.keyBytes)
}

// Compile-time interface check.
var _ key.Key = (*XChaCha20Poly1305Key)(nil)
