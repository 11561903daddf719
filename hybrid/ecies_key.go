// Package hybrid provides hybrid (KEM/DEM) encryption backed by keysets:
// encryption addresses the primary public key, decryption tries every
// enabled private key the ciphertext's output prefix points at.
package hybrid

import (
	"crypto/subtle"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/curve25519"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/secret"
)

// Variant is the output-prefix variant of an ECIES key pair.
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

// ECIESParameters describe an X25519-HKDF-SHA256 / XChaCha20-Poly1305
// ECIES key pair.
type ECIESParameters struct {
	variant Variant
}

// NewECIESParameters creates validated parameters.
func NewECIESParameters(variant Variant) (*ECIESParameters, error) {
	if variant == VariantUnknown || variant > VariantNoPrefix {
		return nil, fmt.Errorf("%w: unsupported variant", tink.ErrInvalidArgument)
	}
	return &ECIESParameters{variant: variant}, nil
}

// Variant returns the output-prefix variant.
func (p *ECIESParameters) Variant() Variant { return p.variant }

// HasIDRequirement returns true unless the variant is NO_PREFIX.
func (p *ECIESParameters) HasIDRequirement() bool { return p.variant != VariantNoPrefix }

// Equal reports whether other describes the same parameters.
func (p *ECIESParameters) Equal(other key.Parameters) bool {
	o, ok := other.(*ECIESParameters)
	return ok && *p == *o
}

// Compile-time interface check.
var _ key.Parameters = (*ECIESParameters)(nil)

// ECIESPublicKey is the recipient half of an ECIES key pair. Public key
// bytes are not secret and are held in plain memory.
type ECIESPublicKey struct {
	parameters     *ECIESParameters
	publicKeyBytes []byte
	idRequirement  uint32
}

// NewECIESPublicKey creates a public key from 32 bytes of X25519 point
// material.
func NewECIESPublicKey(parameters *ECIESParameters, publicKeyBytes []byte, idRequirement uint32) (*ECIESPublicKey, error) {
	if parameters == nil {
		return nil, fmt.Errorf("%w: parameters must not be nil", tink.ErrInvalidArgument)
	}
	if len(publicKeyBytes) != curve25519.PointSize {
		return nil, fmt.Errorf("%w: public key has %d bytes, want %d", tink.ErrInvalidArgument, len(publicKeyBytes), curve25519.PointSize)
	}
	if !parameters.HasIDRequirement() && idRequirement != 0 {
		return nil, fmt.Errorf("%w: NO_PREFIX keys must not have an ID requirement", tink.ErrInvalidArgument)
	}
	pub := make([]byte, curve25519.PointSize)
	copy(pub, publicKeyBytes)
	return &ECIESPublicKey{parameters: parameters, publicKeyBytes: pub, idRequirement: idRequirement}, nil
}

// PublicKeyBytes returns a copy of the public key bytes.
func (k *ECIESPublicKey) PublicKeyBytes() []byte {
	return append([]byte(nil), k.publicKeyBytes...)
}

// Parameters returns the key's parameters.
func (k *ECIESPublicKey) Parameters() key.Parameters { return k.parameters }

// IDRequirement returns the required key ID and whether one is required.
func (k *ECIESPublicKey) IDRequirement() (uint32, bool) {
	return k.idRequirement, k.parameters.HasIDRequirement()
}

// Equal reports whether other is the same public key.
func (k *ECIESPublicKey) Equal(other key.Key) bool {
	o, ok := other.(*ECIESPublicKey)
	return ok && k.parameters.Equal(o.parameters) &&
		k.idRequirement == o.idRequirement &&
		subtle.ConstantTimeCompare(k.publicKeyBytes, o.publicKeyBytes) == 1
}

// Compile-time interface check.
var _ key.Key = (*ECIESPublicKey)(nil)

// ECIESPrivateKey is the decrypting half of an ECIES key pair.
type ECIESPrivateKey struct {
	publicKey       *ECIESPublicKey
	privateKeyBytes secret.Bytes
}

// NewECIESPrivateKey creates a private key from 32 bytes of guarded
// X25519 scalar material, deriving the corresponding public key.
func NewECIESPrivateKey(parameters *ECIESParameters, privateKeyBytes secret.Bytes, idRequirement uint32) (*ECIESPrivateKey, error) {
	if privateKeyBytes.Len() != curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: private key has %d bytes, want %d", tink.ErrInvalidArgument, privateKeyBytes.Len(), curve25519.ScalarSize)
	}
	raw, err := privateKeyBytes.Data()
	if err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(raw, curve25519.Basepoint)
	memguard.WipeBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tink.ErrInvalidArgument, err)
	}
	publicKey, err := NewECIESPublicKey(parameters, pub, idRequirement)
	if err != nil {
		return nil, err
	}
	return &ECIESPrivateKey{publicKey: publicKey, privateKeyBytes: privateKeyBytes}, nil
}

// PublicKey returns the corresponding public key.
func (k *ECIESPrivateKey) PublicKey() *ECIESPublicKey { return k.publicKey }

// PrivateKeyBytes returns the guarded private key material.
func (k *ECIESPrivateKey) PrivateKeyBytes() secret.Bytes { return k.privateKeyBytes }

// Parameters returns the key's parameters.
func (k *ECIESPrivateKey) Parameters() key.Parameters { return k.publicKey.parameters }

// IDRequirement returns the required key ID and whether one is required.
func (k *ECIESPrivateKey) IDRequirement() (uint32, bool) { return k.publicKey.IDRequirement() }

// Equal reports whether other is the same private key.
func (k *ECIESPrivateKey) Equal(other key.Key) bool {
	o, ok := other.(*ECIESPrivateKey)
	return ok && k.publicKey.Equal(o.publicKey) && k.privateKeyBytes.Equal(o.privateKeyBytes)
}

// Compile-time interface check.
var _ key.Key = (*ECIESPrivateKey)(nil)
