// Package mac provides MAC primitives backed by keysets with rotation
// support: computation uses the keyset's primary key, verification tries
// every enabled key the input's output prefix points at.
package mac

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/secret"
)

// Variant is the output-prefix variant of an HMAC key.
type Variant int

const (
	// VariantUnknown is the zero value and never valid.
	VariantUnknown Variant = iota
	// VariantTink prefixes tags with 0x01 and the big-endian key ID.
	VariantTink
	// VariantCrunchy prefixes tags with 0x00 and the big-endian key ID.
	VariantCrunchy
	// VariantLegacy is like VariantCrunchy but additionally authenticates
	// a trailing zero byte with the message.
	VariantLegacy
	// VariantNoPrefix produces raw tags with no prefix.
	VariantNoPrefix
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantTink:
		return "TINK"
	case VariantCrunchy:
		return "CRUNCHY"
	case VariantLegacy:
		return "LEGACY"
	case VariantNoPrefix:
		return "NO_PREFIX"
	default:
		return "UNKNOWN"
	}
}

// HashType is the hash function of an HMAC key.
type HashType int

const (
	UnknownHash HashType = iota
	SHA256
	SHA512
)

// String returns the hash name as used by the subtle layer.
func (h HashType) String() string {
	switch h {
	case SHA256:
		return "SHA256"
	case SHA512:
		return "SHA512"
	default:
		return "UNKNOWN"
	}
}

func (h HashType) digestSize() int {
	switch h {
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

// HMACParameters describe an HMAC key without its material.
type HMACParameters struct {
	keySizeInBytes int
	tagSizeInBytes int
	hash           HashType
	variant        Variant
}

// NewHMACParameters creates validated HMAC parameters.
func NewHMACParameters(keySizeInBytes, tagSizeInBytes int, hash HashType, variant Variant) (*HMACParameters, error) {
	if keySizeInBytes < 16 {
		return nil, fmt.Errorf("%w: key size %d too small", tink.ErrInvalidArgument, keySizeInBytes)
	}
	digest := hash.digestSize()
	if digest == 0 {
		return nil, fmt.Errorf("%w: unsupported hash", tink.ErrInvalidArgument)
	}
	if tagSizeInBytes < 10 || tagSizeInBytes > digest {
		return nil, fmt.Errorf("%w: tag size %d out of range for %s", tink.ErrInvalidArgument, tagSizeInBytes, hash)
	}
	if variant == VariantUnknown || variant > VariantNoPrefix {
		return nil, fmt.Errorf("%w: unsupported variant", tink.ErrInvalidArgument)
	}
	return &HMACParameters{
		keySizeInBytes: keySizeInBytes,
		tagSizeInBytes: tagSizeInBytes,
		hash:           hash,
		variant:        variant,
	}, nil
}

// KeySizeInBytes returns the key size.
func (p *HMACParameters) KeySizeInBytes() int { return p.keySizeInBytes }

// TagSizeInBytes returns the tag size.
func (p *HMACParameters) TagSizeInBytes() int { return p.tagSizeInBytes }

// HashType returns the hash function.
func (p *HMACParameters) HashType() HashType { return p.hash }

// Variant returns the output-prefix variant.
func (p *HMACParameters) Variant() Variant { return p.variant }

// HasIDRequirement returns true unless the variant is NO_PREFIX.
func (p *HMACParameters) HasIDRequirement() bool { return p.variant != VariantNoPrefix }

// Equal reports whether other describes the same parameters.
func (p *HMACParameters) Equal(other key.Parameters) bool {
	o, ok := other.(*HMACParameters)
	return ok && *p == *o
}

// Compile-time interface check.
var _ key.Parameters = (*HMACParameters)(nil)

// HMACKey is a typed HMAC key: parameters, guarded key material, and the
// key ID it is bound to when its variant requires one.
type HMACKey struct {
	parameters    *HMACParameters
	keyBytes      secret.Bytes
	idRequirement uint32
}

// NewHMACKey creates an HMACKey. The key material size must match the
// parameters; idRequirement must be 0 for NO_PREFIX keys.
func NewHMACKey(parameters *HMACParameters, keyBytes secret.Bytes, idRequirement uint32) (*HMACKey, error) {
	if parameters == nil {
		return nil, fmt.Errorf("%w: parameters must not be nil", tink.ErrInvalidArgument)
	}
	if keyBytes.Len() != parameters.KeySizeInBytes() {
		return nil, fmt.Errorf("%w: key has %d bytes, parameters require %d", tink.ErrInvalidArgument, keyBytes.Len(), parameters.KeySizeInBytes())
	}
	if !parameters.HasIDRequirement() && idRequirement != 0 {
		return nil, fmt.Errorf("%w: NO_PREFIX keys must not have an ID requirement", tink.ErrInvalidArgument)
	}
	return &HMACKey{parameters: parameters, keyBytes: keyBytes, idRequirement: idRequirement}, nil
}

// KeyBytes returns the guarded key material.
func (k *HMACKey) KeyBytes() secret.Bytes { return k.keyBytes }

// Parameters returns the key's parameters.
func (k *HMACKey) Parameters() key.Parameters { return k.parameters }

// IDRequirement returns the required key ID and whether one is required.
func (k *HMACKey) IDRequirement() (uint32, bool) {
	return k.idRequirement, k.parameters.HasIDRequirement()
}

// Equal reports whether other is the same key. Key material comparison is
// constant time.
func (k *HMACKey) Equal(other key.Key) bool {
	o, ok := other.(*HMACKey)
	return ok && k.parameters.Equal(o.parameters) &&
		k.idRequirement == o.idRequirement &&
		k.keyBytes.Equal(o.keyBytes)
}

// Compile-time interface check.
var _ key.Key = (*HMACKey)(nil)
