package mac

import (
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/mac/subtle"
	"github.com/kingjay66/tink/secret"
	"github.com/kingjay66/tink/serialization"
)

const (
	hmacTypeURL = "type.googleapis.com/google.crypto.tink.HmacKey"

	// hmacFormatVersion is the wire format version carried in the first
	// byte of serialized HMAC key material.
	hmacFormatVersion byte = 0
)

// Wire layout of an HMAC key value, after the version byte:
// hash code (1) || tag size (1) || key bytes.
const hmacWireHeaderSize = 3

const (
	hashCodeSHA256 byte = 1
	hashCodeSHA512 byte = 2
)

func hashCodeOf(h HashType) (byte, error) {
	switch h {
	case SHA256:
		return hashCodeSHA256, nil
	case SHA512:
		return hashCodeSHA512, nil
	default:
		return 0, fmt.Errorf("%w: unsupported hash", tink.ErrInvalidArgument)
	}
}

func hashTypeOf(code byte) (HashType, error) {
	switch code {
	case hashCodeSHA256:
		return SHA256, nil
	case hashCodeSHA512:
		return SHA512, nil
	default:
		return UnknownHash, fmt.Errorf("%w: unknown hash code %d", tink.ErrInvalidArgument, code)
	}
}

func prefixTypeOfVariant(v Variant) (keydata.OutputPrefixType, error) {
	switch v {
	case VariantTink:
		return keydata.Tink, nil
	case VariantCrunchy:
		return keydata.Crunchy, nil
	case VariantLegacy:
		return keydata.Legacy, nil
	case VariantNoPrefix:
		return keydata.Raw, nil
	default:
		return keydata.UnknownPrefix, fmt.Errorf("%w: unsupported variant", tink.ErrInvalidArgument)
	}
}

func variantOfPrefixType(t keydata.OutputPrefixType) (Variant, error) {
	switch t {
	case keydata.Tink:
		return VariantTink, nil
	case keydata.Crunchy:
		return VariantCrunchy, nil
	case keydata.Legacy:
		return VariantLegacy, nil
	case keydata.Raw:
		return VariantNoPrefix, nil
	default:
		return VariantUnknown, fmt.Errorf("%w: unsupported output prefix type", tink.ErrInvalidArgument)
	}
}

func serializeHMACKey(k *HMACKey) (*serialization.KeySerialization, error) {
	params := k.parameters
	prefixType, err := prefixTypeOfVariant(params.Variant())
	if err != nil {
		return nil, err
	}
	hashCode, err := hashCodeOf(params.HashType())
	if err != nil {
		return nil, err
	}
	raw, err := k.KeyBytes().Data()
	if err != nil {
		return nil, err
	}
	value := make([]byte, hmacWireHeaderSize+len(raw))
	value[0] = hmacFormatVersion
	value[1] = hashCode
	value[2] = byte(params.TagSizeInBytes())
	copy(value[hmacWireHeaderSize:], raw)
	memguard.WipeBytes(raw)
	id, hasID := k.IDRequirement()
	return serialization.NewKeySerialization(keydata.KeyData{
		TypeURL:      hmacTypeURL,
		Value:        value,
		MaterialType: keydata.Symmetric,
	}, prefixType, id, hasID)
}

func parseHMACKey(s *serialization.KeySerialization) (key.Key, error) {
	v := s.KeyData().Value
	if len(v) < hmacWireHeaderSize+subtle.MinKeySizeInBytes {
		return nil, fmt.Errorf("%w: truncated HMAC key data", tink.ErrInvalidArgument)
	}
	hash, err := hashTypeOf(v[1])
	if err != nil {
		return nil, err
	}
	variant, err := variantOfPrefixType(s.OutputPrefixType())
	if err != nil {
		return nil, err
	}
	params, err := NewHMACParameters(len(v)-hmacWireHeaderSize, int(v[2]), hash, variant)
	if err != nil {
		return nil, err
	}
	id, hasID := s.IDRequirement()
	if !hasID {
		id = 0
	}
	return NewHMACKey(params, secret.NewBytesFromData(v[hmacWireHeaderSize:]), id)
}

func createHMACKey(p *HMACParameters, idRequirement uint32, hasID bool) (key.Key, error) {
	if p.HasIDRequirement() != hasID {
		return nil, fmt.Errorf("%w: ID requirement does not match parameters", tink.ErrInvalidArgument)
	}
	keyBytes, err := secret.NewBytesFromRand(p.KeySizeInBytes())
	if err != nil {
		return nil, err
	}
	if !hasID {
		idRequirement = 0
	}
	return NewHMACKey(p, keyBytes, idRequirement)
}

func hmacPrimitiveFromKey(k *HMACKey) (any, error) {
	params := k.parameters
	raw, err := k.KeyBytes().Data()
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(raw)
	return subtle.NewHMAC(params.HashType().String(), raw, params.TagSizeInBytes())
}

// hmacKeyManager is the legacy resolution path: it constructs the
// primitive straight from serialized key material.
type hmacKeyManager struct{}

func (hmacKeyManager) TypeURL() string { return hmacTypeURL }

func (hmacKeyManager) Primitive(serializedKey []byte) (any, error) {
	if len(serializedKey) < hmacWireHeaderSize+subtle.MinKeySizeInBytes {
		return nil, fmt.Errorf("%w: truncated HMAC key data", tink.ErrInvalidArgument)
	}
	if serializedKey[0] != hmacFormatVersion {
		return nil, fmt.Errorf("%w: unsupported HMAC key version %d", tink.ErrInvalidArgument, serializedKey[0])
	}
	hash, err := hashTypeOf(serializedKey[1])
	if err != nil {
		return nil, err
	}
	return subtle.NewHMAC(hash.String(), serializedKey[hmacWireHeaderSize:], int(serializedKey[2]))
}
