package hybrid

import (
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/curve25519"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/hybrid/subtle"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/secret"
	"github.com/kingjay66/tink/serialization"
)

const (
	eciesPrivateTypeURL = "type.googleapis.com/google.crypto.tink.EciesX25519PrivateKey"
	eciesPublicTypeURL  = "type.googleapis.com/google.crypto.tink.EciesX25519PublicKey"

	eciesFormatVersion byte = 0
)

func prefixTypeOfVariant(v Variant) (keydata.OutputPrefixType, error) {
	switch v {
	case VariantTink:
		return keydata.Tink, nil
	case VariantCrunchy:
		return keydata.Crunchy, nil
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
	case keydata.Crunchy, keydata.Legacy:
		return VariantCrunchy, nil
	case keydata.Raw:
		return VariantNoPrefix, nil
	default:
		return VariantUnknown, fmt.Errorf("%w: unsupported output prefix type", tink.ErrInvalidArgument)
	}
}

func serializeECIESPrivateKey(k *ECIESPrivateKey) (*serialization.KeySerialization, error) {
	params := k.publicKey.parameters
	prefixType, err := prefixTypeOfVariant(params.Variant())
	if err != nil {
		return nil, err
	}
	raw, err := k.PrivateKeyBytes().Data()
	if err != nil {
		return nil, err
	}
	value := make([]byte, 1+len(raw))
	value[0] = eciesFormatVersion
	copy(value[1:], raw)
	memguard.WipeBytes(raw)
	id, hasID := k.IDRequirement()
	return serialization.NewKeySerialization(keydata.KeyData{
		TypeURL:      eciesPrivateTypeURL,
		Value:        value,
		MaterialType: keydata.AsymmetricPrivate,
	}, prefixType, id, hasID)
}

func parseECIESPrivateKey(s *serialization.KeySerialization) (key.Key, error) {
	v := s.KeyData().Value
	if len(v) != 1+curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: private key data has %d bytes, want %d", tink.ErrInvalidArgument, len(v), 1+curve25519.ScalarSize)
	}
	variant, err := variantOfPrefixType(s.OutputPrefixType())
	if err != nil {
		return nil, err
	}
	params, err := NewECIESParameters(variant)
	if err != nil {
		return nil, err
	}
	id, hasID := s.IDRequirement()
	if !hasID {
		id = 0
	}
	return NewECIESPrivateKey(params, secret.NewBytesFromData(v[1:]), id)
}

func serializeECIESPublicKey(k *ECIESPublicKey) (*serialization.KeySerialization, error) {
	prefixType, err := prefixTypeOfVariant(k.parameters.Variant())
	if err != nil {
		return nil, err
	}
	value := make([]byte, 1+curve25519.PointSize)
	value[0] = eciesFormatVersion
	copy(value[1:], k.publicKeyBytes)
	id, hasID := k.IDRequirement()
	return serialization.NewKeySerialization(keydata.KeyData{
		TypeURL:      eciesPublicTypeURL,
		Value:        value,
		MaterialType: keydata.AsymmetricPublic,
	}, prefixType, id, hasID)
}

func parseECIESPublicKey(s *serialization.KeySerialization) (key.Key, error) {
	v := s.KeyData().Value
	if len(v) != 1+curve25519.PointSize {
		return nil, fmt.Errorf("%w: public key data has %d bytes, want %d", tink.ErrInvalidArgument, len(v), 1+curve25519.PointSize)
	}
	variant, err := variantOfPrefixType(s.OutputPrefixType())
	if err != nil {
		return nil, err
	}
	params, err := NewECIESParameters(variant)
	if err != nil {
		return nil, err
	}
	id, hasID := s.IDRequirement()
	if !hasID {
		id = 0
	}
	return NewECIESPublicKey(params, v[1:], id)
}

func createECIESKey(p *ECIESParameters, idRequirement uint32, hasID bool) (key.Key, error) {
	if p.HasIDRequirement() != hasID {
		return nil, fmt.Errorf("%w: ID requirement does not match parameters", tink.ErrInvalidArgument)
	}
	privateKeyBytes, err := secret.NewBytesFromRand(curve25519.ScalarSize)
	if err != nil {
		return nil, err
	}
	if !hasID {
		idRequirement = 0
	}
	return NewECIESPrivateKey(p, privateKeyBytes, idRequirement)
}

func eciesDecryptFromKey(k *ECIESPrivateKey) (any, error) {
	raw, err := k.PrivateKeyBytes().Data()
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(raw)
	return subtle.NewECIESX25519Decrypt(raw)
}

func eciesEncryptFromKey(k *ECIESPublicKey) (any, error) {
	return subtle.NewECIESX25519Encrypt(k.publicKeyBytes)
}

// eciesPrivateKeyManager is the legacy resolution path for private keys.
// It also derives public key data for keyset.Handle.Public.
type eciesPrivateKeyManager struct{}

func (eciesPrivateKeyManager) TypeURL() string { return eciesPrivateTypeURL }

func (eciesPrivateKeyManager) Primitive(serializedKey []byte) (any, error) {
	if len(serializedKey) != 1+curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: private key data has %d bytes, want %d", tink.ErrInvalidArgument, len(serializedKey), 1+curve25519.ScalarSize)
	}
	if serializedKey[0] != eciesFormatVersion {
		return nil, fmt.Errorf("%w: unsupported key version %d", tink.ErrInvalidArgument, serializedKey[0])
	}
	return subtle.NewECIESX25519Decrypt(serializedKey[1:])
}

func (eciesPrivateKeyManager) PublicKeyData(serializedPrivateKey []byte) (*keydata.KeyData, error) {
	if len(serializedPrivateKey) != 1+curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: private key data has %d bytes, want %d", tink.ErrInvalidArgument, len(serializedPrivateKey), 1+curve25519.ScalarSize)
	}
	if serializedPrivateKey[0] != eciesFormatVersion {
		return nil, fmt.Errorf("%w: unsupported key version %d", tink.ErrInvalidArgument, serializedPrivateKey[0])
	}
	pub, err := curve25519.X25519(serializedPrivateKey[1:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tink.ErrInvalidArgument, err)
	}
	value := make([]byte, 1+curve25519.PointSize)
	value[0] = eciesFormatVersion
	copy(value[1:], pub)
	return &keydata.KeyData{
		TypeURL:      eciesPublicTypeURL,
		Value:        value,
		MaterialType: keydata.AsymmetricPublic,
	}, nil
}

type eciesPublicKeyManager struct{}

func (eciesPublicKeyManager) TypeURL() string { return eciesPublicTypeURL }

func (eciesPublicKeyManager) Primitive(serializedKey []byte) (any, error) {
	if len(serializedKey) != 1+curve25519.PointSize {
		return nil, fmt.Errorf("%w: public key data has %d bytes, want %d", tink.ErrInvalidArgument, len(serializedKey), 1+curve25519.PointSize)
	}
	if serializedKey[0] != eciesFormatVersion {
		return nil, fmt.Errorf("%w: unsupported key version %d", tink.ErrInvalidArgument, serializedKey[0])
	}
	return subtle.NewECIESX25519Encrypt(serializedKey[1:])
}
