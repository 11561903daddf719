package aead

import (
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/aead/subtle"
	"github.com/kingjay66/tink/secret"
	"github.com/kingjay66/tink/serialization"
)

const (
	xChaChaTypeURL = "type.googleapis.com/google.crypto.tink.XChaCha20Poly1305Key"

	xChaChaFormatVersion byte = 0
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

func serializeXChaChaKey(k *XChaCha20Poly1305Key) (*serialization.KeySerialization, error) {
	prefixType, err := prefixTypeOfVariant(k.parameters.Variant())
	if err != nil {
		return nil, err
	}
	raw, err := k.KeyBytes().Data()
	if err != nil {
		return nil, err
	}
	value := make([]byte, 1+len(raw))
	value[0] = xChaChaFormatVersion
	copy(value[1:], raw)
	memguard.WipeBytes(raw)
	id, hasID := k.IDRequirement()
	return serialization.NewKeySerialization(keydata.KeyData{
		TypeURL:      xChaChaTypeURL,
		Value:        value,
		MaterialType: keydata.Symmetric,
	}, prefixType, id, hasID)
}

func parseXChaChaKey(s *serialization.KeySerialization) (key.Key, error) {
	v := s.KeyData().Value
	if len(v) != 1+chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: key data has %d bytes, want %d", tink.ErrInvalidArgument, len(v), 1+chacha20poly1305.KeySize)
	}
	variant, err := variantOfPrefixType(s.OutputPrefixType())
	if err != nil {
		return nil, err
	}
	params, err := NewXChaCha20Poly1305Parameters(variant)
	if err != nil {
		return nil, err
	}
	id, hasID := s.IDRequirement()
	if !hasID {
		id = 0
	}
	return NewXChaCha20Poly1305Key(params, secret.NewBytesFromData(v[1:]), id)
}

func createXChaChaKey(p *XChaCha20Poly1305Parameters, idRequirement uint32, hasID bool) (key.Key, error) {
	if p.HasIDRequirement() != hasID {
		return nil, fmt.Errorf("%w: ID requirement does not match parameters", tink.ErrInvalidArgument)
	}
	keyBytes, err := secret.NewBytesFromRand(chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	if !hasID {
		idRequirement = 0
	}
	return NewXChaCha20Poly1305Key(p, keyBytes, idRequirement)
}

func xChaChaPrimitiveFromKey(k *XChaCha20Poly1305Key) (any, error) {
	raw, err := k.KeyBytes().Data()
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(raw)
	return subtle.NewXChaCha20Poly1305(raw)
}

type xChaChaKeyManager struct{}

func (xChaChaKeyManager) TypeURL() string { return xChaChaTypeURL }

func (xChaChaKeyManager) Primitive(serializedKey []byte) (any, error) {
	if len(serializedKey) != 1+chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: key data has %d bytes, want %d", tink.ErrInvalidArgument, len(serializedKey), 1+chacha20poly1305.KeySize)
	}
	if serializedKey[0] != xChaChaFormatVersion {
		return nil, fmt.Errorf("%w: unsupported key version %d", tink.ErrInvalidArgument, serializedKey[0])
	}
	return subtle.NewXChaCha20Poly1305(serializedKey[1:])
}
