package aead

import (
	"github.com/kingjay66/tink/registry"
	"github.com/kingjay66/tink/serialization"
)

// Register registers the AEAD family with the process-wide registries.
// Idempotent; see mac.Register for the contract.
func Register() error {
	return RegisterWith(registry.Default(), serialization.Default())
}

// RegisterWith registers the AEAD family with explicit registries.
func RegisterWith(r *registry.Registry, sr *serialization.Registry) error {
	if err := r.RegisterKeyManager(xChaChaKeyManager{}, true); err != nil {
		return err
	}
	if err := registry.RegisterPrimitiveConstructor(r, xChaChaPrimitiveFromKey); err != nil {
		return err
	}
	if err := registry.RegisterKeyCreator(r, xChaChaTypeURL, createXChaChaKey); err != nil {
		return err
	}
	if err := sr.RegisterKeyParser(xChaChaTypeURL, xChaChaFormatVersion, parseXChaChaKey); err != nil {
		return err
	}
	return serialization.RegisterKeySerializer(sr, serializeXChaChaKey)
}
