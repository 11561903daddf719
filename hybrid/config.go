package hybrid

import (
	"github.com/kingjay66/tink/registry"
	"github.com/kingjay66/tink/serialization"
)

// Register registers the hybrid encryption family with the process-wide
// registries. Idempotent; see mac.Register for the contract.
func Register() error {
	return RegisterWith(registry.Default(), serialization.Default())
}

// RegisterWith registers the hybrid encryption family with explicit
// registries.
func RegisterWith(r *registry.Registry, sr *serialization.Registry) error {
	if err := r.RegisterKeyManager(eciesPrivateKeyManager{}, true); err != nil {
		return err
	}
	if err := r.RegisterKeyManager(eciesPublicKeyManager{}, false); err != nil {
		return err
	}
	if err := registry.RegisterPrimitiveConstructor(r, eciesDecryptFromKey); err != nil {
		return err
	}
	if err := registry.RegisterPrimitiveConstructor(r, eciesEncryptFromKey); err != nil {
		return err
	}
	if err := registry.RegisterKeyCreator(r, eciesPrivateTypeURL, createECIESKey); err != nil {
		return err
	}
	if err := sr.RegisterKeyParser(eciesPrivateTypeURL, eciesFormatVersion, parseECIESPrivateKey); err != nil {
		return err
	}
	if err := sr.RegisterKeyParser(eciesPublicTypeURL, eciesFormatVersion, parseECIESPublicKey); err != nil {
		return err
	}
	if err := serialization.RegisterKeySerializer(sr, serializeECIESPrivateKey); err != nil {
		return err
	}
	return serialization.RegisterKeySerializer(sr, serializeECIESPublicKey)
}
