package mac

import (
	"github.com/kingjay66/tink/registry"
	"github.com/kingjay66/tink/serialization"
)

// Register registers the MAC family with the process-wide registries.
// It is meant to be called once at startup, before any keyset holding
// MAC keys is resolved. Calling it again is a no-op; a conflicting
// registration made elsewhere surfaces as ErrAlreadyExists.
func Register() error {
	return RegisterWith(registry.Default(), serialization.Default())
}

// RegisterWith registers the MAC family with explicit registries. Tests
// use it to keep registrations isolated.
func RegisterWith(r *registry.Registry, sr *serialization.Registry) error {
	if err := r.RegisterKeyManager(hmacKeyManager{}, true); err != nil {
		return err
	}
	if err := registry.RegisterPrimitiveConstructor(r, hmacPrimitiveFromKey); err != nil {
		return err
	}
	if err := registry.RegisterKeyCreator(r, hmacTypeURL, createHMACKey); err != nil {
		return err
	}
	if err := sr.RegisterKeyParser(hmacTypeURL, hmacFormatVersion, parseHMACKey); err != nil {
		return err
	}
	return serialization.RegisterKeySerializer(sr, serializeHMACKey)
}
