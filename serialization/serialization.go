// Package serialization translates between the wire keyset model and
// typed key objects.
//
// Each key type registers a parser, keyed by type URL and wire format
// version, and a serializer, keyed by the Go type of the key. Parsing an
// unregistered type URL or an unknown format version fails with
// ErrNotFound so that callers can fall back to the legacy key-manager
// path; malformed wire bytes fail with ErrInvalidArgument and are never
// silently truncated or coerced.
//
// Like the primitive registry, a Registry is registered once during an
// init phase and then read concurrently; a process-wide Default instance
// is provided.
package serialization

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/keydata"
)

// KeySerialization is the wire form of a single key: serialized material
// plus the output-prefix type and key ID it is bound to. The first byte
// of the key data value carries the wire format version.
type KeySerialization struct {
	keyData          keydata.KeyData
	outputPrefixType keydata.OutputPrefixType
	idRequirement    uint32
	hasIDRequirement bool
}

// NewKeySerialization creates a KeySerialization. Keys with a RAW prefix
// must not carry an ID requirement.
func NewKeySerialization(kd keydata.KeyData, prefixType keydata.OutputPrefixType, idRequirement uint32, hasID bool) (*KeySerialization, error) {
	if kd.TypeURL == "" {
		return nil, fmt.Errorf("%w: key data has no type URL", tink.ErrInvalidArgument)
	}
	if prefixType == keydata.Raw && hasID {
		return nil, fmt.Errorf("%w: RAW keys must not have an ID requirement", tink.ErrInvalidArgument)
	}
	if prefixType != keydata.Raw && !hasID {
		return nil, fmt.Errorf("%w: non-RAW keys must have an ID requirement", tink.ErrInvalidArgument)
	}
	return &KeySerialization{
		keyData:          kd,
		outputPrefixType: prefixType,
		idRequirement:    idRequirement,
		hasIDRequirement: hasID,
	}, nil
}

// KeyData returns the serialized key material.
func (s *KeySerialization) KeyData() keydata.KeyData { return s.keyData }

// OutputPrefixType returns the output-prefix type the key is bound to.
func (s *KeySerialization) OutputPrefixType() keydata.OutputPrefixType { return s.outputPrefixType }

// IDRequirement returns the required key ID and whether one is required.
func (s *KeySerialization) IDRequirement() (uint32, bool) {
	return s.idRequirement, s.hasIDRequirement
}

// KeyParser parses a wire key into its typed form.
type KeyParser func(*KeySerialization) (key.Key, error)

// KeySerializer converts a typed key into its wire form.
type KeySerializer func(key.Key) (*KeySerialization, error)

type parserEntry struct {
	version byte
	parse   KeyParser
	fnPtr   uintptr
}

type serializerEntry struct {
	serialize KeySerializer
	fnPtr     uintptr
}

// Registry holds the registered parsers and serializers.
type Registry struct {
	mu          sync.RWMutex
	parsers     map[string]parserEntry
	serializers map[reflect.Type]serializerEntry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		parsers:     make(map[string]parserEntry),
		serializers: make(map[reflect.Type]serializerEntry),
	}
}

var defaultRegistry = New()

// Default returns the process-wide serialization registry.
func Default() *Registry {
	return defaultRegistry
}

// RegisterKeyParser registers parser for the given type URL and wire
// format version. Re-registering the same function for the same version
// is a no-op; any other duplicate fails with ErrAlreadyExists.
func (r *Registry) RegisterKeyParser(typeURL string, version byte, parser KeyParser) error {
	if typeURL == "" || parser == nil {
		return fmt.Errorf("%w: type URL and parser must not be empty", tink.ErrInvalidArgument)
	}
	ptr := reflect.ValueOf(parser).Pointer()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.parsers[typeURL]; ok {
		if existing.fnPtr == ptr && existing.version == version {
			return nil
		}
		return fmt.Errorf("%w: a different key parser for %q is already registered", tink.ErrAlreadyExists, typeURL)
	}
	r.parsers[typeURL] = parserEntry{version: version, parse: parser, fnPtr: ptr}
	return nil
}

// ParseKey parses the wire key s into its typed form, dispatching on the
// type URL of its key data. An unregistered type URL or an unknown format
// version fails with ErrNotFound.
func (r *Registry) ParseKey(s *KeySerialization) (key.Key, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: key serialization must not be nil", tink.ErrInvalidArgument)
	}
	r.mu.RLock()
	e, ok := r.parsers[s.keyData.TypeURL]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no key parser for %q", tink.ErrNotFound, s.keyData.TypeURL)
	}
	if len(s.keyData.Value) == 0 {
		return nil, fmt.Errorf("%w: empty key data value", tink.ErrInvalidArgument)
	}
	if s.keyData.Value[0] != e.version {
		return nil, fmt.Errorf("%w: unknown format version %d for %q", tink.ErrNotFound, s.keyData.Value[0], s.keyData.TypeURL)
	}
	return e.parse(s)
}

// SerializeKey converts the typed key k into its wire form, dispatching
// on k's runtime type. An unregistered key type fails with ErrNotFound.
func (r *Registry) SerializeKey(k key.Key) (*KeySerialization, error) {
	if k == nil {
		return nil, fmt.Errorf("%w: key must not be nil", tink.ErrInvalidArgument)
	}
	r.mu.RLock()
	e, ok := r.serializers[reflect.TypeOf(k)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no key serializer for %T", tink.ErrNotFound, k)
	}
	return e.serialize(k)
}

// Reset removes all registrations. Test-only; not safe concurrently with
// any other registry operation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = make(map[string]parserEntry)
	r.serializers = make(map[reflect.Type]serializerEntry)
}

// RegisterKeySerializer registers serializer as the wire converter for
// keys of type K in r, with the same idempotence rules as
// RegisterKeyParser.
func RegisterKeySerializer[K key.Key](r *Registry, serializer func(K) (*KeySerialization, error)) error {
	if serializer == nil {
		return fmt.Errorf("%w: serializer must not be nil", tink.ErrInvalidArgument)
	}
	keyType := reflect.TypeFor[K]()
	ptr := reflect.ValueOf(serializer).Pointer()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.serializers[keyType]; ok {
		if existing.fnPtr == ptr {
			return nil
		}
		return fmt.Errorf("%w: a different key serializer for %v is already registered", tink.ErrAlreadyExists, keyType)
	}
	r.serializers[keyType] = serializerEntry{
		serialize: func(k key.Key) (*KeySerialization, error) {
			typed, ok := k.(K)
			if !ok {
				return nil, fmt.Errorf("%w: key of type %T, want %v", tink.ErrInvalidArgument, k, keyType)
			}
			return serializer(typed)
		},
		fnPtr: ptr,
	}
	return nil
}
