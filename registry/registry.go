// Package registry maps key types to the factories that turn key material
// into live primitives.
//
// Two resolution paths are supported. The typed path constructs a
// primitive from a parsed key.Key via a registered primitive constructor.
// The legacy path hands the serialized key material directly to a
// registered KeyManager; keyset resolution falls back to it when no typed
// parser or constructor is registered for a key type.
//
// A Registry is an explicit object with a documented lifecycle: construct
// it, register factories during an init phase, then serve many concurrent
// read-only resolutions. A process-wide Default registry exists for
// ergonomic use; tests should construct their own instance instead of
// resetting the default one.
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/keydata"
)

// KeyManager understands keys of one type: it can construct primitives
// from their serialized key material. The key type is identified by a
// type URL, the TypeURL field of the KeyData holding the material.
type KeyManager interface {
	// Primitive constructs a primitive from serialized key material.
	Primitive(serializedKey []byte) (any, error)

	// TypeURL returns the type URL of the keys this manager handles.
	TypeURL() string
}

// PrivateKeyManager is implemented by key managers of asymmetric private
// keys that can derive the corresponding public key data.
type PrivateKeyManager interface {
	KeyManager

	// PublicKeyData returns the key data of the public key corresponding
	// to the given serialized private key.
	PublicKeyData(serializedPrivateKey []byte) (*keydata.KeyData, error)
}

type managerEntry struct {
	km            KeyManager
	newKeyAllowed bool
}

type constructorEntry struct {
	construct func(key.Key) (any, error)
	fnPtr     uintptr
}

type creatorEntry struct {
	typeURL string
	create  func(p key.Parameters, idRequirement uint32, hasID bool) (key.Key, error)
	fnPtr   uintptr
}

// Registry holds the registered key managers, typed primitive
// constructors and key creators. It is safe for concurrent use:
// registrations are serialized, and readers observe each registration
// atomically.
type Registry struct {
	mu           sync.RWMutex
	managers     map[string]managerEntry
	constructors map[reflect.Type]constructorEntry
	creators     map[reflect.Type]creatorEntry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		managers:     make(map[string]managerEntry),
		constructors: make(map[reflect.Type]constructorEntry),
		creators:     make(map[reflect.Type]creatorEntry),
	}
}

var defaultRegistry = New()

// Default returns the process-wide registry used when no explicit one is
// injected.
func Default() *Registry {
	return defaultRegistry
}

// RegisterKeyManager registers km for its type URL. Registering the same
// manager type again with the same newKeyAllowed flag is a no-op;
// registering a different manager, or the same one with a different flag,
// fails with ErrAlreadyExists.
func (r *Registry) RegisterKeyManager(km KeyManager, newKeyAllowed bool) error {
	if km == nil || km.TypeURL() == "" {
		return fmt.Errorf("%w: key manager must not be nil and must have a type URL", tink.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.managers[km.TypeURL()]
	if ok {
		if reflect.TypeOf(existing.km) == reflect.TypeOf(km) && existing.newKeyAllowed == newKeyAllowed {
			return nil
		}
		return fmt.Errorf("%w: a different key manager for %q is already registered", tink.ErrAlreadyExists, km.TypeURL())
	}
	r.managers[km.TypeURL()] = managerEntry{km: km, newKeyAllowed: newKeyAllowed}
	return nil
}

// KeyManager returns the manager registered for typeURL.
func (r *Registry) KeyManager(typeURL string) (KeyManager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.managers[typeURL]
	if !ok {
		return nil, fmt.Errorf("%w: no key manager for %q", tink.ErrNotFound, typeURL)
	}
	return e.km, nil
}

// Primitive constructs a primitive from serialized key material of the
// given type URL via the registered key manager. Construction errors from
// the manager propagate unchanged.
func (r *Registry) Primitive(typeURL string, serializedKey []byte) (any, error) {
	km, err := r.KeyManager(typeURL)
	if err != nil {
		return nil, err
	}
	return km.Primitive(serializedKey)
}

// PrimitiveFromKeyData constructs a primitive from key data via the
// registered key manager.
func (r *Registry) PrimitiveFromKeyData(kd *keydata.KeyData) (any, error) {
	if kd == nil {
		return nil, fmt.Errorf("%w: key data must not be nil", tink.ErrInvalidArgument)
	}
	return r.Primitive(kd.TypeURL, kd.Value)
}

// PrimitiveFromKey constructs a primitive from a typed key via the
// registered primitive constructor for the key's type.
func (r *Registry) PrimitiveFromKey(k key.Key) (any, error) {
	if k == nil {
		return nil, fmt.Errorf("%w: key must not be nil", tink.ErrInvalidArgument)
	}
	r.mu.RLock()
	e, ok := r.constructors[reflect.TypeOf(k)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no primitive constructor for %T", tink.ErrNotFound, k)
	}
	return e.construct(k)
}

// NewKey generates a fresh typed key for the given parameters via the
// registered key creator. It fails with ErrFailedPrecondition if key
// generation has been disallowed for the key type.
func (r *Registry) NewKey(p key.Parameters, idRequirement uint32, hasID bool) (key.Key, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: parameters must not be nil", tink.ErrInvalidArgument)
	}
	r.mu.RLock()
	e, ok := r.creators[reflect.TypeOf(p)]
	var allowed, managed bool
	if ok {
		var m managerEntry
		m, managed = r.managers[e.typeURL]
		allowed = m.newKeyAllowed
	}
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no key creator for %T", tink.ErrNotFound, p)
	}
	if managed && !allowed {
		return nil, fmt.Errorf("%w: key generation disallowed for %q", tink.ErrFailedPrecondition, e.typeURL)
	}
	return e.create(p, idRequirement, hasID)
}

// Reset removes all registrations. It exists for test isolation only and
// is not safe to call while other goroutines register or resolve.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers = make(map[string]managerEntry)
	r.constructors = make(map[reflect.Type]constructorEntry)
	r.creators = make(map[reflect.Type]creatorEntry)
}

// RegisterPrimitiveConstructor registers constructor as the typed-key
// factory for keys of type K in r. Re-registering the same function is a
// no-op; registering a different function for the same key type fails
// with ErrAlreadyExists.
func RegisterPrimitiveConstructor[K key.Key](r *Registry, constructor func(K) (any, error)) error {
	if constructor == nil {
		return fmt.Errorf("%w: constructor must not be nil", tink.ErrInvalidArgument)
	}
	keyType := reflect.TypeFor[K]()
	ptr := reflect.ValueOf(constructor).Pointer()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.constructors[keyType]; ok {
		if existing.fnPtr == ptr {
			return nil
		}
		return fmt.Errorf("%w: a different primitive constructor for %v is already registered", tink.ErrAlreadyExists, keyType)
	}
	r.constructors[keyType] = constructorEntry{
		construct: func(k key.Key) (any, error) {
			typed, ok := k.(K)
			if !ok {
				return nil, fmt.Errorf("%w: key of type %T, want %v", tink.ErrInvalidArgument, k, keyType)
			}
			return constructor(typed)
		},
		fnPtr: ptr,
	}
	return nil
}

// RegisterKeyCreator registers creator as the key generator for
// parameters of type P in r, tied to the given type URL for the
// new-key-allowed policy. The same idempotence rules as for
// RegisterPrimitiveConstructor apply.
func RegisterKeyCreator[P key.Parameters](r *Registry, typeURL string, creator func(p P, idRequirement uint32, hasID bool) (key.Key, error)) error {
	if creator == nil {
		return fmt.Errorf("%w: creator must not be nil", tink.ErrInvalidArgument)
	}
	paramsType := reflect.TypeFor[P]()
	ptr := reflect.ValueOf(creator).Pointer()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.creators[paramsType]; ok {
		if existing.fnPtr == ptr && existing.typeURL == typeURL {
			return nil
		}
		return fmt.Errorf("%w: a different key creator for %v is already registered", tink.ErrAlreadyExists, paramsType)
	}
	r.creators[paramsType] = creatorEntry{
		typeURL: typeURL,
		create: func(p key.Parameters, idRequirement uint32, hasID bool) (key.Key, error) {
			typed, ok := p.(P)
			if !ok {
				return nil, fmt.Errorf("%w: parameters of type %T, want %v", tink.ErrInvalidArgument, p, paramsType)
			}
			return creator(typed, idRequirement, hasID)
		},
		fnPtr: ptr,
	}
	return nil
}
