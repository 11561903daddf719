// Package key defines the typed in-memory representation of keys and key
// parameters that the serialization and primitive registries operate on.
package key

// Parameters describe a key without its secret material: algorithm choice,
// key and tag sizes, and the output-prefix variant.
type Parameters interface {
	// HasIDRequirement returns true if keys created from these parameters
	// must carry a key ID, i.e. if their output-prefix variant is not RAW.
	HasIDRequirement() bool

	// Equal reports whether this and other describe the same parameters.
	Equal(other Parameters) bool
}

// Key is a typed key: parameters plus key material.
type Key interface {
	// Parameters returns the parameters of the key.
	Parameters() Parameters

	// IDRequirement returns the required key ID and whether one is
	// required. If no ID is required, the returned ID is 0.
	IDRequirement() (uint32, bool)

	// Equal reports whether this and other represent the same key. Key
	// material comparison must be constant time.
	Equal(other Key) bool
}
