// Package keydata defines the wire-level keyset data model: key entries
// with status, output-prefix type and serialized key material tagged by a
// type URL. The typed counterparts of this model live in the key package;
// translation between the two is the serialization registry's job.
package keydata

import (
	"fmt"

	"github.com/kingjay66/tink"
)

// KeyStatus is the administrative status of a key entry.
type KeyStatus int

const (
	UnknownStatus KeyStatus = iota
	// Enabled keys participate in compute and verify operations.
	Enabled
	// Disabled keys are retained in the keyset but excluded from use.
	Disabled
	// Destroyed keys have had their material removed; only metadata remains.
	Destroyed
)

// String returns the status name.
func (s KeyStatus) String() string {
	switch s {
	case Enabled:
		return "ENABLED"
	case Disabled:
		return "DISABLED"
	case Destroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// OutputPrefixType selects the scheme used to derive the output prefix
// that ties a primitive's output to the key that produced it.
type OutputPrefixType int

const (
	UnknownPrefix OutputPrefixType = iota
	// Tink prefixes outputs with 0x01 followed by the big-endian key ID.
	Tink
	// Raw outputs carry no prefix.
	Raw
	// Legacy prefixes outputs with 0x00 followed by the big-endian key ID
	// and, for MACs, authenticates a trailing zero byte with the message.
	Legacy
	// Crunchy prefixes outputs like Legacy but without the trailing byte.
	Crunchy
)

// String returns the prefix type name.
func (t OutputPrefixType) String() string {
	switch t {
	case Tink:
		return "TINK"
	case Raw:
		return "RAW"
	case Legacy:
		return "LEGACY"
	case Crunchy:
		return "CRUNCHY"
	default:
		return "UNKNOWN"
	}
}

// KeyMaterialType describes the sensitivity of serialized key material.
type KeyMaterialType int

const (
	UnknownMaterial KeyMaterialType = iota
	Symmetric
	AsymmetricPrivate
	AsymmetricPublic
	// Remote material is a reference to a key held elsewhere (e.g. a KMS).
	Remote
)

// KeyData is serialized key material tagged with the type URL identifying
// its algorithm family and wire format.
type KeyData struct {
	TypeURL      string          `json:"type_url"`
	Value        []byte          `json:"value"`
	MaterialType KeyMaterialType `json:"key_material_type"`
}

// KeyEntry is one key of a keyset. Entries are immutable once part of a
// published keyset; only the status changes administratively, producing a
// new keyset version.
type KeyEntry struct {
	KeyID            uint32           `json:"key_id"`
	Status           KeyStatus        `json:"status"`
	OutputPrefixType OutputPrefixType `json:"output_prefix_type"`
	KeyData          KeyData          `json:"key_data"`
}

// Keyset is an ordered collection of key entries for one logical secret,
// with exactly one entry designated primary.
type Keyset struct {
	PrimaryKeyID uint32     `json:"primary_key_id"`
	Entries      []KeyEntry `json:"key"`
}

// Validate checks the keyset invariants: at least one enabled entry,
// non-zero unique key IDs, and a primary that exists and is enabled.
func (ks *Keyset) Validate() error {
	if ks == nil || len(ks.Entries) == 0 {
		return fmt.Errorf("%w: keyset has no keys", tink.ErrInvalidArgument)
	}
	enabled := 0
	primaryFound := false
	seen := make(map[uint32]bool, len(ks.Entries))
	for i := range ks.Entries {
		e := &ks.Entries[i]
		if e.KeyID == 0 {
			return fmt.Errorf("%w: key at index %d has zero key ID", tink.ErrInvalidArgument, i)
		}
		if seen[e.KeyID] {
			return fmt.Errorf("%w: duplicate key ID %d", tink.ErrInvalidArgument, e.KeyID)
		}
		seen[e.KeyID] = true
		if e.Status != Enabled && e.Status != Disabled && e.Status != Destroyed {
			return fmt.Errorf("%w: key %d has unknown status", tink.ErrInvalidArgument, e.KeyID)
		}
		if e.Status == Enabled {
			enabled++
			if e.KeyID == ks.PrimaryKeyID {
				primaryFound = true
			}
		}
	}
	if enabled == 0 {
		return fmt.Errorf("%w: keyset has no enabled keys", tink.ErrInvalidArgument)
	}
	if !primaryFound {
		return fmt.Errorf("%w: primary key %d missing or not enabled", tink.ErrInvalidArgument, ks.PrimaryKeyID)
	}
	return nil
}

// Entry returns the entry with the given key ID.
func (ks *Keyset) Entry(keyID uint32) (*KeyEntry, error) {
	for i := range ks.Entries {
		if ks.Entries[i].KeyID == keyID {
			return &ks.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: key %d not in keyset", tink.ErrNotFound, keyID)
}

// Clone returns a deep copy of the keyset.
func (ks *Keyset) Clone() *Keyset {
	out := &Keyset{PrimaryKeyID: ks.PrimaryKeyID, Entries: make([]KeyEntry, len(ks.Entries))}
	copy(out.Entries, ks.Entries)
	for i := range out.Entries {
		v := out.Entries[i].KeyData.Value
		out.Entries[i].KeyData.Value = append([]byte(nil), v...)
	}
	return out
}
