// Package primitiveset provides a container for the live primitives
// resolved from one keyset.
//
// Primitives in a set correspond to keys in a keyset: one entry, the
// primary, performs compute operations (tag, encrypt, sign), while all
// enabled entries remain candidates for verify operations. Entries are
// grouped by output prefix so that a prefixed input narrows the candidate
// pool in one map lookup; within a group, insertion order is preserved and
// is also the verification trial order.
//
// A PrimitiveSet is mutable during construction only. Once handed to a
// wrapper it must not be modified and is then safe for concurrent use.
package primitiveset

import (
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/internal/cryptofmt"
	"github.com/kingjay66/tink/keydata"
)

// Entry pairs one live primitive with the metadata of the key it was
// constructed from. An Entry is owned by exactly one PrimitiveSet.
type Entry struct {
	KeyID      uint32
	Primitive  any
	Prefix     string
	PrefixType keydata.OutputPrefixType
	Status     keydata.KeyStatus
	TypeURL    string
}

// PrimitiveSet holds the entries resolved from a keyset, grouped by
// output prefix, with at most one entry marked primary.
type PrimitiveSet struct {
	// Primary is the entry used for compute operations, nil until marked.
	Primary *Entry

	// Entries maps an output prefix to the entries sharing it, in
	// insertion order.
	Entries map[string][]*Entry
}

// New returns an empty PrimitiveSet.
func New() *PrimitiveSet {
	return &PrimitiveSet{Entries: make(map[string][]*Entry)}
}

// Add appends a new entry for primitive and the given key entry, deriving
// the entry's output prefix, and returns it. The returned entry is the
// handle later passed to MarkPrimary.
func (ps *PrimitiveSet) Add(primitive any, ke *keydata.KeyEntry) (*Entry, error) {
	if primitive == nil || ke == nil {
		return nil, fmt.Errorf("%w: primitive and key entry must not be nil", tink.ErrInvalidArgument)
	}
	prefix, err := cryptofmt.OutputPrefix(ke)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		KeyID:      ke.KeyID,
		Primitive:  primitive,
		Prefix:     prefix,
		PrefixType: ke.OutputPrefixType,
		Status:     ke.Status,
		TypeURL:    ke.KeyData.TypeURL,
	}
	ps.Entries[prefix] = append(ps.Entries[prefix], e)
	return e, nil
}

// MarkPrimary designates e as the set's primary entry. It fails with
// ErrFailedPrecondition if e is not enabled, does not belong to the set,
// or a different entry is already primary. Marking the same entry twice
// is a no-op.
func (ps *PrimitiveSet) MarkPrimary(e *Entry) error {
	if e == nil {
		return fmt.Errorf("%w: entry must not be nil", tink.ErrInvalidArgument)
	}
	if !ps.contains(e) {
		return fmt.Errorf("%w: entry does not belong to this set", tink.ErrFailedPrecondition)
	}
	if e.Status != keydata.Enabled {
		return fmt.Errorf("%w: primary entry must be enabled", tink.ErrFailedPrecondition)
	}
	if ps.Primary != nil && ps.Primary != e {
		return fmt.Errorf("%w: a different entry is already primary", tink.ErrFailedPrecondition)
	}
	ps.Primary = e
	return nil
}

// RawEntries returns the entries with a RAW (empty) prefix, in insertion
// order.
func (ps *PrimitiveSet) RawEntries() []*Entry {
	return ps.EntriesForPrefix(cryptofmt.RawPrefix)
}

// EntriesForPrefix returns the entries sharing the given prefix, in
// insertion order.
func (ps *PrimitiveSet) EntriesForPrefix(prefix string) []*Entry {
	return ps.Entries[prefix]
}

func (ps *PrimitiveSet) contains(e *Entry) bool {
	for _, candidate := range ps.Entries[e.Prefix] {
		if candidate == e {
			return true
		}
	}
	return false
}
