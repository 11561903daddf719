// Package keyset manages keysets: authoring and rotating them with a
// Manager, carrying them behind a Handle, resolving them into primitive
// sets, and reading and writing them through pluggable codecs.
package keyset

import (
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/monitoring"
	"github.com/kingjay66/tink/primitiveset"
	"github.com/kingjay66/tink/registry"
	"github.com/kingjay66/tink/serialization"
)

// Handle carries a validated keyset. Handles are immutable and safe to
// share; to modify a keyset, derive a Manager with NewManagerFromHandle.
type Handle struct {
	ks *keydata.Keyset
}

// NewHandle validates ks and returns a handle over a private copy of it.
func NewHandle(ks *keydata.Keyset) (*Handle, error) {
	if err := ks.Validate(); err != nil {
		return nil, err
	}
	return &Handle{ks: ks.Clone()}, nil
}

// Keyset returns a copy of the underlying keyset, including key material.
func (h *Handle) Keyset() *keydata.Keyset {
	return h.ks.Clone()
}

// KeysetInfo returns a material-free description of the keyset.
func (h *Handle) KeysetInfo() monitoring.KeysetInfo {
	info := monitoring.KeysetInfo{PrimaryKeyID: h.ks.PrimaryKeyID}
	for i := range h.ks.Entries {
		e := &h.ks.Entries[i]
		info.Entries = append(info.Entries, monitoring.KeyInfo{
			KeyID:            e.KeyID,
			Status:           e.Status.String(),
			TypeURL:          e.KeyData.TypeURL,
			OutputPrefixType: e.OutputPrefixType.String(),
		})
	}
	return info
}

// ResolveOption configures keyset resolution.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	reg  *registry.Registry
	sreg *serialization.Registry
}

// WithRegistry resolves primitives against r instead of the process-wide
// default registry.
func WithRegistry(r *registry.Registry) ResolveOption {
	return func(c *resolveConfig) { c.reg = r }
}

// WithSerializationRegistry parses keys with r instead of the
// process-wide default serialization registry.
func WithSerializationRegistry(r *serialization.Registry) ResolveOption {
	return func(c *resolveConfig) { c.sreg = r }
}

// Primitives resolves every enabled key of the keyset into a live
// primitive and assembles the result into a primitive set with the
// keyset's primary marked.
//
// Resolution is all-or-nothing: the first entry that fails to parse or
// instantiate aborts with the originating error and no partial set is
// returned. Per entry, the typed path (serialization registry, then typed
// primitive constructor) is tried first; if either step reports
// ErrNotFound, resolution falls back to the key manager registered for
// the entry's type URL.
func (h *Handle) Primitives(opts ...ResolveOption) (*primitiveset.PrimitiveSet, error) {
	cfg := resolveConfig{reg: registry.Default(), sreg: serialization.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	ps := primitiveset.New()
	for i := range h.ks.Entries {
		e := &h.ks.Entries[i]
		if e.Status != keydata.Enabled {
			continue
		}
		prim, err := resolveEntry(&cfg, e)
		if err != nil {
			return nil, fmt.Errorf("resolving key %d: %w", e.KeyID, err)
		}
		entry, err := ps.Add(prim, e)
		if err != nil {
			return nil, err
		}
		if e.KeyID == h.ks.PrimaryKeyID {
			if err := ps.MarkPrimary(entry); err != nil {
				return nil, err
			}
		}
	}
	if ps.Primary == nil {
		return nil, fmt.Errorf("%w: resolved set has no primary", tink.ErrInvalidArgument)
	}
	return ps, nil
}

func resolveEntry(cfg *resolveConfig, e *keydata.KeyEntry) (any, error) {
	hasID := e.OutputPrefixType != keydata.Raw
	var id uint32
	if hasID {
		id = e.KeyID
	}
	ser, err := serialization.NewKeySerialization(e.KeyData, e.OutputPrefixType, id, hasID)
	if err != nil {
		return nil, err
	}
	k, err := cfg.sreg.ParseKey(ser)
	if err == nil {
		prim, err := cfg.reg.PrimitiveFromKey(k)
		if err == nil {
			return prim, nil
		}
		if !tink.IsNotFound(err) {
			return nil, err
		}
	} else if !tink.IsNotFound(err) {
		return nil, err
	}
	return cfg.reg.PrimitiveFromKeyData(&e.KeyData)
}

// Public derives the keyset of public keys corresponding to this handle's
// private keys. Every non-destroyed entry's key manager must implement
// registry.PrivateKeyManager. Key IDs, statuses, prefix types and the
// primary designation carry over unchanged.
func (h *Handle) Public(opts ...ResolveOption) (*Handle, error) {
	cfg := resolveConfig{reg: registry.Default(), sreg: serialization.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	pub := &keydata.Keyset{PrimaryKeyID: h.ks.PrimaryKeyID}
	for i := range h.ks.Entries {
		e := &h.ks.Entries[i]
		out := keydata.KeyEntry{KeyID: e.KeyID, Status: e.Status, OutputPrefixType: e.OutputPrefixType}
		if e.Status != keydata.Destroyed {
			km, err := cfg.reg.KeyManager(e.KeyData.TypeURL)
			if err != nil {
				return nil, fmt.Errorf("deriving public key for key %d: %w", e.KeyID, err)
			}
			pkm, ok := km.(registry.PrivateKeyManager)
			if !ok {
				return nil, fmt.Errorf("%w: key %d is not an asymmetric private key", tink.ErrInvalidArgument, e.KeyID)
			}
			kd, err := pkm.PublicKeyData(e.KeyData.Value)
			if err != nil {
				return nil, fmt.Errorf("deriving public key for key %d: %w", e.KeyID, err)
			}
			out.KeyData = *kd
		}
		pub.Entries = append(pub.Entries, out)
	}
	return NewHandle(pub)
}
