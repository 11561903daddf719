package keyset

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/registry"
	"github.com/kingjay66/tink/serialization"
)

// Manager authors and rotates a keyset. A Manager is not safe for
// concurrent use; publish the result as an immutable Handle instead.
type Manager struct {
	ks   *keydata.Keyset
	reg  *registry.Registry
	sreg *serialization.Registry
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerRegistry generates keys against r instead of the
// process-wide default registry.
func WithManagerRegistry(r *registry.Registry) ManagerOption {
	return func(m *Manager) { m.reg = r }
}

// WithManagerSerializationRegistry serializes generated keys with r
// instead of the process-wide default serialization registry.
func WithManagerSerializationRegistry(r *serialization.Registry) ManagerOption {
	return func(m *Manager) { m.sreg = r }
}

// NewManager returns a Manager over an empty keyset.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		ks:   &keydata.Keyset{},
		reg:  registry.Default(),
		sreg: serialization.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerFromHandle returns a Manager over a copy of the handle's
// keyset. The handle itself is never modified.
func NewManagerFromHandle(h *Handle, opts ...ManagerOption) *Manager {
	m := NewManager(opts...)
	m.ks = h.Keyset()
	return m
}

// Add generates a fresh key for the given parameters, appends it to the
// keyset as an enabled entry with a new random key ID, and returns that
// ID. The new key does not become primary; call SetPrimary to rotate.
func (m *Manager) Add(p key.Parameters) (uint32, error) {
	if p == nil {
		return 0, fmt.Errorf("%w: parameters must not be nil", tink.ErrInvalidArgument)
	}
	id, err := m.newKeyID()
	if err != nil {
		return 0, err
	}
	hasID := p.HasIDRequirement()
	var idRequirement uint32
	if hasID {
		idRequirement = id
	}
	k, err := m.reg.NewKey(p, idRequirement, hasID)
	if err != nil {
		return 0, err
	}
	ser, err := m.sreg.SerializeKey(k)
	if err != nil {
		return 0, err
	}
	m.ks.Entries = append(m.ks.Entries, keydata.KeyEntry{
		KeyID:            id,
		Status:           keydata.Enabled,
		OutputPrefixType: ser.OutputPrefixType(),
		KeyData:          ser.KeyData(),
	})
	return id, nil
}

// SetPrimary designates the key with the given ID as primary. The key
// must exist and be enabled.
func (m *Manager) SetPrimary(keyID uint32) error {
	e, err := m.ks.Entry(keyID)
	if err != nil {
		return err
	}
	if e.Status != keydata.Enabled {
		return fmt.Errorf("%w: key %d is not enabled", tink.ErrFailedPrecondition, keyID)
	}
	m.ks.PrimaryKeyID = keyID
	return nil
}

// Enable re-enables a disabled key. Destroyed keys cannot be re-enabled.
func (m *Manager) Enable(keyID uint32) error {
	e, err := m.ks.Entry(keyID)
	if err != nil {
		return err
	}
	if e.Status == keydata.Destroyed {
		return fmt.Errorf("%w: key %d is destroyed", tink.ErrFailedPrecondition, keyID)
	}
	e.Status = keydata.Enabled
	return nil
}

// Disable marks a key as disabled. The primary key cannot be disabled.
func (m *Manager) Disable(keyID uint32) error {
	if keyID == m.ks.PrimaryKeyID {
		return fmt.Errorf("%w: cannot disable the primary key", tink.ErrFailedPrecondition)
	}
	e, err := m.ks.Entry(keyID)
	if err != nil {
		return err
	}
	if e.Status == keydata.Destroyed {
		return fmt.Errorf("%w: key %d is destroyed", tink.ErrFailedPrecondition, keyID)
	}
	e.Status = keydata.Disabled
	return nil
}

// Destroy removes a key's material, keeping only its metadata. The
// primary key cannot be destroyed.
func (m *Manager) Destroy(keyID uint32) error {
	if keyID == m.ks.PrimaryKeyID {
		return fmt.Errorf("%w: cannot destroy the primary key", tink.ErrFailedPrecondition)
	}
	e, err := m.ks.Entry(keyID)
	if err != nil {
		return err
	}
	e.Status = keydata.Destroyed
	e.KeyData = keydata.KeyData{}
	return nil
}

// Delete removes a key from the keyset entirely. The primary key cannot
// be deleted.
func (m *Manager) Delete(keyID uint32) error {
	if keyID == m.ks.PrimaryKeyID {
		return fmt.Errorf("%w: cannot delete the primary key", tink.ErrFailedPrecondition)
	}
	for i := range m.ks.Entries {
		if m.ks.Entries[i].KeyID == keyID {
			m.ks.Entries = append(m.ks.Entries[:i], m.ks.Entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: key %d not in keyset", tink.ErrNotFound, keyID)
}

// Handle validates the current keyset and publishes it as an immutable
// Handle. The Manager can keep mutating its own copy afterwards.
func (m *Manager) Handle() (*Handle, error) {
	return NewHandle(m.ks)
}

func (m *Manager) newKeyID() (uint32, error) {
	var buf [4]byte
	for range 16 {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("keyset: generating key ID: %w", err)
		}
		id := binary.BigEndian.Uint32(buf[:])
		if id == 0 {
			continue
		}
		if _, err := m.ks.Entry(id); err != nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("keyset: could not generate a fresh key ID")
}
