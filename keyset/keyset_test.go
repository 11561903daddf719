package keyset

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	jsoncodec "github.com/rbaliyan/config/codec/json"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/registry"
	"github.com/kingjay66/tink/serialization"
)

const testTypeURL = "type.test/stub"

type stubParameters struct{}

func (stubParameters) HasIDRequirement() bool      { return true }
func (stubParameters) Equal(o key.Parameters) bool { _, ok := o.(stubParameters); return ok }

type stubKey struct {
	material []byte
	id       uint32
}

func (k *stubKey) Parameters() key.Parameters    { return stubParameters{} }
func (k *stubKey) IDRequirement() (uint32, bool) { return k.id, true }
func (k *stubKey) Equal(other key.Key) bool {
	o, ok := other.(*stubKey)
	return ok && k.id == o.id && bytes.Equal(k.material, o.material)
}

// stubPrimitive records which resolution path produced it.
type stubPrimitive struct {
	material []byte
	typed    bool
}

type stubKeyManager struct{}

func (stubKeyManager) TypeURL() string { return testTypeURL }
func (stubKeyManager) Primitive(serializedKey []byte) (any, error) {
	if len(serializedKey) < 1 {
		return nil, tink.ErrInvalidArgument
	}
	return &stubPrimitive{material: serializedKey[1:]}, nil
}

func stubConstructor(k *stubKey) (any, error) {
	return &stubPrimitive{material: k.material, typed: true}, nil
}

func stubCreator(p stubParameters, idRequirement uint32, hasID bool) (key.Key, error) {
	return &stubKey{material: []byte{byte(idRequirement)}, id: idRequirement}, nil
}

func parseStubKey(s *serialization.KeySerialization) (key.Key, error) {
	v := s.KeyData().Value
	if len(v) < 1 {
		return nil, tink.ErrInvalidArgument
	}
	id, _ := s.IDRequirement()
	return &stubKey{material: append([]byte(nil), v[1:]...), id: id}, nil
}

func serializeStubKey(k *stubKey) (*serialization.KeySerialization, error) {
	value := append([]byte{0}, k.material...)
	return serialization.NewKeySerialization(keydata.KeyData{
		TypeURL:      testTypeURL,
		Value:        value,
		MaterialType: keydata.Symmetric,
	}, keydata.Tink, k.id, true)
}

// newTestRegistries returns a fully wired pair of fresh registries.
func newTestRegistries(t *testing.T) (*registry.Registry, *serialization.Registry) {
	t.Helper()
	r := registry.New()
	sr := serialization.New()
	if err := r.RegisterKeyManager(stubKeyManager{}, true); err != nil {
		t.Fatal(err)
	}
	if err := registry.RegisterPrimitiveConstructor(r, stubConstructor); err != nil {
		t.Fatal(err)
	}
	if err := registry.RegisterKeyCreator(r, testTypeURL, stubCreator); err != nil {
		t.Fatal(err)
	}
	if err := sr.RegisterKeyParser(testTypeURL, 0, parseStubKey); err != nil {
		t.Fatal(err)
	}
	if err := serialization.RegisterKeySerializer(sr, serializeStubKey); err != nil {
		t.Fatal(err)
	}
	return r, sr
}

func newTestManager(t *testing.T) (*Manager, *registry.Registry, *serialization.Registry) {
	t.Helper()
	r, sr := newTestRegistries(t)
	return NewManager(WithManagerRegistry(r), WithManagerSerializationRegistry(sr)), r, sr
}

func TestManagerAddAndSetPrimary(t *testing.T) {
	m, _, _ := newTestManager(t)
	id, err := m.Add(stubParameters{})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id == 0 {
		t.Fatal("Add returned zero key ID")
	}
	if err := m.SetPrimary(id); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	h, err := m.Handle()
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	ks := h.Keyset()
	if ks.PrimaryKeyID != id {
		t.Errorf("PrimaryKeyID: got %d, want %d", ks.PrimaryKeyID, id)
	}
	if len(ks.Entries) != 1 || ks.Entries[0].Status != keydata.Enabled {
		t.Errorf("Entries: got %+v", ks.Entries)
	}
}

func TestManagerHandleWithoutPrimary(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Add(stubParameters{}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := m.Handle(); !tink.IsInvalidArgument(err) {
		t.Errorf("Handle without primary: got %v, want ErrInvalidArgument", err)
	}
}

func TestManagerUniqueKeyIDs(t *testing.T) {
	m, _, _ := newTestManager(t)
	seen := make(map[uint32]bool)
	for range 8 {
		id, err := m.Add(stubParameters{})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate key ID %d", id)
		}
		seen[id] = true
	}
}

func TestManagerStatusTransitions(t *testing.T) {
	m, _, _ := newTestManager(t)
	primary, err := m.Add(stubParameters{})
	if err != nil {
		t.Fatal(err)
	}
	other, err := m.Add(stubParameters{})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetPrimary(primary); err != nil {
		t.Fatal(err)
	}

	if err := m.Disable(primary); !tink.IsFailedPrecondition(err) {
		t.Errorf("Disable(primary): got %v, want ErrFailedPrecondition", err)
	}
	if err := m.Destroy(primary); !tink.IsFailedPrecondition(err) {
		t.Errorf("Destroy(primary): got %v, want ErrFailedPrecondition", err)
	}
	if err := m.Delete(primary); !tink.IsFailedPrecondition(err) {
		t.Errorf("Delete(primary): got %v, want ErrFailedPrecondition", err)
	}

	if err := m.Disable(other); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if err := m.SetPrimary(other); !tink.IsFailedPrecondition(err) {
		t.Errorf("SetPrimary(disabled): got %v, want ErrFailedPrecondition", err)
	}
	if err := m.Enable(other); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := m.Destroy(other); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := m.Enable(other); !tink.IsFailedPrecondition(err) {
		t.Errorf("Enable(destroyed): got %v, want ErrFailedPrecondition", err)
	}
	if err := m.Delete(other); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(other); !tink.IsNotFound(err) {
		t.Errorf("Delete(gone): got %v, want ErrNotFound", err)
	}
}

func newTestHandle(t *testing.T, numKeys int) (*Handle, []uint32, *registry.Registry, *serialization.Registry) {
	t.Helper()
	m, r, sr := newTestManager(t)
	ids := make([]uint32, 0, numKeys)
	for range numKeys {
		id, err := m.Add(stubParameters{})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if err := m.SetPrimary(ids[0]); err != nil {
		t.Fatal(err)
	}
	h, err := m.Handle()
	if err != nil {
		t.Fatal(err)
	}
	return h, ids, r, sr
}

func TestPrimitivesTypedPathPreferred(t *testing.T) {
	h, ids, r, sr := newTestHandle(t, 2)
	ps, err := h.Primitives(WithRegistry(r), WithSerializationRegistry(sr))
	if err != nil {
		t.Fatalf("Primitives: %v", err)
	}
	if ps.Primary == nil || ps.Primary.KeyID != ids[0] {
		t.Fatalf("Primary: got %+v, want key %d", ps.Primary, ids[0])
	}
	if !ps.Primary.Primitive.(*stubPrimitive).typed {
		t.Error("primary resolved through the legacy path, want typed path")
	}
}

func TestPrimitivesFallbackToKeyManager(t *testing.T) {
	h, _, r, _ := newTestHandle(t, 1)
	// An empty serialization registry forces the legacy key-manager path.
	ps, err := h.Primitives(WithRegistry(r), WithSerializationRegistry(serialization.New()))
	if err != nil {
		t.Fatalf("Primitives: %v", err)
	}
	if ps.Primary.Primitive.(*stubPrimitive).typed {
		t.Error("primary resolved through the typed path, want legacy fallback")
	}
}

func TestPrimitivesAllOrNothing(t *testing.T) {
	h, _, _, sr := newTestHandle(t, 2)
	// A registry without managers or constructors cannot resolve any entry.
	if _, err := h.Primitives(WithRegistry(registry.New()), WithSerializationRegistry(sr)); !tink.IsNotFound(err) {
		t.Errorf("Primitives: got %v, want ErrNotFound", err)
	}
}

func TestPrimitivesSkipDisabled(t *testing.T) {
	h, ids, r, sr := newTestHandle(t, 3)
	m := NewManagerFromHandle(h, WithManagerRegistry(r), WithManagerSerializationRegistry(sr))
	if err := m.Disable(ids[2]); err != nil {
		t.Fatal(err)
	}
	h2, err := m.Handle()
	if err != nil {
		t.Fatal(err)
	}
	ps, err := h2.Primitives(WithRegistry(r), WithSerializationRegistry(sr))
	if err != nil {
		t.Fatalf("Primitives: %v", err)
	}
	total := 0
	for _, entries := range ps.Entries {
		for _, e := range entries {
			if e.KeyID == ids[2] {
				t.Error("disabled key resolved into the primitive set")
			}
			total++
		}
	}
	if total != 2 {
		t.Errorf("resolved %d entries, want 2", total)
	}
}

func TestNewHandleValidates(t *testing.T) {
	if _, err := NewHandle(&keydata.Keyset{}); !tink.IsInvalidArgument(err) {
		t.Errorf("NewHandle(empty): got %v, want ErrInvalidArgument", err)
	}
}

func TestHandleIsolation(t *testing.T) {
	h, _, _, _ := newTestHandle(t, 1)
	ks := h.Keyset()
	ks.Entries[0].KeyData.Value[0] = 99
	ks.PrimaryKeyID = 0
	if diff := cmp.Diff(h.Keyset().PrimaryKeyID, h.ks.PrimaryKeyID); diff != "" {
		t.Errorf("handle keyset changed (-got +want):\n%s", diff)
	}
	if h.ks.Entries[0].KeyData.Value[0] == 99 {
		t.Error("mutating the copied keyset changed the handle")
	}
}

func TestKeysetInfoCarriesNoMaterial(t *testing.T) {
	h, ids, _, _ := newTestHandle(t, 2)
	info := h.KeysetInfo()
	if info.PrimaryKeyID != ids[0] {
		t.Errorf("PrimaryKeyID: got %d, want %d", info.PrimaryKeyID, ids[0])
	}
	if len(info.Entries) != 2 {
		t.Fatalf("Entries: got %d, want 2", len(info.Entries))
	}
	if info.Entries[0].Status != "ENABLED" || info.Entries[0].TypeURL != testTypeURL {
		t.Errorf("Entries[0]: got %+v", info.Entries[0])
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	h, _, _, _ := newTestHandle(t, 2)

	var buf bytes.Buffer
	if err := Write(h, &buf, jsoncodec.New()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf, jsoncodec.New())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff(h.Keyset(), got.Keyset()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

type stubPrivateKeyManager struct{ stubKeyManager }

func (stubPrivateKeyManager) PublicKeyData(serializedPrivateKey []byte) (*keydata.KeyData, error) {
	if len(serializedPrivateKey) < 1 {
		return nil, tink.ErrInvalidArgument
	}
	// The "public key" of a stub key is its material with every byte
	// incremented.
	value := append([]byte(nil), serializedPrivateKey...)
	for i := 1; i < len(value); i++ {
		value[i]++
	}
	return &keydata.KeyData{
		TypeURL:      "type.test/stub-public",
		Value:        value,
		MaterialType: keydata.AsymmetricPublic,
	}, nil
}

func TestPublic(t *testing.T) {
	h, ids, _, _ := newTestHandle(t, 2)
	r := registry.New()
	if err := r.RegisterKeyManager(stubPrivateKeyManager{}, true); err != nil {
		t.Fatal(err)
	}
	pub, err := h.Public(WithRegistry(r))
	if err != nil {
		t.Fatalf("Public: %v", err)
	}
	ks := pub.Keyset()
	if ks.PrimaryKeyID != ids[0] {
		t.Errorf("PrimaryKeyID: got %d, want %d", ks.PrimaryKeyID, ids[0])
	}
	for i, e := range ks.Entries {
		if e.KeyID != ids[i] {
			t.Errorf("Entries[%d].KeyID: got %d, want %d", i, e.KeyID, ids[i])
		}
		if e.KeyData.TypeURL != "type.test/stub-public" {
			t.Errorf("Entries[%d].TypeURL: got %q", i, e.KeyData.TypeURL)
		}
		if e.KeyData.MaterialType != keydata.AsymmetricPublic {
			t.Errorf("Entries[%d].MaterialType: got %v", i, e.KeyData.MaterialType)
		}
	}
}

func TestPublicRejectsSymmetricKeys(t *testing.T) {
	h, _, r, _ := newTestHandle(t, 1)
	if _, err := h.Public(WithRegistry(r)); !tink.IsInvalidArgument(err) {
		t.Errorf("Public on symmetric keyset: got %v, want ErrInvalidArgument", err)
	}
}

func TestReadRejectsInvalidKeyset(t *testing.T) {
	data, err := jsoncodec.New().Encode(&keydata.Keyset{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Read(bytes.NewReader(data), jsoncodec.New()); !tink.IsInvalidArgument(err) {
		t.Errorf("Read(empty keyset): got %v, want ErrInvalidArgument", err)
	}
}
