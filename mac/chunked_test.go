package mac

import (
	"bytes"
	"testing"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/keyset"
)

func newChunkedMAC(t *testing.T, h *keyset.Handle) tink.ChunkedMAC {
	t.Helper()
	r, sr := testRegistries(t)
	cm, err := NewChunkedMAC(h, keyset.WithRegistry(r), keyset.WithSerializationRegistry(sr))
	if err != nil {
		t.Fatalf("NewChunkedMAC: %v", err)
	}
	return cm
}

func TestChunkedMatchesOneShot(t *testing.T) {
	for _, prefixType := range []keydata.OutputPrefixType{keydata.Tink, keydata.Crunchy, keydata.Legacy, keydata.Raw} {
		t.Run(prefixType.String(), func(t *testing.T) {
			rawKey := rawHMACKey(byte(prefixType))
			h := newHandle(t, 9, hmacEntry(9, keydata.Enabled, prefixType, rawKey))
			m := newMAC(t, h)
			cm := newChunkedMAC(t, h)

			data := []byte("chunked and one-shot must agree")
			want, err := m.ComputeMAC(data)
			if err != nil {
				t.Fatal(err)
			}

			session, err := cm.CreateComputation()
			if err != nil {
				t.Fatal(err)
			}
			if err := session.Update(data[:5]); err != nil {
				t.Fatal(err)
			}
			if err := session.Update(data[5:]); err != nil {
				t.Fatal(err)
			}
			got, err := session.ComputeMAC()
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, want) {
				t.Error("chunked tag differs from one-shot tag")
			}
		})
	}
}

func TestChunkedTagInvariantAcrossSplits(t *testing.T) {
	h := newHandle(t, 9, hmacEntry(9, keydata.Enabled, keydata.Tink, rawHMACKey(1)))
	cm := newChunkedMAC(t, h)
	data := []byte("the exact same input split differently")

	var tags [][]byte
	for _, split := range []int{0, 1, 7, len(data)} {
		session, err := cm.CreateComputation()
		if err != nil {
			t.Fatal(err)
		}
		if err := session.Update(data[:split]); err != nil {
			t.Fatal(err)
		}
		if err := session.Update(data[split:]); err != nil {
			t.Fatal(err)
		}
		tag, err := session.ComputeMAC()
		if err != nil {
			t.Fatal(err)
		}
		tags = append(tags, tag)
	}
	for i := 1; i < len(tags); i++ {
		if !bytes.Equal(tags[0], tags[i]) {
			t.Errorf("tag %d differs from tag 0", i)
		}
	}
}

func TestChunkedVerifyAcrossRotation(t *testing.T) {
	oldKey := rawHMACKey(13)
	newKey := rawHMACKey(29)

	before := newHandle(t, 100, hmacEntry(100, keydata.Enabled, keydata.Tink, oldKey))
	session, err := newChunkedMAC(t, before).CreateComputation()
	if err != nil {
		t.Fatal(err)
	}
	if err := session.Update([]byte("streamed")); err != nil {
		t.Fatal(err)
	}
	oldTag, err := session.ComputeMAC()
	if err != nil {
		t.Fatal(err)
	}

	after := newHandle(t, 200,
		hmacEntry(100, keydata.Enabled, keydata.Tink, oldKey),
		hmacEntry(200, keydata.Enabled, keydata.Tink, newKey),
	)
	verification, err := newChunkedMAC(t, after).CreateVerification(oldTag)
	if err != nil {
		t.Fatal(err)
	}
	if err := verification.Update([]byte("streamed")); err != nil {
		t.Fatal(err)
	}
	if err := verification.VerifyMAC(); err != nil {
		t.Errorf("VerifyMAC on pre-rotation tag: %v", err)
	}
}

func TestChunkedVerifyLegacy(t *testing.T) {
	h := newHandle(t, 5, hmacEntry(5, keydata.Enabled, keydata.Legacy, rawHMACKey(17)))
	m := newMAC(t, h)
	cm := newChunkedMAC(t, h)

	tag, err := m.ComputeMAC([]byte("legacy data"))
	if err != nil {
		t.Fatal(err)
	}
	verification, err := cm.CreateVerification(tag)
	if err != nil {
		t.Fatal(err)
	}
	if err := verification.Update([]byte("legacy data")); err != nil {
		t.Fatal(err)
	}
	if err := verification.VerifyMAC(); err != nil {
		t.Errorf("VerifyMAC: %v", err)
	}
}

func TestChunkedVerifyRawFallback(t *testing.T) {
	rawKey := rawHMACKey(37)
	rawOnly := newHandle(t, 1, hmacEntry(1, keydata.Enabled, keydata.Raw, rawKey))
	session, err := newChunkedMAC(t, rawOnly).CreateComputation()
	if err != nil {
		t.Fatal(err)
	}
	if err := session.Update([]byte("raw stream")); err != nil {
		t.Fatal(err)
	}
	rawTag, err := session.ComputeMAC()
	if err != nil {
		t.Fatal(err)
	}

	mixed := newHandle(t, 2,
		hmacEntry(1, keydata.Enabled, keydata.Raw, rawKey),
		hmacEntry(2, keydata.Enabled, keydata.Tink, rawHMACKey(43)),
	)
	verification, err := newChunkedMAC(t, mixed).CreateVerification(rawTag)
	if err != nil {
		t.Fatal(err)
	}
	if err := verification.Update([]byte("raw stream")); err != nil {
		t.Fatal(err)
	}
	if err := verification.VerifyMAC(); err != nil {
		t.Errorf("VerifyMAC with RAW fallback: %v", err)
	}
}

func TestChunkedVerifyUniformError(t *testing.T) {
	h := newHandle(t, 9, hmacEntry(9, keydata.Enabled, keydata.Tink, rawHMACKey(53)))
	cm := newChunkedMAC(t, h)

	// A tag with an unknown prefix yields a session with no candidates;
	// it must behave like any other mismatch.
	verification, err := cm.CreateVerification([]byte{9, 9, 9, 9, 9, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	if err != nil {
		t.Fatalf("CreateVerification: %v", err)
	}
	if err := verification.Update([]byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := verification.VerifyMAC(); err != tink.ErrMACVerification {
		t.Errorf("VerifyMAC: got %v, want ErrMACVerification", err)
	}
}

func TestChunkedSessionsRejectReuse(t *testing.T) {
	h := newHandle(t, 9, hmacEntry(9, keydata.Enabled, keydata.Tink, rawHMACKey(59)))
	cm := newChunkedMAC(t, h)

	session, err := cm.CreateComputation()
	if err != nil {
		t.Fatal(err)
	}
	tag, err := session.ComputeMAC()
	if err != nil {
		t.Fatal(err)
	}
	if err := session.Update([]byte("late")); !tink.IsFailedPrecondition(err) {
		t.Errorf("Update after finalize: got %v, want ErrFailedPrecondition", err)
	}
	if _, err := session.ComputeMAC(); !tink.IsFailedPrecondition(err) {
		t.Errorf("second ComputeMAC: got %v, want ErrFailedPrecondition", err)
	}

	verification, err := cm.CreateVerification(tag)
	if err != nil {
		t.Fatal(err)
	}
	if err := verification.VerifyMAC(); err != nil {
		t.Fatalf("VerifyMAC: %v", err)
	}
	if err := verification.Update([]byte("late")); !tink.IsFailedPrecondition(err) {
		t.Errorf("Update after finalize: got %v, want ErrFailedPrecondition", err)
	}
	if err := verification.VerifyMAC(); !tink.IsFailedPrecondition(err) {
		t.Errorf("second VerifyMAC: got %v, want ErrFailedPrecondition", err)
	}
}

func TestChunkedIndependentSessions(t *testing.T) {
	h := newHandle(t, 9, hmacEntry(9, keydata.Enabled, keydata.Tink, rawHMACKey(67)))
	cm := newChunkedMAC(t, h)

	a, err := cm.CreateComputation()
	if err != nil {
		t.Fatal(err)
	}
	b, err := cm.CreateComputation()
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Update([]byte("alpha")); err != nil {
		t.Fatal(err)
	}
	if err := b.Update([]byte("beta")); err != nil {
		t.Fatal(err)
	}
	tagA, err := a.ComputeMAC()
	if err != nil {
		t.Fatal(err)
	}
	tagB, err := b.ComputeMAC()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(tagA, tagB) {
		t.Error("independent sessions produced the same tag for different data")
	}
}
