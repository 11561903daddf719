package secret

import (
	"bytes"
	"testing"
)

func TestNewBytesFromDataCopies(t *testing.T) {
	original := []byte{1, 2, 3, 4}
	b := NewBytesFromData(original)

	// Mutating the caller's slice must not affect the sealed material.
	original[0] = 99

	got, err := b.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("Data: got %v, want %v", got, []byte{1, 2, 3, 4})
	}
}

func TestDataReturnsIndependentCopies(t *testing.T) {
	b := NewBytesFromData([]byte{5, 6, 7})
	first, err := b.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	first[0] = 0

	second, err := b.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if !bytes.Equal(second, []byte{5, 6, 7}) {
		t.Errorf("Data after mutating a previous copy: got %v, want %v", second, []byte{5, 6, 7})
	}
}

func TestLen(t *testing.T) {
	if got := NewBytesFromData(make([]byte, 32)).Len(); got != 32 {
		t.Errorf("Len: got %d, want 32", got)
	}
	var zero Bytes
	if got := zero.Len(); got != 0 {
		t.Errorf("zero value Len: got %d, want 0", got)
	}
}

func TestNewBytesFromRand(t *testing.T) {
	a, err := NewBytesFromRand(32)
	if err != nil {
		t.Fatalf("NewBytesFromRand: %v", err)
	}
	if a.Len() != 32 {
		t.Errorf("Len: got %d, want 32", a.Len())
	}
	b, err := NewBytesFromRand(32)
	if err != nil {
		t.Fatalf("NewBytesFromRand: %v", err)
	}
	if a.Equal(b) {
		t.Error("two random keys compare equal")
	}
}

func TestNewBytesFromRandRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := NewBytesFromRand(size); err == nil {
			t.Errorf("NewBytesFromRand(%d): want error", size)
		}
	}
}

func TestEqual(t *testing.T) {
	a := NewBytesFromData([]byte("0123456789abcdef"))
	b := NewBytesFromData([]byte("0123456789abcdef"))
	c := NewBytesFromData([]byte("0123456789abcdeX"))
	d := NewBytesFromData([]byte("short"))

	if !a.Equal(b) {
		t.Error("equal material compares unequal")
	}
	if a.Equal(c) {
		t.Error("different material compares equal")
	}
	if a.Equal(d) {
		t.Error("different lengths compare equal")
	}
	var zero Bytes
	if !zero.Equal(Bytes{}) {
		t.Error("zero values compare unequal")
	}
}
