package subtle

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kingjay66/tink"
)

func testKey() []byte {
	key := make([]byte, chacha20poly1305.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNewXChaCha20Poly1305KeySize(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		if _, err := NewXChaCha20Poly1305(make([]byte, size)); !tink.IsInvalidArgument(err) {
			t.Errorf("key size %d: got %v, want ErrInvalidArgument", size, err)
		}
	}
	if _, err := NewXChaCha20Poly1305(testKey()); err != nil {
		t.Errorf("valid key size: %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	a, err := NewXChaCha20Poly1305(testKey())
	if err != nil {
		t.Fatal(err)
	}
	plaintext := []byte("attack at dawn")
	associatedData := []byte("header")

	ct, err := a.Encrypt(plaintext, associatedData)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(ct) != chacha20poly1305.NonceSizeX+len(plaintext)+chacha20poly1305.Overhead {
		t.Errorf("ciphertext length: got %d", len(ct))
	}

	got, err := a.Decrypt(ct, associatedData)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt: got %q, want %q", got, plaintext)
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	a, err := NewXChaCha20Poly1305(testKey())
	if err != nil {
		t.Fatal(err)
	}
	c1, err := a.Encrypt([]byte("same plaintext"), nil)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := a.Encrypt([]byte("same plaintext"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(c1, c2) {
		t.Error("two encryptions of the same plaintext are identical")
	}
}

func TestDecryptFailuresAreUniform(t *testing.T) {
	a, err := NewXChaCha20Poly1305(testKey())
	if err != nil {
		t.Fatal(err)
	}
	ct, err := a.Encrypt([]byte("plaintext"), []byte("ad"))
	if err != nil {
		t.Fatal(err)
	}

	tampered := append([]byte(nil), ct...)
	tampered[len(tampered)-1] ^= 1

	cases := map[string]struct {
		ct []byte
		ad []byte
	}{
		"tampered ciphertext": {tampered, []byte("ad")},
		"wrong ad":            {ct, []byte("other")},
		"truncated":           {ct[:chacha20poly1305.NonceSizeX], []byte("ad")},
		"too short":           {[]byte{1, 2, 3}, []byte("ad")},
	}
	for name, tc := range cases {
		if _, err := a.Decrypt(tc.ct, tc.ad); err != tink.ErrDecryption {
			t.Errorf("%s: got %v, want ErrDecryption", name, err)
		}
	}
}
