package aead

import (
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/internal/cryptofmt"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/keyset"
	"github.com/kingjay66/tink/monitoring"
	"github.com/kingjay66/tink/primitiveset"
)

// New resolves the handle's keyset and returns a tink.AEAD that encrypts
// with the primary key and decrypts against every enabled key.
func New(h *keyset.Handle, opts ...keyset.ResolveOption) (tink.AEAD, error) {
	ps, err := h.Primitives(opts...)
	if err != nil {
		return nil, fmt.Errorf("aead: %w", err)
	}
	return newWrappedAEAD(ps, h.KeysetInfo())
}

type wrappedAEAD struct {
	ps            *primitiveset.PrimitiveSet
	encryptLogger monitoring.Logger
	decryptLogger monitoring.Logger
}

func newWrappedAEAD(ps *primitiveset.PrimitiveSet, info monitoring.KeysetInfo) (*wrappedAEAD, error) {
	for _, entries := range ps.Entries {
		for _, e := range entries {
			if _, ok := e.Primitive.(tink.AEAD); !ok {
				return nil, fmt.Errorf("%w: key %d is not an AEAD primitive", tink.ErrInvalidArgument, e.KeyID)
			}
		}
	}
	encryptLogger, err := monitoring.NewLogger(monitoring.NewContext("aead", "encrypt", info))
	if err != nil {
		return nil, err
	}
	decryptLogger, err := monitoring.NewLogger(monitoring.NewContext("aead", "decrypt", info))
	if err != nil {
		return nil, err
	}
	return &wrappedAEAD{ps: ps, encryptLogger: encryptLogger, decryptLogger: decryptLogger}, nil
}

// Compile-time interface check.
var _ tink.AEAD = (*wrappedAEAD)(nil)

// Encrypt encrypts with the primary key and prepends its output prefix.
func (w *wrappedAEAD) Encrypt(plaintext, associatedData []byte) ([]byte, error) {
	primary := w.ps.Primary
	ct, err := primary.Primitive.(tink.AEAD).Encrypt(plaintext, associatedData)
	if err != nil {
		w.encryptLogger.LogFailure()
		return nil, err
	}
	w.encryptLogger.Log(primary.KeyID, len(plaintext))
	if primary.Prefix == cryptofmt.RawPrefix {
		return ct, nil
	}
	return append([]byte(primary.Prefix), ct...), nil
}

// Decrypt decrypts ciphertext against the enabled keys, narrowing the
// candidates by the ciphertext's prefix and falling back to the RAW keys
// in insertion order. Every failure is the uniform tink.ErrDecryption.
func (w *wrappedAEAD) Decrypt(ciphertext, associatedData []byte) ([]byte, error) {
	if len(ciphertext) > cryptofmt.NonRawPrefixSize {
		prefix := string(ciphertext[:cryptofmt.NonRawPrefixSize])
		ct := ciphertext[cryptofmt.NonRawPrefixSize:]
		for _, e := range w.ps.EntriesForPrefix(prefix) {
			if e.Status != keydata.Enabled {
				continue
			}
			if pt, err := e.Primitive.(tink.AEAD).Decrypt(ct, associatedData); err == nil {
				w.decryptLogger.Log(e.KeyID, len(ct))
				return pt, nil
			}
		}
	}
	for _, e := range w.ps.RawEntries() {
		if e.Status != keydata.Enabled {
			continue
		}
		if pt, err := e.Primitive.(tink.AEAD).Decrypt(ciphertext, associatedData); err == nil {
			w.decryptLogger.Log(e.KeyID, len(ciphertext))
			return pt, nil
		}
	}
	w.decryptLogger.LogFailure()
	return nil, tink.ErrDecryption
}
