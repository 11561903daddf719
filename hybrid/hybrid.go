// Package hybrid provides hybrid public-key encryption over rotating
// keysets. Encryption always uses the primary key of a public keyset;
// decryption tries every enabled key of the matching private keyset,
// narrowed by the ciphertext's output prefix.
package hybrid

import (
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/internal/cryptofmt"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/keyset"
	"github.com/kingjay66/tink/monitoring"
	"github.com/kingjay66/tink/primitiveset"
)

// NewHybridEncrypt resolves a public keyset handle and returns a
// tink.HybridEncrypt that encrypts with the primary key.
func NewHybridEncrypt(h *keyset.Handle, opts ...keyset.ResolveOption) (tink.HybridEncrypt, error) {
	ps, err := h.Primitives(opts...)
	if err != nil {
		return nil, fmt.Errorf("hybrid: %w", err)
	}
	return newWrappedHybridEncrypt(ps, h.KeysetInfo())
}

// NewHybridDecrypt resolves a private keyset handle and returns a
// tink.HybridDecrypt that decrypts against every enabled key.
func NewHybridDecrypt(h *keyset.Handle, opts ...keyset.ResolveOption) (tink.HybridDecrypt, error) {
	ps, err := h.Primitives(opts...)
	if err != nil {
		return nil, fmt.Errorf("hybrid: %w", err)
	}
	return newWrappedHybridDecrypt(ps, h.KeysetInfo())
}

type wrappedHybridEncrypt struct {
	ps     *primitiveset.PrimitiveSet
	logger monitoring.Logger
}

func newWrappedHybridEncrypt(ps *primitiveset.PrimitiveSet, info monitoring.KeysetInfo) (*wrappedHybridEncrypt, error) {
	for _, entries := range ps.Entries {
		for _, e := range entries {
			if _, ok := e.Primitive.(tink.HybridEncrypt); !ok {
				return nil, fmt.Errorf("%w: key %d is not a HybridEncrypt primitive", tink.ErrInvalidArgument, e.KeyID)
			}
		}
	}
	logger, err := monitoring.NewLogger(monitoring.NewContext("hybrid_encrypt", "encrypt", info))
	if err != nil {
		return nil, err
	}
	return &wrappedHybridEncrypt{ps: ps, logger: logger}, nil
}

var _ tink.HybridEncrypt = (*wrappedHybridEncrypt)(nil)

// Encrypt encrypts with the primary key and prepends its output prefix.
func (w *wrappedHybridEncrypt) Encrypt(plaintext, contextInfo []byte) ([]byte, error) {
	primary := w.ps.Primary
	ct, err := primary.Primitive.(tink.HybridEncrypt).Encrypt(plaintext, contextInfo)
	if err != nil {
		w.logger.LogFailure()
		return nil, err
	}
	w.logger.Log(primary.KeyID, len(plaintext))
	if primary.Prefix == cryptofmt.RawPrefix {
		return ct, nil
	}
	return append([]byte(primary.Prefix), ct...), nil
}

type wrappedHybridDecrypt struct {
	ps     *primitiveset.PrimitiveSet
	logger monitoring.Logger
}

func newWrappedHybridDecrypt(ps *primitiveset.PrimitiveSet, info monitoring.KeysetInfo) (*wrappedHybridDecrypt, error) {
	for _, entries := range ps.Entries {
		for _, e := range entries {
			if _, ok := e.Primitive.(tink.HybridDecrypt); !ok {
				return nil, fmt.Errorf("%w: key %d is not a HybridDecrypt primitive", tink.ErrInvalidArgument, e.KeyID)
			}
		}
	}
	logger, err := monitoring.NewLogger(monitoring.NewContext("hybrid_decrypt", "decrypt", info))
	if err != nil {
		return nil, err
	}
	return &wrappedHybridDecrypt{ps: ps, logger: logger}, nil
}

var _ tink.HybridDecrypt = (*wrappedHybridDecrypt)(nil)

// Decrypt decrypts ciphertext against the enabled keys, narrowing the
// candidates by the ciphertext's prefix and falling back to the RAW keys
// in insertion order. Every failure is the uniform tink.ErrDecryption.
func (w *wrappedHybridDecrypt) Decrypt(ciphertext, contextInfo []byte) ([]byte, error) {
	if len(ciphertext) > cryptofmt.NonRawPrefixSize {
		prefix := string(ciphertext[:cryptofmt.NonRawPrefixSize])
		ct := ciphertext[cryptofmt.NonRawPrefixSize:]
		for _, e := range w.ps.EntriesForPrefix(prefix) {
			if e.Status != keydata.Enabled {
				continue
			}
			if pt, err := e.Primitive.(tink.HybridDecrypt).Decrypt(ct, contextInfo); err == nil {
				w.logger.Log(e.KeyID, len(ct))
				return pt, nil
			}
		}
	}
	for _, e := range w.ps.RawEntries() {
		if e.Status != keydata.Enabled {
			continue
		}
		if pt, err := e.Primitive.(tink.HybridDecrypt).Decrypt(ciphertext, contextInfo); err == nil {
			w.logger.Log(e.KeyID, len(ciphertext))
			return pt, nil
		}
	}
	w.logger.LogFailure()
	return nil, tink.ErrDecryption
}
