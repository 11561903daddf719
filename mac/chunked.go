package mac

import (
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/internal/cryptofmt"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/keyset"
	"github.com/kingjay66/tink/primitiveset"
)

// NewChunkedMAC resolves the handle's keyset and returns a
// tink.ChunkedMAC whose computation sessions use the primary key and
// whose verification sessions try every candidate key the tag's prefix
// points at.
func NewChunkedMAC(h *keyset.Handle, opts ...keyset.ResolveOption) (tink.ChunkedMAC, error) {
	ps, err := h.Primitives(opts...)
	if err != nil {
		return nil, fmt.Errorf("mac: %w", err)
	}
	for _, entries := range ps.Entries {
		for _, e := range entries {
			if _, ok := e.Primitive.(tink.ChunkedMAC); !ok {
				return nil, fmt.Errorf("%w: key %d is not a chunked MAC primitive", tink.ErrInvalidArgument, e.KeyID)
			}
		}
	}
	return &wrappedChunkedMAC{ps: ps}, nil
}

type wrappedChunkedMAC struct {
	ps *primitiveset.PrimitiveSet
}

// Compile-time interface check.
var _ tink.ChunkedMAC = (*wrappedChunkedMAC)(nil)

// CreateComputation returns a computation session bound to the primary
// key. The session prepends the primary's output prefix to the tag.
func (w *wrappedChunkedMAC) CreateComputation() (tink.ChunkedMACComputation, error) {
	primary := w.ps.Primary
	inner, err := primary.Primitive.(tink.ChunkedMAC).CreateComputation()
	if err != nil {
		return nil, err
	}
	return &prefixedComputation{
		inner:  inner,
		prefix: primary.Prefix,
		legacy: primary.PrefixType == keydata.Legacy,
	}, nil
}

// CreateVerification returns a verification session for mac. Candidate
// keys are selected by the tag's prefix, with RAW keys as fallback; the
// session feeds every chunk to every candidate and succeeds if any
// candidate's tag matches. All failures collapse into the uniform
// tink.ErrMACVerification.
func (w *wrappedChunkedMAC) CreateVerification(mac []byte) (tink.ChunkedMACVerification, error) {
	var candidates []verificationCandidate
	if len(mac) > cryptofmt.NonRawPrefixSize {
		prefix := string(mac[:cryptofmt.NonRawPrefixSize])
		tag := mac[cryptofmt.NonRawPrefixSize:]
		for _, e := range w.ps.EntriesForPrefix(prefix) {
			if e.Status != keydata.Enabled {
				continue
			}
			// Keys whose tag size cannot match are silently not candidates.
			session, err := e.Primitive.(tink.ChunkedMAC).CreateVerification(tag)
			if err != nil {
				continue
			}
			candidates = append(candidates, verificationCandidate{
				session: session,
				legacy:  e.PrefixType == keydata.Legacy,
			})
		}
	}
	for _, e := range w.ps.RawEntries() {
		if e.Status != keydata.Enabled {
			continue
		}
		session, err := e.Primitive.(tink.ChunkedMAC).CreateVerification(mac)
		if err != nil {
			continue
		}
		candidates = append(candidates, verificationCandidate{session: session})
	}
	return &multiVerification{candidates: candidates}, nil
}

type prefixedComputation struct {
	inner     tink.ChunkedMACComputation
	prefix    string
	legacy    bool
	finalized bool
}

func (c *prefixedComputation) Update(data []byte) error {
	if c.finalized {
		return fmt.Errorf("%w: session already finalized", tink.ErrFailedPrecondition)
	}
	return c.inner.Update(data)
}

func (c *prefixedComputation) ComputeMAC() ([]byte, error) {
	if c.finalized {
		return nil, fmt.Errorf("%w: session already finalized", tink.ErrFailedPrecondition)
	}
	c.finalized = true
	if c.legacy {
		if err := c.inner.Update([]byte{0}); err != nil {
			return nil, err
		}
	}
	tag, err := c.inner.ComputeMAC()
	if err != nil {
		return nil, err
	}
	if c.prefix == cryptofmt.RawPrefix {
		return tag, nil
	}
	return append([]byte(c.prefix), tag...), nil
}

type verificationCandidate struct {
	session tink.ChunkedMACVerification
	legacy  bool
}

type multiVerification struct {
	candidates []verificationCandidate
	finalized  bool
}

func (v *multiVerification) Update(data []byte) error {
	if v.finalized {
		return fmt.Errorf("%w: session already finalized", tink.ErrFailedPrecondition)
	}
	for _, c := range v.candidates {
		if err := c.session.Update(data); err != nil {
			return err
		}
	}
	return nil
}

func (v *multiVerification) VerifyMAC() error {
	if v.finalized {
		return fmt.Errorf("%w: session already finalized", tink.ErrFailedPrecondition)
	}
	v.finalized = true
	// Every candidate is finalized, with no early exit on a match.
	ok := false
	for _, c := range v.candidates {
		if c.legacy {
			if err := c.session.Update([]byte{0}); err != nil {
				continue
			}
		}
		if c.session.VerifyMAC() == nil {
			ok = true
		}
	}
	if !ok {
		return tink.ErrMACVerification
	}
	return nil
}
