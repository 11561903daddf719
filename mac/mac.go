package mac

import (
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/internal/cryptofmt"
	"github.com/kingjay66/tink/keydata"
	"github.com/kingjay66/tink/keyset"
	"github.com/kingjay66/tink/monitoring"
	"github.com/kingjay66/tink/primitiveset"
)

// New resolves the handle's keyset and returns a tink.MAC that computes
// tags with the primary key and verifies against every enabled key.
func New(h *keyset.Handle, opts ...keyset.ResolveOption) (tink.MAC, error) {
	ps, err := h.Primitives(opts...)
	if err != nil {
		return nil, fmt.Errorf("mac: %w", err)
	}
	return newWrappedMAC(ps, h.KeysetInfo())
}

type wrappedMAC struct {
	ps            *primitiveset.PrimitiveSet
	computeLogger monitoring.Logger
	verifyLogger  monitoring.Logger
}

func newWrappedMAC(ps *primitiveset.PrimitiveSet, info monitoring.KeysetInfo) (*wrappedMAC, error) {
	for _, entries := range ps.Entries {
		for _, e := range entries {
			if _, ok := e.Primitive.(tink.MAC); !ok {
				return nil, fmt.Errorf("%w: key %d is not a MAC primitive", tink.ErrInvalidArgument, e.KeyID)
			}
		}
	}
	computeLogger, err := monitoring.NewLogger(monitoring.NewContext("mac", "compute", info))
	if err != nil {
		return nil, err
	}
	verifyLogger, err := monitoring.NewLogger(monitoring.NewContext("mac", "verify", info))
	if err != nil {
		return nil, err
	}
	return &wrappedMAC{ps: ps, computeLogger: computeLogger, verifyLogger: verifyLogger}, nil
}

// Compile-time interface check.
var _ tink.MAC = (*wrappedMAC)(nil)

// ComputeMAC computes a tag with the primary key and prepends the
// primary's output prefix unless the key is RAW.
func (w *wrappedMAC) ComputeMAC(data []byte) ([]byte, error) {
	primary := w.ps.Primary
	p := primary.Primitive.(tink.MAC)
	tag, err := p.ComputeMAC(legacyData(primary.PrefixType, data))
	if err != nil {
		w.computeLogger.LogFailure()
		return nil, err
	}
	w.computeLogger.Log(primary.KeyID, len(data))
	if primary.Prefix == cryptofmt.RawPrefix {
		return tag, nil
	}
	return append([]byte(primary.Prefix), tag...), nil
}

// VerifyMAC verifies mac against the enabled keys of the keyset. The
// prefix of mac narrows the candidates to one map lookup; if no prefixed
// candidate matches, the RAW keys are tried in insertion order. Every
// failure, whatever its cause, is reported as the same
// tink.ErrMACVerification with no candidate detail.
func (w *wrappedMAC) VerifyMAC(mac, data []byte) error {
	if len(mac) > cryptofmt.NonRawPrefixSize {
		prefix := string(mac[:cryptofmt.NonRawPrefixSize])
		tag := mac[cryptofmt.NonRawPrefixSize:]
		for _, e := range w.ps.EntriesForPrefix(prefix) {
			if e.Status != keydata.Enabled {
				continue
			}
			p := e.Primitive.(tink.MAC)
			if p.VerifyMAC(tag, legacyData(e.PrefixType, data)) == nil {
				w.verifyLogger.Log(e.KeyID, len(data))
				return nil
			}
		}
	}
	for _, e := range w.ps.RawEntries() {
		if e.Status != keydata.Enabled {
			continue
		}
		if e.Primitive.(tink.MAC).VerifyMAC(mac, data) == nil {
			w.verifyLogger.Log(e.KeyID, len(data))
			return nil
		}
	}
	w.verifyLogger.LogFailure()
	return tink.ErrMACVerification
}

// legacyData returns the bytes a LEGACY key actually authenticates: the
// message followed by one zero byte. The caller's slice is never mutated.
func legacyData(t keydata.OutputPrefixType, data []byte) []byte {
	if t != keydata.Legacy {
		return data
	}
	d := make([]byte, len(data)+1)
	copy(d, data)
	return d
}
