package keyset

import (
	"fmt"
	"io"

	"github.com/rbaliyan/config/codec"

	"github.com/kingjay66/tink/keydata"
)

// Write serializes the handle's keyset to w using the given codec. The
// output contains raw key material; callers are responsible for
// protecting it, e.g. by encrypting the stream.
func Write(h *Handle, w io.Writer, c codec.Codec) error {
	if c == nil {
		return fmt.Errorf("keyset: codec must not be nil")
	}
	data, err := c.Encode(h.ks)
	if err != nil {
		return fmt.Errorf("keyset: encoding keyset: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("keyset: writing keyset: %w", err)
	}
	return nil
}

// Read deserializes a keyset from r using the given codec, validates it,
// and returns a handle over it.
func Read(r io.Reader, c codec.Codec) (*Handle, error) {
	if c == nil {
		return nil, fmt.Errorf("keyset: codec must not be nil")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("keyset: reading keyset: %w", err)
	}
	var ks keydata.Keyset
	if err := c.Decode(data, &ks); err != nil {
		return nil, fmt.Errorf("keyset: decoding keyset: %w", err)
	}
	return NewHandle(&ks)
}
