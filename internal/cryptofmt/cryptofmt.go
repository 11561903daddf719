// Package cryptofmt derives the output prefix that identifies which key
// produced a primitive's output, enabling constant-time candidate lookup
// during verification and decryption.
package cryptofmt

import (
	"encoding/binary"
	"fmt"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/keydata"
)

const (
	// NonRawPrefixSize is the size in bytes of every non-raw prefix.
	NonRawPrefixSize = 5

	// TinkStartByte is the first byte of a TINK prefix.
	TinkStartByte = byte(1)

	// LegacyStartByte is the first byte of a LEGACY or CRUNCHY prefix.
	LegacyStartByte = byte(0)

	// RawPrefix is the empty prefix of RAW outputs.
	RawPrefix = ""
)

// OutputPrefix returns the prefix for the given key entry: a start byte
// followed by the big-endian key ID, or the empty string for RAW keys.
func OutputPrefix(e *keydata.KeyEntry) (string, error) {
	switch e.OutputPrefixType {
	case keydata.Tink:
		return prefix(TinkStartByte, e.KeyID), nil
	case keydata.Legacy, keydata.Crunchy:
		return prefix(LegacyStartByte, e.KeyID), nil
	case keydata.Raw:
		return RawPrefix, nil
	default:
		return "", fmt.Errorf("%w: unknown output prefix type", tink.ErrInvalidArgument)
	}
}

func prefix(start byte, keyID uint32) string {
	p := make([]byte, NonRawPrefixSize)
	p[0] = start
	binary.BigEndian.PutUint32(p[1:], keyID)
	return string(p)
}
