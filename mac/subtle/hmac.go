// Package subtle implements the HMAC primitive underlying the mac
// package. It operates on raw key bytes and performs no key management;
// use the mac package unless you are building your own composition.
package subtle

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/kingjay66/tink"
)

const (
	// MinKeySizeInBytes is the smallest accepted HMAC key size.
	MinKeySizeInBytes = 16

	// MinTagSizeInBytes is the smallest accepted authentication tag size.
	MinTagSizeInBytes = 10
)

// HMAC implements tink.MAC and tink.ChunkedMAC for one HMAC key. It is
// safe for concurrent use; the sessions it creates are not.
type HMAC struct {
	hashFunc func() hash.Hash
	key      []byte
	tagSize  int
}

// NewHMAC creates an HMAC primitive. hashAlg must be "SHA256" or
// "SHA512"; tagSize must lie between MinTagSizeInBytes and the digest
// size of the chosen hash.
func NewHMAC(hashAlg string, key []byte, tagSize int) (*HMAC, error) {
	hashFunc, digestSize, err := hashOf(hashAlg)
	if err != nil {
		return nil, err
	}
	if len(key) < MinKeySizeInBytes {
		return nil, fmt.Errorf("%w: key size %d too small", tink.ErrInvalidArgument, len(key))
	}
	if tagSize < MinTagSizeInBytes || tagSize > digestSize {
		return nil, fmt.Errorf("%w: tag size %d out of range for %s", tink.ErrInvalidArgument, tagSize, hashAlg)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &HMAC{hashFunc: hashFunc, key: k, tagSize: tagSize}, nil
}

// Compile-time interface checks.
var (
	_ tink.MAC        = (*HMAC)(nil)
	_ tink.ChunkedMAC = (*HMAC)(nil)
)

// ComputeMAC returns an authentication tag for data.
func (h *HMAC) ComputeMAC(data []byte) ([]byte, error) {
	mac := hmac.New(h.hashFunc, h.key)
	mac.Write(data)
	return mac.Sum(nil)[:h.tagSize], nil
}

// VerifyMAC returns nil if mac authenticates data. The comparison is
// constant time.
func (h *HMAC) VerifyMAC(mac, data []byte) error {
	expected, err := h.ComputeMAC(data)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, mac) {
		return tink.ErrMACVerification
	}
	return nil
}

// CreateComputation returns a new incremental computation session.
func (h *HMAC) CreateComputation() (tink.ChunkedMACComputation, error) {
	return &hmacComputation{mac: hmac.New(h.hashFunc, h.key), tagSize: h.tagSize}, nil
}

// CreateVerification returns a new incremental verification session for
// the expected tag mac.
func (h *HMAC) CreateVerification(mac []byte) (tink.ChunkedMACVerification, error) {
	if len(mac) != h.tagSize {
		return nil, fmt.Errorf("%w: tag size %d, want %d", tink.ErrInvalidArgument, len(mac), h.tagSize)
	}
	expected := make([]byte, len(mac))
	copy(expected, mac)
	return &hmacVerification{mac: hmac.New(h.hashFunc, h.key), tagSize: h.tagSize, expected: expected}, nil
}

func hashOf(hashAlg string) (func() hash.Hash, int, error) {
	switch hashAlg {
	case "SHA256":
		return sha256.New, sha256.Size, nil
	case "SHA512":
		return sha512.New, sha512.Size, nil
	default:
		return nil, 0, fmt.Errorf("%w: unsupported hash %q", tink.ErrInvalidArgument, hashAlg)
	}
}

// Session states. A session moves Created -> Updating -> Finalized;
// Finalized is terminal.
type sessionState int

const (
	stateCreated sessionState = iota
	stateUpdating
	stateFinalized
)

type hmacComputation struct {
	mac     hash.Hash
	tagSize int
	state   sessionState
}

func (c *hmacComputation) Update(data []byte) error {
	if c.state == stateFinalized {
		return fmt.Errorf("%w: session already finalized", tink.ErrFailedPrecondition)
	}
	c.state = stateUpdating
	c.mac.Write(data)
	return nil
}

func (c *hmacComputation) ComputeMAC() ([]byte, error) {
	if c.state == stateFinalized {
		return nil, fmt.Errorf("%w: session already finalized", tink.ErrFailedPrecondition)
	}
	c.state = stateFinalized
	return c.mac.Sum(nil)[:c.tagSize], nil
}

type hmacVerification struct {
	mac      hash.Hash
	tagSize  int
	expected []byte
	state    sessionState
}

func (v *hmacVerification) Update(data []byte) error {
	if v.state == stateFinalized {
		return fmt.Errorf("%w: session already finalized", tink.ErrFailedPrecondition)
	}
	v.state = stateUpdating
	v.mac.Write(data)
	return nil
}

func (v *hmacVerification) VerifyMAC() error {
	if v.state == stateFinalized {
		return fmt.Errorf("%w: session already finalized", tink.ErrFailedPrecondition)
	}
	v.state = stateFinalized
	if !hmac.Equal(v.mac.Sum(nil)[:v.tagSize], v.expected) {
		return tink.ErrMACVerification
	}
	return nil
}
