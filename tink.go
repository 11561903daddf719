// Package tink defines the capability interfaces implemented by the
// cryptographic primitives in this module.
//
// A primitive is one concrete algorithm instance bound to one key. Callers
// normally do not construct primitives directly; they obtain a keyset
// handle and ask a primitive factory (e.g. mac.New) for a single object
// implementing one of these interfaces. That object transparently supports
// key rotation: it computes with the keyset's primary key and verifies or
// decrypts against every enabled key.
package tink

// MAC computes and verifies message authentication codes over complete
// messages held in memory.
//
// Implementations must be safe for concurrent use.
type MAC interface {
	// ComputeMAC returns an authentication tag for data.
	ComputeMAC(data []byte) ([]byte, error)

	// VerifyMAC returns nil if mac is a valid authentication tag for data,
	// and ErrMACVerification otherwise.
	VerifyMAC(mac, data []byte) error
}

// ChunkedMAC creates sessions that compute or verify a MAC incrementally,
// without buffering the whole message.
//
// Implementations must be safe for concurrent use; the sessions they
// create are not.
type ChunkedMAC interface {
	// CreateComputation returns a new session for computing a tag.
	CreateComputation() (ChunkedMACComputation, error)

	// CreateVerification returns a new session for verifying mac.
	CreateVerification(mac []byte) (ChunkedMACVerification, error)
}

// ChunkedMACComputation is a single-use MAC computation session. Data is
// fed in chunks with Update; ComputeMAC finalizes the session and returns
// the tag. A session must not be used concurrently and must not be reused
// after finalization.
type ChunkedMACComputation interface {
	// Update feeds the next chunk of the message into the session.
	Update(data []byte) error

	// ComputeMAC finalizes the session and returns the authentication tag.
	ComputeMAC() ([]byte, error)
}

// ChunkedMACVerification is a single-use MAC verification session for a
// tag supplied at session creation. The same concurrency and reuse rules
// as for ChunkedMACComputation apply.
type ChunkedMACVerification interface {
	// Update feeds the next chunk of the message into the session.
	Update(data []byte) error

	// VerifyMAC finalizes the session. It returns nil if the accumulated
	// message matches the expected tag, and ErrMACVerification otherwise.
	VerifyMAC() error
}

// AEAD provides authenticated encryption with associated data.
//
// Implementations must be safe for concurrent use.
type AEAD interface {
	// Encrypt encrypts plaintext, binding associatedData to the ciphertext.
	Encrypt(plaintext, associatedData []byte) ([]byte, error)

	// Decrypt decrypts ciphertext. The associatedData must match the value
	// passed to Encrypt, otherwise ErrDecryption is returned.
	Decrypt(ciphertext, associatedData []byte) ([]byte, error)
}

// HybridEncrypt encrypts to a recipient's public key using a KEM/DEM
// construction. The contextInfo binds the ciphertext to an application
// context and must be reproduced at decryption.
type HybridEncrypt interface {
	Encrypt(plaintext, contextInfo []byte) ([]byte, error)
}

// HybridDecrypt is the private-key counterpart of HybridEncrypt.
type HybridDecrypt interface {
	Decrypt(ciphertext, contextInfo []byte) ([]byte, error)
}

// Signer produces digital signatures. Concrete signature algorithms live
// outside this module; the interface exists so signature keysets compose
// through the same wrapping machinery as the other families.
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

// Verifier verifies signatures produced by the corresponding Signer.
type Verifier interface {
	Verify(signature, data []byte) error
}
