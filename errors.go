package tink

import "errors"

var (
	// ErrNotFound is returned when no factory, parser or serializer is
	// registered for a requested key type. Callers are expected to handle
	// it, typically by falling back to a legacy resolution path.
	ErrNotFound = errors.New("tink: not found")

	// ErrInvalidArgument is returned for malformed key material, corrupt
	// wire bytes, inconsistent key sizes, or an invalid keyset.
	ErrInvalidArgument = errors.New("tink: invalid argument")

	// ErrAlreadyExists is returned when a conflicting registration is
	// attempted for a key type that already has one.
	ErrAlreadyExists = errors.New("tink: already exists")

	// ErrFailedPrecondition is returned for illegal state transitions,
	// such as reusing a finalized session or marking a disabled key primary.
	ErrFailedPrecondition = errors.New("tink: failed precondition")

	// ErrMACVerification is returned when MAC verification fails. It
	// deliberately carries no detail about which candidate keys were tried
	// or why they failed.
	ErrMACVerification = errors.New("tink: mac verification failed")

	// ErrDecryption is returned when decryption fails, with the same
	// deliberate lack of detail as ErrMACVerification.
	ErrDecryption = errors.New("tink: decryption failed")
)

// IsNotFound returns true if the error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidArgument returns true if the error is or wraps ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsAlreadyExists returns true if the error is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsFailedPrecondition returns true if the error is or wraps ErrFailedPrecondition.
func IsFailedPrecondition(err error) bool {
	return errors.Is(err, ErrFailedPrecondition)
}
