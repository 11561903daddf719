// Package monitoring defines the hooks through which primitive wrappers
// report usage.
//
// Wrappers report only operation outcomes: which API was called, how many
// bytes it processed, and whether it succeeded. Failures carry no
// per-candidate detail, matching the uniform error policy of the wrappers
// themselves.
//
// By default nothing is reported. An application installs a Client once at
// startup with RegisterClient; an OpenTelemetry-backed client is provided
// in this package.
package monitoring

import (
	"fmt"
	"sync"

	"github.com/kingjay66/tink"
)

// KeyInfo is the material-free description of one key of a monitored
// keyset.
type KeyInfo struct {
	KeyID            uint32
	Status           string
	TypeURL          string
	OutputPrefixType string
}

// KeysetInfo is the material-free description of a monitored keyset.
type KeysetInfo struct {
	PrimaryKeyID uint32
	Entries      []KeyInfo
}

// Context identifies what is being monitored: a primitive family, one of
// its API functions, and the keyset behind it.
type Context struct {
	Primitive   string
	APIFunction string
	KeysetInfo  KeysetInfo
}

// NewContext creates a monitoring context.
func NewContext(primitive, apiFunction string, info KeysetInfo) *Context {
	return &Context{Primitive: primitive, APIFunction: apiFunction, KeysetInfo: info}
}

// Logger records the outcomes of one API function on one keyset.
// Implementations must be safe for concurrent use.
type Logger interface {
	// Log records a successful operation performed with the given key over
	// numBytes bytes of input.
	Log(keyID uint32, numBytes int)

	// LogFailure records a failed operation. No detail about the failure
	// is recorded.
	LogFailure()
}

// Client creates Loggers for monitoring contexts.
type Client interface {
	NewLogger(ctx *Context) (Logger, error)
}

var (
	clientMu sync.RWMutex
	client   Client
)

// RegisterClient installs c as the process-wide monitoring client. A
// second registration fails with ErrAlreadyExists.
func RegisterClient(c Client) error {
	if c == nil {
		return fmt.Errorf("%w: client must not be nil", tink.ErrInvalidArgument)
	}
	clientMu.Lock()
	defer clientMu.Unlock()
	if client != nil {
		return fmt.Errorf("%w: a monitoring client is already registered", tink.ErrAlreadyExists)
	}
	client = c
	return nil
}

// ClearClient removes the registered client. Test-only.
func ClearClient() {
	clientMu.Lock()
	defer clientMu.Unlock()
	client = nil
}

// NewLogger returns a logger from the registered client, or a no-op
// logger if none is registered.
func NewLogger(ctx *Context) (Logger, error) {
	clientMu.RLock()
	c := client
	clientMu.RUnlock()
	if c == nil {
		return noopLogger{}, nil
	}
	return c.NewLogger(ctx)
}

type noopLogger struct{}

func (noopLogger) Log(uint32, int) {}
func (noopLogger) LogFailure()     {}
