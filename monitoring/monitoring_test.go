package monitoring

import (
	"sync"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kingjay66/tink"
)

type recordingLogger struct {
	mu       sync.Mutex
	logged   []uint32
	failures int
}

func (l *recordingLogger) Log(keyID uint32, numBytes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logged = append(l.logged, keyID)
}

func (l *recordingLogger) LogFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures++
}

type recordingClient struct {
	logger *recordingLogger
}

func (c *recordingClient) NewLogger(ctx *Context) (Logger, error) {
	return c.logger, nil
}

func TestNewLoggerWithoutClientIsNoop(t *testing.T) {
	ClearClient()
	logger, err := NewLogger(NewContext("mac", "compute", KeysetInfo{}))
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	// Must not panic.
	logger.Log(1, 10)
	logger.LogFailure()
}

func TestRegisterClient(t *testing.T) {
	ClearClient()
	t.Cleanup(ClearClient)

	rec := &recordingClient{logger: &recordingLogger{}}
	if err := RegisterClient(rec); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	if err := RegisterClient(rec); !tink.IsAlreadyExists(err) {
		t.Errorf("second RegisterClient: got %v, want ErrAlreadyExists", err)
	}
	if err := RegisterClient(nil); !tink.IsInvalidArgument(err) {
		t.Errorf("RegisterClient(nil): got %v, want ErrInvalidArgument", err)
	}

	logger, err := NewLogger(NewContext("mac", "compute", KeysetInfo{}))
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Log(42, 5)
	logger.LogFailure()

	if got := rec.logger.logged; len(got) != 1 || got[0] != 42 {
		t.Errorf("logged keys: got %v, want [42]", got)
	}
	if rec.logger.failures != 1 {
		t.Errorf("failures: got %d, want 1", rec.logger.failures)
	}
}

func TestOpenTelemetryClient(t *testing.T) {
	client, err := NewOpenTelemetryClient(WithMeter(noop.NewMeterProvider().Meter("test")))
	if err != nil {
		t.Fatalf("NewOpenTelemetryClient: %v", err)
	}
	logger, err := client.NewLogger(NewContext("aead", "encrypt", KeysetInfo{PrimaryKeyID: 1}))
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	// Counting against a no-op meter must not panic.
	logger.Log(1, 1024)
	logger.LogFailure()

	if _, err := client.NewLogger(nil); err == nil {
		t.Error("NewLogger(nil): want error")
	}
}
