package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/kingjay66/tink/monitoring"

// OpenTelemetryClient reports operation counts and processed bytes as
// OpenTelemetry metrics. Key IDs are not exported; only the primitive
// family, the API function and the outcome are recorded as attributes.
type OpenTelemetryClient struct {
	operations metric.Int64Counter
	bytes      metric.Int64Counter
}

// OpenTelemetryOption configures an OpenTelemetryClient.
type OpenTelemetryOption func(*otelOptions)

type otelOptions struct {
	meter metric.Meter
}

// WithMeter sets the meter used to create the client's instruments. The
// default is a meter from the global meter provider.
func WithMeter(m metric.Meter) OpenTelemetryOption {
	return func(o *otelOptions) { o.meter = m }
}

// NewOpenTelemetryClient creates a monitoring client backed by
// OpenTelemetry metrics.
func NewOpenTelemetryClient(opts ...OpenTelemetryOption) (*OpenTelemetryClient, error) {
	o := otelOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.meter == nil {
		o.meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	operations, err := o.meter.Int64Counter("tink.operation.count",
		metric.WithDescription("Number of primitive operations, by outcome."),
		metric.WithUnit("{operation}"))
	if err != nil {
		return nil, fmt.Errorf("monitoring: creating operation counter: %w", err)
	}
	bytes, err := o.meter.Int64Counter("tink.operation.bytes",
		metric.WithDescription("Bytes processed by successful primitive operations."),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("monitoring: creating bytes counter: %w", err)
	}
	return &OpenTelemetryClient{operations: operations, bytes: bytes}, nil
}

// NewLogger returns a logger that counts operations for the given context.
func (c *OpenTelemetryClient) NewLogger(ctx *Context) (Logger, error) {
	if ctx == nil {
		return nil, fmt.Errorf("monitoring: context must not be nil")
	}
	base := []attribute.KeyValue{
		attribute.String("tink.primitive", ctx.Primitive),
		attribute.String("tink.api", ctx.APIFunction),
	}
	return &otelLogger{
		client:  c,
		success: metric.WithAttributes(append(base[:len(base):len(base)], attribute.String("tink.result", "success"))...),
		failure: metric.WithAttributes(append(base[:len(base):len(base)], attribute.String("tink.result", "failure"))...),
	}, nil
}

// Compile-time interface check.
var _ Client = (*OpenTelemetryClient)(nil)

type otelLogger struct {
	client  *OpenTelemetryClient
	success metric.MeasurementOption
	failure metric.MeasurementOption
}

func (l *otelLogger) Log(_ uint32, numBytes int) {
	ctx := context.Background()
	l.client.operations.Add(ctx, 1, l.success)
	l.client.bytes.Add(ctx, int64(numBytes), l.success)
}

func (l *otelLogger) LogFailure() {
	l.client.operations.Add(context.Background(), 1, l.failure)
}
