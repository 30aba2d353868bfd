// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ErrUnknownExporter is returned for an unsupported exporter name.
var ErrUnknownExporter = errors.New("telemetry: unknown exporter")

// Config controls tracing.
type Config struct {
	// ServiceName identifies this process in traces.
	ServiceName string

	// ServiceVersion is reported alongside the name.
	ServiceVersion string

	// TraceExporter is "stdout" or "none".
	TraceExporter string

	// Output receives stdout spans. Defaults to os.Stdout.
	Output io.Writer
}

// Init installs a global tracer provider. The returned function flushes and
// stops it and must be called on exit.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var exporter trace.SpanExporter
	switch cfg.TraceExporter {
	case "", "none":
		return noop, nil
	case "stdout":
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(out))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
