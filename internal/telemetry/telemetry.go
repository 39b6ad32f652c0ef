// Package telemetry sets up the OpenTelemetry trace and log providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chweb/chweb/internal/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Providers holds the installed providers. Nil fields were not configured.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider
}

// Setup installs the global tracer and logger providers selected by cfg.
//
// When a log exporter is configured, the default slog logger is replaced by
// one writing to OpenTelemetry.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (*Providers, error) {
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	providers := &Providers{}

	spanExporter, err := newSpanExporter(ctx, cfg.TracesExporter)
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	if spanExporter != nil {
		providers.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spanExporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(providers.TracerProvider)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logExporter, err := newLogExporter(ctx, cfg.LogsExporter)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create log exporter: %w", err), providers.Shutdown(ctx))
	}
	if logExporter != nil {
		providers.LoggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(providers.LoggerProvider)

		slog.SetDefault(slog.New(otelslog.NewHandler(
			cfg.ServiceName,
			otelslog.WithLoggerProvider(providers.LoggerProvider),
		)))
	}

	return providers, nil
}

// Shutdown flushes and stops the installed providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if p.LoggerProvider != nil {
		if err := p.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown logger provider: %w", err))
		}
	}

	return errors.Join(errs...)
}

func newSpanExporter(ctx context.Context, kind string) (sdktrace.SpanExporter, error) {
	switch kind {
	case config.ExporterNone, "":
		return nil, nil
	case config.ExporterStdout:
		return stdouttrace.New()
	case config.ExporterOTLPHTTP:
		return otlptracehttp.New(ctx)
	case config.ExporterOTLPGRPC:
		return otlptracegrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unknown traces exporter %q", kind)
	}
}

func newLogExporter(ctx context.Context, kind string) (sdklog.Exporter, error) {
	switch kind {
	case config.ExporterNone, "":
		return nil, nil
	case config.ExporterStdout:
		return stdoutlog.New()
	case config.ExporterOTLPHTTP:
		return otlploghttp.New(ctx)
	case config.ExporterOTLPGRPC:
		return otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unknown logs exporter %q", kind)
	}
}
