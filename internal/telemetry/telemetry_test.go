package telemetry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/chweb/chweb/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_None(t *testing.T) {
	providers, err := Setup(context.Background(), config.TelemetryConfig{
		ServiceName:    "chweb-test",
		TracesExporter: config.ExporterNone,
		LogsExporter:   config.ExporterNone,
	})
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.LoggerProvider)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestSetup_Stdout(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(previous)
	})

	providers, err := Setup(context.Background(), config.TelemetryConfig{
		ServiceName:    "chweb-test",
		TracesExporter: config.ExporterStdout,
		LogsExporter:   config.ExporterStdout,
	})
	require.NoError(t, err)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.LoggerProvider)
	assert.NotSame(t, previous, slog.Default())

	_, span := providers.TracerProvider.Tracer("test").Start(context.Background(), "test-span")
	span.End()
	slog.Info("telemetry test log")

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{
		ServiceName:    "chweb-test",
		TracesExporter: "zipkin",
		LogsExporter:   config.ExporterNone,
	})
	assert.ErrorContains(t, err, "unknown traces exporter")
}
