// Package deps contains the dependencies for the backend and the CLI.
package deps

import (
	"context"
	"log/slog"

	"github.com/chweb/chweb/internal/clickhouse"
	"github.com/chweb/chweb/internal/config"
	"github.com/chweb/chweb/internal/gateway"
	"github.com/chweb/chweb/internal/telemetry"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Override changes a loaded configuration, e.g. from command line flags.
type Override func(cfg *config.Config)

// Config loads the environment variables from the .env file, applies the
// overrides and returns a validated config.Config.
func Config(overrides ...Override) (config.Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("error loading .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("error creating config", "error", err)
		return config.Config{}, err
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("error validating config", "error", err)
		return config.Config{}, err
	}

	return cfg, nil
}

// ClickHouseClient creates the process-wide clickhouse.Client.
func ClickHouseClient(cfg config.Config) (*clickhouse.Client, error) {
	client, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		slog.Error("error creating clickhouse client", "error", err)
		return nil, err
	}

	return client, nil
}

// GatewayService creates the query gateway on top of the ClickHouse client.
func GatewayService(client *clickhouse.Client, cfg config.Config) *gateway.Service {
	return gateway.NewService(client, cfg.Query)
}

// Telemetry installs the OpenTelemetry providers and flushes them on stop.
func Telemetry(lifecycle fx.Lifecycle, cfg config.Config) (*telemetry.Providers, error) {
	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry)
	if err != nil {
		slog.Error("error setting up telemetry", "error", err)
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return providers.Shutdown(ctx)
		},
	})

	return providers, nil
}

var FxCommonModule = fx.Module("common",
	fx.Provide(Telemetry),
	fx.Provide(ClickHouseClient),
	fx.Provide(GatewayService),
)
