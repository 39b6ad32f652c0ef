package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/chweb/chweb/internal/config"
	"github.com/chweb/chweb/internal/deps"
	"github.com/chweb/chweb/internal/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"

	_ "github.com/chweb/chweb/internal/deps/logger"
)

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "chweb",
		Usage: "A web-based SQL console for ClickHouse",
		Description: "Serves a browser console and a JSON query API in front of a ClickHouse server. " +
			"Settings are read from the environment (and a .env file); flags take precedence.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "ClickHouse server URL",
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "ClickHouse username, must be a read-only user",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "ClickHouse password",
			},
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "address to bind the server",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := deps.Config(flagOverrides(c))
			if err != nil {
				return err
			}

			return serve(cfg)
		},
	}
}

// flagOverrides applies the flags that were explicitly set.
func flagOverrides(c *cli.Command) deps.Override {
	return func(cfg *config.Config) {
		if c.IsSet("url") {
			cfg.ClickHouse.URL = c.String("url")
		}
		if c.IsSet("user") {
			cfg.ClickHouse.User = c.String("user")
		}
		if c.IsSet("password") {
			cfg.ClickHouse.Password = c.String("password")
		}
		if c.IsSet("address") {
			cfg.Address = c.String("address")
		}
	}
}

func serve(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app := fx.New(
		fx.Supply(cfg),
		deps.FxCommonModule,
		fx.Provide(
			AnnotateMiddleware(ClientMiddleware),
			AnnotateMiddleware(TracingMiddleware),
			AnnotateMiddleware(LoggerMiddleware),
			AnnotateMiddleware(CorsMiddleware),
			AnnotateService(QueryService),
			AnnotateService(HealthService),
			fx.Annotate(
				GinEngine,
				fx.ParamTags(`group:"services"`, `group:"middlewares"`),
			),
		),
		// telemetry goes first so the logger and tracers below pick it up
		fx.Invoke(func(*telemetry.Providers) {}),
		fx.Invoke(ClickHouseCollector),
		fx.Invoke(GinLifecycle),
	)

	if err := app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("Gracefully shutting down server (Ctrl+C again to force stop)...")
	cancel()

	if err := app.Stop(context.Background()); err != nil {
		return err
	}

	slog.Info("Server stopped")
	return nil
}
