package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Depado/ginprom"
	"github.com/chweb/chweb/httpapi"
	healthservice "github.com/chweb/chweb/httpapi/health"
	queryservice "github.com/chweb/chweb/httpapi/query"
	"github.com/chweb/chweb/internal/clickhouse"
	"github.com/chweb/chweb/internal/config"
	"github.com/chweb/chweb/internal/gateway"
	"github.com/chweb/chweb/internal/httputils"
	"github.com/chweb/chweb/internal/metrics"
	"github.com/chweb/chweb/webui"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"
)

// ClientMiddleware creates a client middleware that can be injected into gin.
func ClientMiddleware() Middleware {
	return Middleware{
		Handler: httputils.ClientMiddleware(),
	}
}

// LoggerMiddleware creates an access log middleware that can be injected into gin.
func LoggerMiddleware() Middleware {
	return Middleware{
		Handler: sloggin.NewWithConfig(slog.Default(), sloggin.Config{
			DefaultLevel:     slog.LevelInfo,
			ClientErrorLevel: slog.LevelWarn,
			ServerErrorLevel: slog.LevelError,
			WithRequestID:    true,
		}),
	}
}

// TracingMiddleware creates an OpenTelemetry middleware that can be injected into gin.
func TracingMiddleware(cfg config.Config) Middleware {
	return Middleware{
		Handler: otelgin.Middleware(cfg.Telemetry.ServiceName),
	}
}

// CorsMiddleware creates a cors middleware that can be injected into gin.
//
// Without allowed origins the console is same-origin only and no CORS
// headers are sent.
func CorsMiddleware(cfg config.Config) Middleware {
	if len(cfg.AllowedOrigins) == 0 {
		return Middleware{Handler: func(c *gin.Context) { c.Next() }}
	}

	return Middleware{
		Handler: cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "User-Agent", "Referer"},
		}),
	}
}

// QueryService creates the query service.
func QueryService(gatewayService *gateway.Service) httpapi.Service {
	return queryservice.NewQueryService(gatewayService)
}

// HealthService creates the health service.
func HealthService(client *clickhouse.Client) httpapi.Service {
	return healthservice.NewHealthService(client)
}

// ClickHouseCollector registers the ClickHouse availability collector.
func ClickHouseCollector(client *clickhouse.Client) error {
	return prometheus.Register(metrics.NewClickHouseCollector(client))
}

// GinEngine creates a gin engine.
func GinEngine(services []httpapi.Service, middlewares []Middleware, cfg config.Config) (*gin.Engine, error) {
	engine := gin.New()

	if err := engine.SetTrustedProxies(cfg.TrustProxies); err != nil {
		slog.Error("error setting trusted proxies", "error", err)
	}

	prom := ginprom.New(
		ginprom.Engine(engine),
		ginprom.Namespace("chweb"),
		ginprom.Subsystem("http"),
		ginprom.Path("/metrics"),
	)
	engine.Use(prom.Instrument())

	for _, middleware := range middlewares {
		engine.Use(middleware.Handler)
	}

	engine.Use(gin.Recovery())

	if err := webui.Register(engine); err != nil {
		return nil, err
	}

	api := engine.Group("/api")
	httpapi.Register(api, services...)

	return engine, nil
}

// GinLifecycle starts the gin engine.
func GinLifecycle(lifecycle fx.Lifecycle, engine *gin.Engine, cfg config.Config) {
	httpCtx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			srv := &http.Server{
				Addr:    cfg.Address,
				Handler: gzhttp.GzipHandler(engine),
			}

			go func() {
				slog.Info("gin engine starting", "address", srv.Addr, "proto", cfg.Server.GetProto())

				if cfg.Server.CertFile != nil && cfg.Server.KeyFile != nil {
					if err := srv.ListenAndServeTLS(*cfg.Server.CertFile, *cfg.Server.KeyFile); err != nil {
						if errors.Is(err, http.ErrServerClosed) {
							return
						}

						slog.Error("error running gin engine with TLS", "error", err)
					}
				} else {
					if err := srv.ListenAndServe(); err != nil {
						if errors.Is(err, http.ErrServerClosed) {
							return
						}

						slog.Error("error running gin engine", "error", err)
					}
				}
			}()

			go func() {
				<-httpCtx.Done()
				if err := srv.Shutdown(context.Background()); err != nil {
					slog.Error("error shutting down gin engine", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return nil
			default:
				cancel()
			}

			return nil
		},
	})
}

// Middleware is a middleware that can be injected into gin.
type Middleware struct {
	Handler gin.HandlerFunc
}

// AnnotateMiddleware annotates a middleware function to be injected into gin.
func AnnotateMiddleware(f any) any {
	return fx.Annotate(
		f,
		fx.ResultTags(`group:"middlewares"`),
	)
}

// AnnotateService annotates a service function to be injected into gin.
func AnnotateService(f any) any {
	return fx.Annotate(
		f,
		fx.ResultTags(`group:"services"`),
	)
}
