package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
)

// MaxRows is the hard limit of rows materialized for a single query.
const MaxRows = 2000

type Config struct {
	Address        string   `env:"ADDRESS" envDefault:"127.0.0.1:3001"`
	TrustProxies   []string `env:"TRUST_PROXIES"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`

	Server     ServerConfig     `envPrefix:"SERVER_"`
	ClickHouse ClickHouseConfig `envPrefix:"CLICKHOUSE_"`
	Query      QueryConfig      `envPrefix:"QUERY_"`
	Telemetry  TelemetryConfig  `envPrefix:"TELEMETRY_"`
}

func (c Config) Validate() error {
	var result *multierror.Error

	if c.Address == "" {
		result = multierror.Append(result, errors.New("ADDRESS is required"))
	}

	if err := c.Server.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.ClickHouse.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Query.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

type ServerConfig struct {
	CertFile *string `env:"CERT_FILE"`
	KeyFile  *string `env:"KEY_FILE"`
}

func (c ServerConfig) Validate() error {
	if (c.CertFile == nil) != (c.KeyFile == nil) {
		return errors.New("SERVER_CERT_FILE and SERVER_KEY_FILE must be set together")
	}

	return nil
}

// GetProto returns the protocol the server listens with.
func (c ServerConfig) GetProto() string {
	if c.CertFile != nil && c.KeyFile != nil {
		return "https"
	}

	return "http"
}

// Compression methods supported for ClickHouse HTTP responses.
const (
	CompressionNone    = "none"
	CompressionGzip    = "gzip"
	CompressionDeflate = "deflate"
	CompressionZstd    = "zstd"
	CompressionLz4     = "lz4"
)

var compressionMethods = []string{
	CompressionNone,
	CompressionGzip,
	CompressionDeflate,
	CompressionZstd,
	CompressionLz4,
}

// ClickHouseConfig describes how to reach the ClickHouse HTTP interface.
//
// The user should be a read-only one: the gateway runs whatever it is given.
type ClickHouseConfig struct {
	URL         string            `env:"URL" envDefault:"http://localhost:8123"`
	User        string            `env:"USER"`
	Password    string            `env:"PASSWORD"`
	Database    string            `env:"DATABASE"`
	Compression string            `env:"COMPRESSION" envDefault:"none"`
	Headers     map[string]string `env:"HEADERS"`
	DialTimeout time.Duration     `env:"DIAL_TIMEOUT" envDefault:"10s"`
}

func (c ClickHouseConfig) Validate() error {
	if c.URL == "" {
		return errors.New("CLICKHOUSE_URL is required")
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("CLICKHOUSE_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("CLICKHOUSE_URL must be an http or https URL, got %q", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("CLICKHOUSE_URL has no host: %q", c.URL)
	}

	if !lo.Contains(compressionMethods, c.Compression) {
		return fmt.Errorf("CLICKHOUSE_COMPRESSION must be one of %v, got %q", compressionMethods, c.Compression)
	}

	return nil
}

// QueryConfig controls how the gateway treats submitted statements.
type QueryConfig struct {
	// MaxRows is the number of rows returned at most. Capped at MaxRows.
	MaxRows int `env:"MAX_ROWS" envDefault:"2000"`
	// ApplyDefaultLimit sends the statement with a LIMIT clause appended
	// when it has none. Off by default: the statement is sent as submitted.
	ApplyDefaultLimit bool `env:"APPLY_DEFAULT_LIMIT" envDefault:"false"`
	// Timeout bounds a single query. Zero means no deadline.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"0s"`
}

func (c QueryConfig) Validate() error {
	if c.MaxRows <= 0 || c.MaxRows > MaxRows {
		return fmt.Errorf("QUERY_MAX_ROWS must be between 1 and %d, got %d", MaxRows, c.MaxRows)
	}
	if c.Timeout < 0 {
		return errors.New("QUERY_TIMEOUT must not be negative")
	}

	return nil
}

// RowCap returns the effective row cap. It never exceeds MaxRows.
func (c QueryConfig) RowCap() int {
	if c.MaxRows <= 0 || c.MaxRows > MaxRows {
		return MaxRows
	}

	return c.MaxRows
}

// Exporters supported for traces and logs.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

var exporters = []string{ExporterNone, ExporterStdout, ExporterOTLPHTTP, ExporterOTLPGRPC}

// TelemetryConfig selects where traces and logs are exported.
//
// The OTLP exporters read their endpoints from the standard
// OTEL_EXPORTER_OTLP_* variables.
type TelemetryConfig struct {
	ServiceName    string `env:"SERVICE_NAME" envDefault:"chweb"`
	TracesExporter string `env:"TRACES_EXPORTER" envDefault:"none"`
	LogsExporter   string `env:"LOGS_EXPORTER" envDefault:"none"`
}

func (c TelemetryConfig) Validate() error {
	if !lo.Contains(exporters, c.TracesExporter) {
		return fmt.Errorf("TELEMETRY_TRACES_EXPORTER must be one of %v, got %q", exporters, c.TracesExporter)
	}
	if !lo.Contains(exporters, c.LogsExporter) {
		return fmt.Errorf("TELEMETRY_LOGS_EXPORTER must be one of %v, got %q", exporters, c.LogsExporter)
	}

	return nil
}
