// Package gateway turns a submitted statement into a bounded result envelope.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chweb/chweb/internal/config"
	"github.com/chweb/chweb/internal/httputils"
	"github.com/chweb/chweb/internal/metrics"
	"github.com/chweb/chweb/internal/tabular"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("chweb.gateway")

// ErrEmptyQuery is returned for a statement with no content.
var ErrEmptyQuery = errors.New("query is empty")

// Executor runs a statement and returns its TabSeparatedWithNames stream.
type Executor interface {
	Query(ctx context.Context, sql string) (io.ReadCloser, error)
}

// Service executes statements for the HTTP API.
type Service struct {
	executor Executor
	cfg      config.QueryConfig
}

func NewService(executor Executor, cfg config.QueryConfig) *Service {
	return &Service{
		executor: executor,
		cfg:      cfg,
	}
}

// Execute runs the statement and always returns an envelope: any failure
// is reported in its Error field.
func (s *Service) Execute(ctx context.Context, req Request) Response {
	ctx, span := tracer.Start(ctx, "gateway.Execute", trace.WithAttributes(
		attribute.Int("chweb.query.length", len(req.SQL)),
	))
	defer span.End()

	start := time.Now()
	logger := slog.With("client", httputils.GetClient(ctx))

	result, truncated, err := s.run(ctx, req.SQL)
	duration := time.Since(start)

	if err != nil {
		span.SetStatus(otelcodes.Error, "query failed")
		span.RecordError(err)
		metrics.RecordQuery(metrics.QueryStatusFailed, duration)
		logger.WarnContext(ctx, "query failed", "sql", req.SQL, "duration", duration, "error", err)

		return ErrorResponse(err)
	}

	span.SetAttributes(
		attribute.Int("chweb.query.columns", len(result.Columns)),
		attribute.Int("chweb.query.rows", len(result.Rows)),
		attribute.Bool("chweb.query.row_cap_reached", truncated),
	)
	span.SetStatus(otelcodes.Ok, "query succeeded")
	metrics.RecordQuery(metrics.QueryStatusSuccess, duration)
	metrics.RecordRows(len(result.Rows))
	if truncated {
		metrics.RecordRowCapReached()
	}
	logger.InfoContext(ctx, "query executed", "sql", req.SQL, "duration", duration, "rows", len(result.Rows), "row_cap_reached", truncated)

	return Response{
		Columns: result.Columns,
		Rows:    result.Rows,
	}
}

func (s *Service) run(ctx context.Context, sql string) (tabular.Result, bool, error) {
	if strings.TrimSpace(sql) == "" {
		return tabular.Result{}, false, ErrEmptyQuery
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	rowCap := s.cfg.RowCap()
	statement := PrepareSQL(sql, s.cfg.ApplyDefaultLimit, rowCap)

	slog.DebugContext(ctx, "executing query", "sql", statement)
	stream, err := s.executor.Query(ctx, statement)
	if err != nil {
		return tabular.Result{}, false, err
	}
	// closing before the end abandons the rest of the result
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Debug("failed to close result stream", "error", err)
		}
	}()

	decoder := tabular.NewDecoder(stream, rowCap)
	result, err := decoder.Decode()
	if err != nil {
		return tabular.Result{}, false, fmt.Errorf("decode result: %w", err)
	}

	return result, decoder.Truncated(), nil
}
