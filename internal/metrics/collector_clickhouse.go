package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	otelcodes "go.opentelemetry.io/otel/codes"
)

var chwebClickHouseUpDesc = prometheus.NewDesc(
	"chweb_clickhouse_up",
	"Whether the ClickHouse server answered the last ping (1) or not (0)",
	nil,
	nil,
)

// Pinger is anything that can check a database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ClickHouseCollector struct {
	pinger Pinger
}

func NewClickHouseCollector(pinger Pinger) *ClickHouseCollector {
	return &ClickHouseCollector{pinger: pinger}
}

func (c *ClickHouseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- chwebClickHouseUpDesc
}

func (c *ClickHouseCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), ScrapeTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "ClickHouseCollector.Collect")
	defer span.End()

	up := 1.0
	if err := c.pinger.Ping(ctx); err != nil {
		span.SetStatus(otelcodes.Error, "Failed to ping ClickHouse")
		span.RecordError(err)

		up = 0
	} else {
		span.SetStatus(otelcodes.Ok, "ClickHouse pinged successfully")
	}

	ch <- prometheus.MustNewConstMetric(chwebClickHouseUpDesc, prometheus.GaugeValue, up)
}

var _ prometheus.Collector = (*ClickHouseCollector)(nil)
