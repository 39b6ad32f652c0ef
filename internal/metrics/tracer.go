package metrics

import (
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("chweb.metrics")

const ScrapeTimeout = 10 * time.Second
