package network

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/statusboard/statusboard/internal/network"

// CheckMetrics holds the instruments recorded for every status check.
type CheckMetrics struct {
	checkDuration metric.Float64Histogram
	checkTotal    metric.Int64Counter
}

// NewCheckMetrics creates status check instruments on the global meter provider.
func NewCheckMetrics() (*CheckMetrics, error) {
	meter := otel.Meter(meterName)

	checkDuration, err := meter.Float64Histogram(
		"statuscheck.duration",
		metric.WithDescription("Duration of service status checks in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	checkTotal, err := meter.Int64Counter(
		"statuscheck.total",
		metric.WithDescription("Total number of service status checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	return &CheckMetrics{
		checkDuration: checkDuration,
		checkTotal:    checkTotal,
	}, nil
}

// Record records one status check. statusCode is zero for transport failures.
func (m *CheckMetrics) Record(host string, statusCode int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("server.address", host),
		attribute.String("http.status_code", strconv.Itoa(statusCode)),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Checks outlive the request that started them, so no caller context here.
	ctx := context.TODO()
	m.checkDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.checkTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
