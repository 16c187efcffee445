package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const unmatchedRoute = "unknown"

var byteBuckets = []float64{128, 512, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20}

type requestInstruments struct {
	count    *telemetry.Counter
	latency  *telemetry.Histogram
	reqBytes *telemetry.Histogram
	resBytes *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newRequestInstruments(meter metric.Meter) (*requestInstruments, error) {
	var (
		ri  requestInstruments
		err error
	)
	if ri.count, err = telemetry.NewCounter(meter, "http_server_request_total", "Requests served", "{request}"); err != nil {
		return nil, err
	}
	if ri.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "Time from first byte read to handler return",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if ri.reqBytes, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_size_bytes",
		Description: "Declared request body length",
		Unit:        "By",
		Boundaries:  byteBuckets,
	}); err != nil {
		return nil, err
	}
	if ri.resBytes, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "Response body bytes written",
		Unit:        "By",
		Boundaries:  byteBuckets,
	}); err != nil {
		return nil, err
	}
	ri.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Requests currently being handled"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &ri, nil
}

// HTTPMetrics measures every request under its route pattern, so
// /orders/:id stays one series. Without an enabled provider it does nothing.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if !mp.IsEnabled() {
		return passThrough
	}
	ri, err := newRequestInstruments(mp.Meter("shopfront/http"))
	if err != nil {
		return passThrough
	}
	return ri.handle
}

func (ri *requestInstruments) handle(c *gin.Context) {
	ctx := c.Request.Context()
	began := time.Now()
	ri.inFlight.Add(ctx, 1)
	defer func() {
		ri.inFlight.Add(ctx, -1)
		ri.observe(ctx, c, time.Since(began))
	}()
	c.Next()
}

func (ri *requestInstruments) observe(ctx context.Context, c *gin.Context, elapsed time.Duration) {
	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	labels := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}
	ri.latency.RecordDuration(ctx, elapsed, labels...)
	if n := c.Request.ContentLength; n > 0 {
		ri.reqBytes.Record(ctx, float64(n), labels...)
	}
	if n := c.Writer.Size(); n > 0 {
		ri.resBytes.Record(ctx, float64(n), labels...)
	}

	countLabels := append(labels[:len(labels):len(labels)], telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
	if p, ok := GetPrincipal(c); ok {
		countLabels = append(countLabels, telemetry.AttrUserRole.String(p.Role.String()))
	}
	ri.count.Inc(ctx, countLabels...)
}

func passThrough(c *gin.Context) {
	c.Next()
}
