package telemetry

import (
	"context"
	"errors"

	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when NewBusinessMetrics gets no meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// BusinessMetrics counts order lifecycle transitions. It subscribes to the
// event bus, so the counters move once per relayed outbox entry.
type BusinessMetrics struct {
	ordersPlaced     *Counter
	revenueCents     *Counter
	orderLines       *Histogram
	ordersPaid       *Counter
	ordersCancelled  *Counter
	linesShipped     *Counter
	ordersDelivered  *Counter
	checkoutFailures *Counter
	logger           *zap.Logger
}

// NewBusinessMetrics registers the order instruments on meter.
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &BusinessMetrics{logger: logger}
	var err error
	if m.ordersPlaced, err = NewCounter(meter, "shop_orders_placed_total", "Orders created by checkout", "{order}"); err != nil {
		return nil, err
	}
	if m.revenueCents, err = NewCounter(meter, "shop_order_revenue_cents_total", "Order totals at placement, in minor units", "{cent}"); err != nil {
		return nil, err
	}
	if m.orderLines, err = NewHistogram(meter, HistogramOpts{
		Name:        "shop_order_lines",
		Description: "Number of lines per placed order",
		Unit:        "{line}",
		Boundaries:  []float64{1, 2, 3, 5, 10, 20, 50},
	}); err != nil {
		return nil, err
	}
	if m.ordersPaid, err = NewCounter(meter, "shop_orders_paid_total", "Orders marked paid", "{order}"); err != nil {
		return nil, err
	}
	if m.ordersCancelled, err = NewCounter(meter, "shop_orders_cancelled_total", "Orders cancelled", "{order}"); err != nil {
		return nil, err
	}
	if m.linesShipped, err = NewCounter(meter, "shop_order_lines_shipped_total", "Order lines shipped by vendors", "{line}"); err != nil {
		return nil, err
	}
	if m.ordersDelivered, err = NewCounter(meter, "shop_orders_delivered_total", "Orders delivered", "{order}"); err != nil {
		return nil, err
	}
	if m.checkoutFailures, err = NewCounter(meter, "shop_checkout_failures_total", "Checkout attempts rejected, by error code", "{attempt}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCheckoutFailure counts a rejected checkout. Domain errors are labelled
// with their code, anything else as "internal".
func (m *BusinessMetrics) RecordCheckoutFailure(ctx context.Context, err error) {
	if m == nil || err == nil {
		return
	}
	reason := "internal"
	var de *shared.DomainError
	if errors.As(err, &de) {
		reason = de.Code
	}
	m.checkoutFailures.Inc(ctx, AttrFailureReason.String(reason))
}

// EventTypes implements shared.EventHandler.
func (m *BusinessMetrics) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderPaid,
		order.EventTypeOrderLineShipped,
		order.EventTypeOrderDelivered,
		order.EventTypeOrderCancelled,
	}
}

// Handle implements shared.EventHandler.
func (m *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		m.ordersPlaced.Inc(ctx)
		m.revenueCents.Add(ctx, e.Total.Shift(2).Round(0).IntPart())
		m.orderLines.Record(ctx, float64(len(e.Lines)))
	case *order.OrderPaidEvent:
		m.ordersPaid.Inc(ctx)
	case *order.OrderLineShippedEvent:
		m.linesShipped.Add(ctx, int64(len(e.LineIDs)))
	case *order.OrderDeliveredEvent:
		m.ordersDelivered.Inc(ctx)
	case *order.OrderCancelledEvent:
		m.ordersCancelled.Inc(ctx)
	default:
		m.logger.Debug("Ignoring event for business metrics", zap.String("event_type", event.EventType()))
	}
	return nil
}
