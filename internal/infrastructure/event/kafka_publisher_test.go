package event

import (
	"context"
	"errors"
	"testing"

	"github.com/shopfront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

type recordingProducer struct {
	records []*kgo.Record
	err     error
}

func (p *recordingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.records = append(p.records, rs...)
	results := make(kgo.ProduceResults, len(rs))
	for i, r := range rs {
		results[i] = kgo.ProduceResult{Record: r, Err: p.err}
	}
	return results
}

func headerValue(r *kgo.Record, key string) string {
	for _, h := range r.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &recordingProducer{}
	serializer := NewEventSerializer()
	publisher := NewKafkaPublisher(producer, serializer, "shop.orders", zap.NewNop())

	first, second := testutil.NewTestEvent("OrderPlaced"), testutil.NewTestEvent("OrderPaid")
	require.NoError(t, publisher.Publish(context.Background(), first, second))

	require.Len(t, producer.records, 2)
	r := producer.records[0]
	assert.Equal(t, "shop.orders", r.Topic)
	assert.Equal(t, first.AggregateID().String(), string(r.Key))
	assert.Equal(t, "OrderPlaced", headerValue(r, HeaderEventType))
	assert.Equal(t, first.EventID().String(), headerValue(r, HeaderEventID))
	assert.Equal(t, "TestAggregate", headerValue(r, HeaderAggregateType))
	assert.Contains(t, string(r.Value), `"data":"test data"`)
	assert.Equal(t, "OrderPaid", headerValue(producer.records[1], HeaderEventType))
}

func TestKafkaPublisher_ProduceError(t *testing.T) {
	producer := &recordingProducer{err: errors.New("not enough replicas")}
	publisher := NewKafkaPublisher(producer, NewEventSerializer(), "shop.orders", zap.NewNop())

	err := publisher.Publish(context.Background(), testutil.NewTestEvent("OrderPlaced"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough replicas")
	assert.Contains(t, err.Error(), "shop.orders")
}

func TestKafkaPublisher_NoEvents(t *testing.T) {
	producer := &recordingProducer{}
	publisher := NewKafkaPublisher(producer, NewEventSerializer(), "shop.orders", zap.NewNop())

	require.NoError(t, publisher.Publish(context.Background()))
	assert.Empty(t, producer.records)
}

func TestMultiPublisher(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := testutil.NewRecordingHandler("OrderPlaced")
	bus.Subscribe(handler)

	ok := &recordingProducer{}
	broken := &recordingProducer{err: errors.New("down")}
	serializer := NewEventSerializer()

	multi := NewMultiPublisher(
		bus,
		nil,
		NewKafkaPublisher(ok, serializer, "a", zap.NewNop()),
		NewKafkaPublisher(broken, serializer, "b", zap.NewNop()),
	)

	err := multi.Publish(context.Background(), testutil.NewTestEvent("OrderPlaced"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Len(t, handler.Events(), 1, "every publisher is attempted")
	assert.Len(t, ok.records, 1)

	require.NoError(t, NewMultiPublisher(bus).Publish(context.Background(), testutil.NewTestEvent("OrderPlaced")))
}
