package event

import (
	"context"
	"fmt"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Record header keys set on every published event
const (
	HeaderEventType     = "event_type"
	HeaderEventID       = "event_id"
	HeaderAggregateType = "aggregate_type"
)

// RecordProducer is the subset of *kgo.Client used by KafkaPublisher
type RecordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes domain events to a Kafka topic. Records are keyed by
// aggregate ID so the events of one order stay in partition order.
type KafkaPublisher struct {
	producer   RecordProducer
	serializer *EventSerializer
	topic      string
	logger     *zap.Logger
}

// NewKafkaClient creates a franz-go client for the given brokers
func NewKafkaClient(brokers []string, clientID string) (*kgo.Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if clientID != "" {
		opts = append(opts, kgo.ClientID(clientID))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return client, nil
}

// NewKafkaPublisher creates a publisher writing to topic
func NewKafkaPublisher(producer RecordProducer, serializer *EventSerializer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer:   producer,
		serializer: serializer,
		topic:      topic,
		logger:     logger,
	}
}

// Publish produces one record per event and waits for every ack
func (p *KafkaPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		payload, err := p.serializer.Serialize(e)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", e.EventType(), err)
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(e.AggregateID().String()),
			Value: payload,
			Headers: []kgo.RecordHeader{
				{Key: HeaderEventType, Value: []byte(e.EventType())},
				{Key: HeaderEventID, Value: []byte(e.EventID().String())},
				{Key: HeaderAggregateType, Value: []byte(e.AggregateType())},
			},
		})
	}

	if err := p.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", p.topic, err)
	}

	p.logger.Debug("events produced to kafka",
		zap.String("topic", p.topic),
		zap.Int("count", len(records)),
	)
	return nil
}

var _ shared.EventPublisher = (*KafkaPublisher)(nil)
