package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
)

// ErrUnknownEventType is returned when decoding a type nobody registered
var ErrUnknownEventType = errors.New("unknown event type")

// EventSerializer encodes events as JSON and decodes outbox payloads back
// into the concrete type registered for their event type
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: make(map[string]reflect.Type)}
}

// RegisterAllEvents registers the order lifecycle. The relay dead-letters
// any outbox row whose type is missing here.
func RegisterAllEvents(s *EventSerializer) {
	s.Register(order.EventTypeOrderPlaced, &order.OrderPlacedEvent{})
	s.Register(order.EventTypeOrderPaid, &order.OrderPaidEvent{})
	s.Register(order.EventTypeOrderLineShipped, &order.OrderLineShippedEvent{})
	s.Register(order.EventTypeOrderDelivered, &order.OrderDeliveredEvent{})
	s.Register(order.EventTypeOrderCancelled, &order.OrderCancelledEvent{})
}

// Register binds eventType to the type of prototype. Pointer and value
// prototypes are equivalent; decoded events are always pointers.
func (s *EventSerializer) Register(eventType string, prototype shared.DomainEvent) {
	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.Lock()
	s.types[eventType] = t
	s.mu.Unlock()
}

func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	return data, nil
}

func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	target := reflect.New(t).Interface()
	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
	}
	event, ok := target.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("registered type for %s is not a domain event", eventType)
	}
	return event, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[eventType]
	return ok
}

// RegisteredTypes lists the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.types))
	for name := range s.types {
		out = append(out, name)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}
