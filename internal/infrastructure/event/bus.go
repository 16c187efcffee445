package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus calls subscribed handlers inline on Publish. A failing
// or panicking handler does not stop the others; all failures come back
// joined so the relay retries the row.
type InMemoryEventBus struct {
	handlers *HandlerRegistry
	log      *zap.Logger
}

func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{handlers: NewHandlerRegistry(), log: log.Named("events")}
}

func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var failures []error
	for _, ev := range events {
		for _, h := range b.handlers.GetHandlers(ev.EventType()) {
			err := safeHandle(ctx, h, ev)
			if err == nil {
				continue
			}
			b.log.Error("Event handler failed",
				zap.String("event_type", ev.EventType()),
				zap.Stringer("event_id", ev.EventID()),
				zap.Error(err),
			)
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// Subscribe routes eventTypes to handler, falling back to the handler's own
// EventTypes. No types at all means every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.handlers.Register(handler, eventTypes...)
	b.log.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.handlers.Unregister(handler)
}

// Start and Stop exist for shared.EventBus; there is nothing to run
func (b *InMemoryEventBus) Start(context.Context) error { return nil }
func (b *InMemoryEventBus) Stop(context.Context) error  { return nil }

func safeHandle(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked on %s: %v", ev.EventType(), r)
		}
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
