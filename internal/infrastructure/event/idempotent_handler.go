package event

import (
	"context"
	"sync/atomic"

	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultEventKeyPrefix = "event:"

// IdempotencyStats counts what an IdempotentHandler did with the events it saw
type IdempotencyStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler runs the wrapped handler at most once per event ID.
// The outbox delivers at least once, so replays after a crash or a retried
// batch are absorbed here. A failed run releases its claim so the next
// delivery tries again.
type IdempotentHandler struct {
	handler   shared.EventHandler
	store     shared.IdempotencyStore
	config    shared.IdempotencyConfig
	keyPrefix string
	logger    *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.config = config }
}

// WithKeyPrefix namespaces claims in a store shared with other handlers
func WithKeyPrefix(prefix string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.keyPrefix = prefix }
}

func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		handler:   handler,
		store:     store,
		config:    shared.DefaultIdempotencyConfig(),
		keyPrefix: defaultEventKeyPrefix,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event ID and runs the wrapped handler. If the store is
// unreachable the event is processed anyway.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	key := h.Key(event)
	fields := []zap.Field{zap.String("event_id", event.EventID().String()), zap.String("event_type", event.EventType())}

	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("idempotency store unavailable, processing event unguarded", append(fields, zap.Error(err))...)
	case !claimed:
		h.duplicates.Add(1)
		h.logger.Debug("skipping duplicate event", fields...)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		h.logger.Error("event handler failed", append(fields, zap.Error(err))...)
		if relErr := h.store.Release(ctx, key); relErr != nil {
			h.logger.Warn("failed to release idempotency claim", append(fields, zap.Error(relErr))...)
		}
		return err
	}

	h.processed.Add(1)
	return nil
}

// Key is the store key claimed for event
func (h *IdempotentHandler) Key(event shared.DomainEvent) string {
	return h.keyPrefix + event.EventID().String()
}

func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
