package event

import (
	"context"
	"fmt"

	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher stages events in the outbox table of an open transaction,
// so they commit or roll back together with the order change that raised
// them
type OutboxPublisher struct {
	serializer *EventSerializer
}

func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// SaveEvents implements shared.OutboxEventSaver. tx must be the *gorm.DB of
// the surrounding transaction.
func (p *OutboxPublisher) SaveEvents(ctx context.Context, tx any, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	db, ok := tx.(*gorm.DB)
	if !ok {
		return fmt.Errorf("outbox: expected a *gorm.DB transaction, got %T", tx)
	}
	return p.stage(ctx, db, events)
}

func (p *OutboxPublisher) stage(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	entries := make([]*shared.OutboxEntry, len(events))
	for i, e := range events {
		payload, err := p.serializer.Serialize(e)
		if err != nil {
			return err
		}
		entries[i] = shared.NewOutboxEntry(e, payload)
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
