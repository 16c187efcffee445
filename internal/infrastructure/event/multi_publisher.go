package event

import (
	"context"
	"errors"

	"github.com/shopfront/backend/internal/domain/shared"
)

// MultiPublisher fans events out to several publishers. Every publisher is
// attempted; the returned error joins all failures.
type MultiPublisher struct {
	publishers []shared.EventPublisher
}

// NewMultiPublisher creates a publisher that forwards to each non-nil publisher
func NewMultiPublisher(publishers ...shared.EventPublisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

// Publish forwards the events to every publisher
func (m *MultiPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ shared.EventPublisher = (*MultiPublisher)(nil)
