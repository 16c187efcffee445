package shared

// BaseAggregateRoot is embedded by aggregates that are saved as a unit. It
// adds the optimistic locking version and the events raised since the last
// save.
type BaseAggregateRoot struct {
	BaseEntity
	// Version is compared on update; a mismatch means a concurrent writer won
	Version int
	pending []DomainEvent
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// Record queues an event to be written to the outbox on the next save
func (a *BaseAggregateRoot) Record(e DomainEvent) {
	a.pending = append(a.pending, e)
}

// PendingEvents returns the queued events in the order they were raised
func (a *BaseAggregateRoot) PendingEvents() []DomainEvent {
	return a.pending
}

func (a *BaseAggregateRoot) ClearEvents() {
	a.pending = nil
}
