package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	// OutboxStatusDead entries exhausted their retries and wait for an
	// operator to requeue them
	OutboxStatusDead OutboxStatus = "DEAD"
)

var (
	ErrOutboxEntryNotFound = NewDomainError("OUTBOX_ENTRY_NOT_FOUND", "Outbox entry not found")
	ErrOutboxNotClaimable  = errors.New("outbox entry is not pending or failed")
	ErrOutboxNotDead       = errors.New("outbox entry is not dead-lettered")
)

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	// MaxBackoff caps the doubling retry delay
	MaxBackoff = 5 * time.Minute
)

// OutboxEntry is a domain event staged for at-least-once delivery. It is
// written in the same transaction as the aggregate change and relayed by
// the outbox processor.
type OutboxEntry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CanRetry reports whether a failed entry has attempts left
func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// MarkProcessing claims a pending or failed entry
func (e *OutboxEntry) MarkProcessing() error {
	switch e.Status {
	case OutboxStatusPending, OutboxStatusFailed:
		e.transition(OutboxStatusProcessing, time.Now())
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrOutboxNotClaimable, e.Status)
	}
}

func (e *OutboxEntry) MarkSent() {
	now := time.Now()
	e.ProcessedAt = &now
	e.transition(OutboxStatusSent, now)
}

// MarkFailed records a delivery failure. The entry is retried after a
// doubling delay until MaxRetries failures, then dead-lettered.
func (e *OutboxEntry) MarkFailed(errMsg string) {
	now := time.Now()
	e.RetryCount++
	e.LastError = errMsg
	if e.RetryCount >= e.MaxRetries {
		e.NextRetryAt = nil
		e.transition(OutboxStatusDead, now)
		return
	}
	next := now.Add(RetryBackoff(e.RetryCount))
	e.NextRetryAt = &next
	e.transition(OutboxStatusFailed, now)
}

// MarkDead dead-letters the entry at once, for failures no retry can fix
func (e *OutboxEntry) MarkDead(reason string) {
	e.RetryCount++
	e.LastError = reason
	e.NextRetryAt = nil
	e.transition(OutboxStatusDead, time.Now())
}

// ResetForRetry requeues a dead entry with a fresh retry budget
func (e *OutboxEntry) ResetForRetry() error {
	if !e.IsDead() {
		return fmt.Errorf("%w: %s", ErrOutboxNotDead, e.Status)
	}
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	e.transition(OutboxStatusPending, time.Now())
	return nil
}

func (e *OutboxEntry) transition(to OutboxStatus, at time.Time) {
	e.Status = to
	e.UpdatedAt = at
}

// RetryBackoff is the delay before attempt n+1 after n failures:
// 1s, 2s, 4s ... capped at MaxBackoff
func RetryBackoff(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	d := DefaultBaseBackoff
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= MaxBackoff {
			return MaxBackoff
		}
	}
	return d
}

// OutboxRepository persists outbox entries. A relay claims entries with
// MarkProcessing before publishing so two relays never send the same row.
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns failed entries whose NextRetryAt is not after due
	FindRetryable(ctx context.Context, due time.Time, limit int) ([]*OutboxEntry, error)
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteOlderThan only removes sent entries
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
