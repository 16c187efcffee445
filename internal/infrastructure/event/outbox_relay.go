package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RelayConfig tunes the outbox relay
type RelayConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// Sent rows older than Retention are deleted every SweepInterval. A zero
	// Retention keeps them forever.
	Retention     time.Duration
	SweepInterval time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:     100,
		PollInterval:  5 * time.Second,
		Retention:     7 * 24 * time.Hour,
		SweepInterval: time.Hour,
	}
}

// RelayResult counts what one pass did with the entries it claimed
type RelayResult struct {
	Sent         int
	Failed       int
	DeadLettered int
}

func (r *RelayResult) add(o RelayResult) {
	r.Sent += o.Sent
	r.Failed += o.Failed
	r.DeadLettered += o.DeadLettered
}

// OutboxRelay moves committed outbox rows to a publisher. A row is marked
// sent only after the publisher accepts it, so delivery is at least once.
type OutboxRelay struct {
	repo       shared.OutboxRepository
	publisher  shared.EventPublisher
	serializer *EventSerializer
	cfg        RelayConfig
	log        *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewOutboxRelay(
	repo shared.OutboxRepository,
	publisher shared.EventPublisher,
	serializer *EventSerializer,
	cfg RelayConfig,
	log *zap.Logger,
) *OutboxRelay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultRelayConfig().BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultRelayConfig().PollInterval
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultRelayConfig().SweepInterval
	}
	return &OutboxRelay{
		repo:       repo,
		publisher:  publisher,
		serializer: serializer,
		cfg:        cfg,
		log:        log.Named("outbox"),
	}
}

// Start polls in the background until ctx ends or Stop is called
func (r *OutboxRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return errors.New("outbox relay already running")
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.run(ctx, r.done)
	return nil
}

// Stop cancels polling and waits for the current pass, up to ctx
func (r *OutboxRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *OutboxRelay) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()
	var sweep <-chan time.Time
	if r.cfg.Retention > 0 {
		t := time.NewTicker(r.cfg.SweepInterval)
		defer t.Stop()
		sweep = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			r.RelayOnce(ctx)
		case <-sweep:
			r.Sweep(ctx)
		}
	}
}

// RelayOnce handles one batch of new rows and one batch of rows whose retry
// is due
func (r *OutboxRelay) RelayOnce(ctx context.Context) RelayResult {
	var res RelayResult

	pending, err := r.repo.FindPending(ctx, r.cfg.BatchSize)
	if err != nil {
		r.log.Error("Load pending outbox rows", zap.Error(err))
		return res
	}
	res.add(r.relay(ctx, pending))

	due, err := r.repo.FindRetryable(ctx, time.Now(), r.cfg.BatchSize)
	if err != nil {
		r.log.Error("Load retryable outbox rows", zap.Error(err))
		return res
	}
	res.add(r.relay(ctx, due))
	return res
}

func (r *OutboxRelay) relay(ctx context.Context, candidates []*shared.OutboxEntry) RelayResult {
	var res RelayResult
	if len(candidates) == 0 {
		return res
	}
	ids := make([]uuid.UUID, len(candidates))
	for i, e := range candidates {
		ids[i] = e.ID
	}
	// rows claimed by another replica are left out
	claimed, err := r.repo.MarkProcessing(ctx, ids)
	if err != nil {
		r.log.Error("Claim outbox rows", zap.Error(err))
		return res
	}

	for _, entry := range claimed {
		switch err := r.deliver(ctx, entry); {
		case err == nil:
			entry.MarkSent()
			res.Sent++
		case errors.Is(err, ErrUnknownEventType):
			entry.MarkDead(err.Error())
		default:
			entry.MarkFailed(err.Error())
		}
		if entry.IsDead() {
			res.DeadLettered++
			r.log.Warn("Outbox row dead-lettered", entryFields(entry)...)
		} else if entry.Status == shared.OutboxStatusFailed {
			res.Failed++
			r.log.Info("Outbox delivery failed, will retry",
				append(entryFields(entry), zap.Timep("next_retry_at", entry.NextRetryAt))...)
		}

		if err := r.repo.Update(ctx, entry); err != nil {
			r.log.Error("Save outbox row state", append(entryFields(entry), zap.Error(err))...)
		}
	}
	return res
}

func (r *OutboxRelay) deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	ev, err := r.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, ev)
}

// Sweep deletes sent rows past retention
func (r *OutboxRelay) Sweep(ctx context.Context) int64 {
	cutoff := time.Now().Add(-r.cfg.Retention)
	n, err := r.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		r.log.Error("Sweep sent outbox rows", zap.Error(err))
		return 0
	}
	if n > 0 {
		r.log.Info("Swept sent outbox rows", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
	return n
}

func entryFields(e *shared.OutboxEntry) []zap.Field {
	return []zap.Field{
		zap.Stringer("event_id", e.EventID),
		zap.String("event_type", e.EventType),
		zap.Stringer("aggregate_id", e.AggregateID),
		zap.Int("attempts", e.RetryCount),
		zap.String("last_error", e.LastError),
	}
}
