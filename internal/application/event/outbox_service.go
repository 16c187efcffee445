package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxService backs the admin tooling for the order event outbox
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	return &OutboxService{repo: repo, logger: logger}
}

// OutboxEntryResponse is the admin view of an outbox entry. The payload is
// left out; it can be large and carries buyer data.
type OutboxEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxStatsResponse counts entries per status
type OutboxStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// ListDead returns a page of dead-lettered entries, most recently failed first
func (s *OutboxService) ListDead(ctx context.Context, filter shared.Filter) (shared.Paginated[OutboxEntryResponse], error) {
	filter = filter.Normalize()

	entries, total, err := s.repo.FindDead(ctx, filter.Page, filter.PageSize)
	if err != nil {
		s.logger.Error("Failed to list dead outbox entries", zap.Error(err))
		return shared.Paginated[OutboxEntryResponse]{}, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	items := make([]OutboxEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = toOutboxEntryResponse(e)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Retry moves a dead entry back to pending so the processor picks it up on
// its next poll. Only dead entries can be retried.
func (s *OutboxService) Retry(ctx context.Context, id uuid.UUID) (*OutboxEntryResponse, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrOutboxEntryNotFound) {
			return nil, shared.ErrOutboxEntryNotFound
		}
		s.logger.Error("Failed to load outbox entry", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Only dead-lettered entries can be retried")
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to requeue outbox entry", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	s.logger.Info("Dead outbox entry requeued",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
	)
	resp := toOutboxEntryResponse(entry)
	return &resp, nil
}

// Stats returns the number of entries in each status
func (s *OutboxService) Stats(ctx context.Context) (*OutboxStatsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count outbox entries", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	stats := &OutboxStatsResponse{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func toOutboxEntryResponse(e *shared.OutboxEntry) OutboxEntryResponse {
	return OutboxEntryResponse{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
