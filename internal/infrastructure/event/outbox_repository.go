package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOutboxEntryNotFound = shared.ErrOutboxEntryNotFound

// claimable are the states a relay may pick an entry up from.
var claimable = []shared.OutboxStatus{shared.OutboxStatusPending, shared.OutboxStatusFailed}

// GormOutboxRepository stores outbox entries in outbox_events.
type GormOutboxRepository struct {
	db *gorm.DB
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx binds the repository to tx so staged entries share its fate.
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: tx}
}

func inStatus(status shared.OutboxStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", status) }
}

func (r *GormOutboxRepository) list(q *gorm.DB) ([]*shared.OutboxEntry, error) {
	var rows []models.OutboxEventModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	entries := make([]*shared.OutboxEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].Entry()
	}
	return entries, nil
}

func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OutboxEventModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.NewOutboxEventModel(e))
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindPending returns never-attempted entries in insertion order.
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.list(r.db.WithContext(ctx).
		Scopes(inStatus(shared.OutboxStatusPending)).
		Order("created_at").
		Limit(limit))
}

// FindRetryable returns failed entries whose backoff ends at or before due.
func (r *GormOutboxRepository) FindRetryable(ctx context.Context, due time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.list(r.db.WithContext(ctx).
		Scopes(inStatus(shared.OutboxStatusFailed)).
		Where("next_retry_at <= ?", due).
		Order("next_retry_at").
		Limit(limit))
}

// MarkProcessing claims the still-claimable subset of ids. Rows another
// relay holds a lock on are skipped rather than waited for.
func (r *GormOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	claimedAt := time.Now()
	var claimed []*shared.OutboxEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		claimed, err = r.list(tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("id IN ? AND status IN ?", ids, claimable))
		if err != nil || len(claimed) == 0 {
			return err
		}

		won := make([]uuid.UUID, len(claimed))
		for i, e := range claimed {
			won[i] = e.ID
			e.Status = shared.OutboxStatusProcessing
			e.UpdatedAt = claimedAt
		}
		return tx.Model(&models.OutboxEventModel{}).
			Where("id IN ?", won).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": claimedAt}).Error
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Update overwrites the whole row and stamps UpdatedAt.
func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(models.NewOutboxEventModel(entry)).Error
}

// DeleteOlderThan removes delivered entries processed before cutoff. Dead
// and failed entries are kept for the admin endpoints.
func (r *GormOutboxRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Scopes(inStatus(shared.OutboxStatusSent)).
		Where("processed_at < ?", cutoff).
		Delete(&models.OutboxEventModel{})
	return res.RowsAffected, res.Error
}

// FindDead pages through dead-lettered entries, newest failure first.
func (r *GormOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	dead := r.db.WithContext(ctx).Model(&models.OutboxEventModel{}).Scopes(inStatus(shared.OutboxStatusDead))

	var total int64
	if err := dead.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count dead letters: %w", err)
	}
	page = max(page, 1)
	entries, err := r.list(dead.Session(&gorm.Session{}).
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize))
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var row models.OutboxEventModel
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrOutboxEntryNotFound
	case err != nil:
		return nil, fmt.Errorf("load outbox entry %s: %w", id, err)
	}
	return row.Entry(), nil
}

// CountByStatus omits statuses with no rows.
func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	var groups []struct {
		Status shared.OutboxStatus
		N      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.OutboxEventModel{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("count outbox by status: %w", err)
	}
	counts := make(map[shared.OutboxStatus]int64, len(groups))
	for _, g := range groups {
		counts[g.Status] = g.N
	}
	return counts, nil
}
