package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is embedded by every persisted domain type.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	created := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: created, UpdatedAt: created}
}

// Touch bumps UpdatedAt; mutators call it after a successful change.
func (e *BaseEntity) Touch() { e.UpdatedAt = time.Now() }

