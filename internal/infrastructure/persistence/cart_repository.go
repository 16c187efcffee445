package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser returns the user's cart with its lines in insertion order
func (r *GormCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var model models.CartModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("user_id = ?", userID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cart.ErrCartNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return model.ToDomain(), nil
}

// Save inserts a cart that has never been stored, or updates a stored one
// guarded by its version. A stored cart whose row is gone (a checkout claimed
// it) or moved on is a conflict; it is never re-inserted.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	if !c.IsStored() {
		return r.create(ctx, c)
	}

	expected := c.Version
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CartModel{}).
			Where("id = ? AND version = ?", c.ID, expected).
			Updates(map[string]any{"version": expected + 1, "updated_at": now})
		if result.Error != nil {
			return fmt.Errorf("update cart: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&models.CartLineModel{}).Error; err != nil {
			return fmt.Errorf("clear cart lines: %w", err)
		}
		return insertCartLines(tx, c)
	})
	if err != nil {
		return err
	}

	c.Version = expected + 1
	c.UpdatedAt = now
	return nil
}

// create inserts the cart row and its lines. Losing a race with another
// first add for the same user hits the unique user index.
func (r *GormCartRepository) create(ctx context.Context, c *cart.Cart) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(models.CartModelFromDomain(c)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrConcurrencyConflict
			}
			return fmt.Errorf("create cart: %w", err)
		}
		return insertCartLines(tx, c)
	})
	if err != nil {
		return err
	}
	c.MarkStored()
	return nil
}

func insertCartLines(tx *gorm.DB, c *cart.Cart) error {
	if len(c.Lines) == 0 {
		return nil
	}
	lines := make([]models.CartLineModel, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = models.CartLineModelFromDomain(c.ID, i, l)
	}
	if err := tx.Create(&lines).Error; err != nil {
		return fmt.Errorf("insert cart lines: %w", err)
	}
	return nil
}

// Delete removes the user's cart and its lines
func (r *GormCartRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.CartModel
		if err := tx.Where("user_id = ?", userID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cart.ErrCartNotFound
			}
			return fmt.Errorf("find cart: %w", err)
		}
		if err := tx.Where("cart_id = ?", model.ID).Delete(&models.CartLineModel{}).Error; err != nil {
			return fmt.Errorf("delete cart lines: %w", err)
		}
		if err := tx.Delete(&models.CartModel{}, "id = ?", model.ID).Error; err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	})
}

// Ensure GormCartRepository implements cart.Repository
var _ cart.Repository = (*GormCartRepository)(nil)
