package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository and order.CheckoutStore using GORM
type GormOrderRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormOrderRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds an order with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return model.ToDomain(), nil
}

// FindByUser returns a page of the user's orders, newest first
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID), filter)
}

// FindAll returns a page of every order, newest first
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx), filter)
}

// FindByProducts returns a page of orders containing any of the products
func (r *GormOrderRepository) FindByProducts(ctx context.Context, productIDs []uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	if len(productIDs) == 0 {
		return []order.Order{}, 0, nil
	}
	query := r.db.WithContext(ctx).Where("id IN (?)", r.orderIDsWithProducts(ctx, productIDs))
	return r.findPage(ctx, query, filter)
}

// FindByProductsSince returns every order containing any of the products
// created at or after since
func (r *GormOrderRepository) FindByProductsSince(ctx context.Context, productIDs []uuid.UUID, since *time.Time) ([]order.Order, error) {
	if len(productIDs) == 0 {
		return []order.Order{}, nil
	}
	query := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("id IN (?)", r.orderIDsWithProducts(ctx, productIDs))
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var rows []models.OrderModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find vendor orders: %w", err)
	}
	return toDomainOrders(rows), nil
}

func (r *GormOrderRepository) orderIDsWithProducts(ctx context.Context, productIDs []uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.OrderLineModel{}).
		Select("order_id").
		Where("product_id IN ?", productIDs)
}

func (r *GormOrderRepository) findPage(ctx context.Context, query *gorm.DB, filter shared.Filter) ([]order.Order, int64, error) {
	filter = filter.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Model(&models.OrderModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var rows []models.OrderModel
	if err := query.Session(&gorm.Session{}).
		Preload("Lines", preloadLines).
		Order(orderSorting.orderBy(filter.OrderBy, filter.OrderDir)).
		Order("id ASC").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("find orders: %w", err)
	}
	return toDomainOrders(rows), total, nil
}

func toDomainOrders(rows []models.OrderModel) []order.Order {
	out := make([]order.Order, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// SaveWithLock persists the mutable order state guarded by the version
// column, writing pending domain events to the outbox in the same transaction
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	expected := o.Version
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", o.ID, expected).
			Updates(map[string]any{
				"payment_status":  o.Payment.Status,
				"paid_at":         o.Payment.PaidAt,
				"payment_ref":     paymentField(o, func(p *order.PaymentResult) string { return p.ID }),
				"payment_state":   paymentField(o, func(p *order.PaymentResult) string { return p.Status }),
				"payment_updated": paymentField(o, func(p *order.PaymentResult) string { return p.UpdateTime }),
				"payer_email":     paymentField(o, func(p *order.PaymentResult) string { return p.EmailAddress }),
				"status":          o.Status,
				"delivered_at":    o.DeliveredAt,
				"cancelled_at":    o.CancelledAt,
				"cancel_reason":   o.CancelReason,
				"version":         expected + 1,
				"updated_at":      now,
			})
		if result.Error != nil {
			return fmt.Errorf("update order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.OrderModel{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("check order: %w", err)
			}
			if count == 0 {
				return order.ErrOrderNotFound
			}
			return shared.ErrConcurrencyConflict
		}

		for _, l := range o.Lines {
			if err := tx.Model(&models.OrderLineModel{}).
				Where("id = ? AND order_id = ?", l.ID, o.ID).
				Updates(map[string]any{
					"shipment_status": l.ShipmentStatus,
					"shipped_at":      l.ShippedAt,
				}).Error; err != nil {
				return fmt.Errorf("update order line: %w", err)
			}
		}

		return r.saveEvents(ctx, tx, o)
	})
	if err != nil {
		return err
	}

	o.Version = expected + 1
	o.UpdatedAt = now
	o.ClearEvents()
	return nil
}

func paymentField(o *order.Order, get func(*order.PaymentResult) string) string {
	if o.Payment.Result == nil {
		return ""
	}
	return get(o.Payment.Result)
}

func (r *GormOrderRepository) saveEvents(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	events := o.PendingEvents()
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("save order events: %w", err)
	}
	return nil
}

// PlaceOrder claims the user's cart lines, builds the order from them and
// persists it together with its events. The cart row is locked first so a
// concurrent checkout of the same cart waits and then finds no lines.
func (r *GormOrderRepository) PlaceOrder(ctx context.Context, userID uuid.UUID, build order.BuildFunc) (*order.Order, error) {
	var placed *order.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartModel models.CartModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&cartModel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cart.ErrEmptyCart
			}
			return fmt.Errorf("lock cart: %w", err)
		}

		var lineModels []models.CartLineModel
		if err := tx.Where("cart_id = ?", cartModel.ID).
			Order("position ASC").
			Find(&lineModels).Error; err != nil {
			return fmt.Errorf("load cart lines: %w", err)
		}
		if len(lineModels) == 0 {
			return cart.ErrEmptyCart
		}

		claimed := tx.Where("cart_id = ?", cartModel.ID).Delete(&models.CartLineModel{})
		if claimed.Error != nil {
			return fmt.Errorf("claim cart lines: %w", claimed.Error)
		}
		if claimed.RowsAffected == 0 {
			return cart.ErrEmptyCart
		}

		lines := make([]cart.Line, len(lineModels))
		for i := range lineModels {
			lines[i] = lineModels[i].ToDomain()
		}

		o, err := build(ctx, lines)
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.CartModel{}, "id = ?", cartModel.ID).Error; err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		if err := tx.Create(models.OrderModelFromDomain(o)).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := r.saveEvents(ctx, tx, o); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	placed.ClearEvents()
	return placed, nil
}

// Ensure GormOrderRepository implements the order ports
var (
	_ order.Repository    = (*GormOrderRepository)(nil)
	_ order.CheckoutStore = (*GormOrderRepository)(nil)
)
