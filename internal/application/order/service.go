package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/shared/valueobject"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const defaultIdempotencyTTL = 24 * time.Hour

// CheckoutObserver is told about checkouts that did not produce an order
type CheckoutObserver interface {
	RecordCheckoutFailure(ctx context.Context, err error)
}

// Option configures the order service
type Option func(*Service)

// WithIdempotencyTTL sets how long checkout idempotency keys are remembered
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithCheckoutObserver registers an observer for failed checkouts
func WithCheckoutObserver(o CheckoutObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// Service implements the buyer and admin side of the order lifecycle
type Service struct {
	orders         order.Repository
	checkout       order.CheckoutStore
	pricer         *order.Pricer
	products       catalog.ProductReader
	users          identity.UserRepository
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	observer       CheckoutObserver
	logger         *zap.Logger
}

// NewService creates the order service
func NewService(
	orders order.Repository,
	checkout order.CheckoutStore,
	pricer *order.Pricer,
	products catalog.ProductReader,
	users identity.UserRepository,
	idempotency shared.IdempotencyStore,
	log *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		orders:         orders,
		checkout:       checkout,
		pricer:         pricer,
		products:       products,
		users:          users,
		idempotency:    idempotency,
		idempotencyTTL: defaultIdempotencyTTL,
		logger:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder converts the user's cart into a priced pending order. The cart
// is claimed and deleted in the same transaction that stores the order.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create", telemetry.SpanAttrUserID, userID.String())
	defer span.End()

	address, err := valueobject.NewShippingAddress(
		input.ShippingAddress.FullName,
		input.ShippingAddress.Address,
		input.ShippingAddress.City,
		input.ShippingAddress.PostalCode,
		input.ShippingAddress.Country,
	)
	if err != nil {
		return nil, errors.Join(shared.NewDomainError("VALIDATION_FAILED", "Invalid shipping address"), err)
	}
	if input.PaymentMethod == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment method is required")
	}

	key := ""
	if input.IdempotencyKey != "" {
		key = "checkout:" + userID.String() + ":" + input.IdempotencyKey
		replay, err := s.claimCheckout(ctx, key)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if replay != uuid.Nil {
			telemetry.SetAttributes(span, telemetry.SpanAttrIdempotent, true)
			return s.replay(ctx, replay)
		}
	}

	placed, err := s.checkout.PlaceOrder(ctx, userID, s.pricer.Build(order.CheckoutRequest{
		UserID:          userID,
		ShippingAddress: address,
		PaymentMethod:   input.PaymentMethod,
	}))
	if err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.log(ctx).Warn("Failed to release checkout key", zap.Error(relErr))
			}
		}
		err = asDomainError(err)
		telemetry.RecordError(span, err)
		if s.observer != nil {
			s.observer.RecordCheckoutFailure(ctx, err)
		}
		s.log(ctx).Info("Checkout rejected", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, err
	}

	if key != "" {
		if err := s.idempotency.SetResult(ctx, key, placed.ID.String(), s.idempotencyTTL); err != nil {
			s.log(ctx).Warn("Failed to store checkout result", zap.Error(err))
		}
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, placed.ID.String(),
		telemetry.SpanAttrOrderNumber, placed.OrderNumber,
		telemetry.SpanAttrLineCount, len(placed.Lines),
	)
	s.log(ctx).Info("Order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("order_number", placed.OrderNumber),
		zap.String("total", placed.Total.StringFixed(2)),
	)

	resp := NewOrderResponse(placed, nil)
	return &resp, nil
}

// claimCheckout returns the order a completed key produced, uuid.Nil when the
// key was newly claimed, or ErrDuplicateRequest while another request holds it.
func (s *Service) claimCheckout(ctx context.Context, key string) (uuid.UUID, error) {
	if id, ok, err := s.completedCheckout(ctx, key); err != nil || ok {
		return id, err
	}

	claimed, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if claimed {
		return uuid.Nil, nil
	}

	// the holder may have finished between the two calls
	if id, ok, err := s.completedCheckout(ctx, key); err != nil || ok {
		return id, err
	}
	return uuid.Nil, shared.ErrDuplicateRequest
}

func (s *Service) completedCheckout(ctx context.Context, key string) (uuid.UUID, bool, error) {
	result, ok, err := s.idempotency.GetResult(ctx, key)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if !ok {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(result)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%w: corrupt checkout result %q", shared.ErrPersistence, result)
	}
	return id, true, nil
}

func (s *Service) replay(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, asDomainError(err)
	}
	s.log(ctx).Info("Checkout replayed", zap.String("order_id", orderID.String()))
	resp := NewOrderResponse(o, nil)
	return &resp, nil
}

// MarkPaid records the payment confirmation for an order the user owns
func (s *Service) MarkPaid(ctx context.Context, orderID, userID uuid.UUID, input PaymentResultInput) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "mark_paid",
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrUserID, userID.String(),
	)
	defer span.End()

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, asDomainError(err)
	}
	if !o.IsOwnedBy(userID) {
		return nil, shared.ErrNotAuthorized
	}

	changed, err := o.MarkPaid(order.PaymentResult{
		ID:           input.ID,
		Status:       input.Status,
		UpdateTime:   input.UpdateTime,
		EmailAddress: input.EmailAddress,
	})
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.orders.SaveWithLock(ctx, o); err != nil {
			telemetry.RecordError(span, err)
			return nil, asDomainError(err)
		}
		s.log(ctx).Info("Order paid", zap.String("order_id", o.ID.String()))
	}

	resp := NewOrderResponse(o, nil)
	return &resp, nil
}

// GetOrder returns an order to its owner or an admin in full, and to a vendor
// restricted to the vendor's own lines.
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID, principal identity.Principal) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, asDomainError(err)
	}

	buyer, err := s.buyer(ctx, o.UserID)
	if err != nil {
		return nil, err
	}

	switch {
	case o.IsOwnedBy(principal.UserID), principal.IsAdmin():
		resp := NewOrderResponse(o, buyer)
		return &resp, nil
	case principal.IsVendor():
		ids, err := s.products.FindIDsByVendor(ctx, principal.UserID)
		if err != nil {
			return nil, asDomainError(err)
		}
		view, ok := order.ViewForVendor(o, order.NewProductSet(ids))
		if !ok {
			return nil, shared.ErrNotAuthorized
		}
		resp := NewVendorOrderResponse(view, buyer)
		return &resp, nil
	}
	return nil, shared.ErrNotAuthorized
}

// ListMyOrders returns the user's orders, newest first
func (s *Service) ListMyOrders(ctx context.Context, userID uuid.UUID, filter shared.Filter) (shared.Paginated[OrderResponse], error) {
	filter = filter.Normalize()
	orders, total, err := s.orders.FindByUser(ctx, userID, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, asDomainError(err)
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = NewOrderResponse(&orders[i], nil)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// ListOrders returns every order with buyer details. Admin only.
func (s *Service) ListOrders(ctx context.Context, principal identity.Principal, filter shared.Filter) (shared.Paginated[OrderResponse], error) {
	if !principal.IsAdmin() {
		return shared.Paginated[OrderResponse]{}, shared.ErrNotAuthorized
	}
	filter = filter.Normalize()
	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, asDomainError(err)
	}
	buyers, err := s.Buyers(ctx, orders)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = NewOrderResponse(&orders[i], buyers[orders[i].UserID])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// MarkDelivered closes a shipped order. Admins may deliver any order; a
// vendor only one carrying at least one product it owns in the catalog.
func (s *Service) MarkDelivered(ctx context.Context, orderID uuid.UUID, principal identity.Principal) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "mark_delivered",
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrUserID, principal.UserID.String(),
	)
	defer span.End()

	if !principal.Role.CanFulfill() {
		return nil, shared.ErrNotAuthorized
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, asDomainError(err)
	}
	if principal.IsVendor() {
		ids, err := s.products.FindIDsByVendor(ctx, principal.UserID)
		if err != nil {
			return nil, asDomainError(err)
		}
		if _, ok := order.ViewForVendor(o, order.NewProductSet(ids)); !ok {
			return nil, shared.ErrNotAuthorized
		}
	}

	changed, err := o.MarkDelivered()
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.orders.SaveWithLock(ctx, o); err != nil {
			telemetry.RecordError(span, err)
			return nil, asDomainError(err)
		}
		s.log(ctx).Info("Order delivered", zap.String("order_id", o.ID.String()))
	}

	resp := NewOrderResponse(o, nil)
	return &resp, nil
}

// CancelOrder cancels a pending order. Owner or admin only.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, principal identity.Principal, reason string) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "cancel", telemetry.SpanAttrOrderID, orderID.String())
	defer span.End()

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, asDomainError(err)
	}
	if !o.IsOwnedBy(principal.UserID) && !principal.IsAdmin() {
		return nil, shared.ErrNotAuthorized
	}

	changed, err := o.Cancel(reason)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.orders.SaveWithLock(ctx, o); err != nil {
			telemetry.RecordError(span, err)
			return nil, asDomainError(err)
		}
		s.log(ctx).Info("Order cancelled",
			zap.String("order_id", o.ID.String()),
			zap.String("cancelled_by", principal.Role.String()),
		)
	}

	resp := NewOrderResponse(o, nil)
	return &resp, nil
}

// Buyers loads the limited buyer detail for every distinct order owner.
// Buyers whose account no longer exists are absent from the map.
func (s *Service) Buyers(ctx context.Context, orders []order.Order) (map[uuid.UUID]*BuyerResponse, error) {
	return LoadBuyers(ctx, s.users, orders)
}

func (s *Service) buyer(ctx context.Context, userID uuid.UUID) (*BuyerResponse, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, nil
		}
		return nil, asDomainError(err)
	}
	return NewBuyerResponse(u), nil
}

// LoadBuyers resolves buyer details for a batch of orders with one query
func LoadBuyers(ctx context.Context, users identity.UserRepository, orders []order.Order) (map[uuid.UUID]*BuyerResponse, error) {
	out := make(map[uuid.UUID]*BuyerResponse)
	if len(orders) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		if _, ok := out[o.UserID]; ok {
			continue
		}
		out[o.UserID] = nil
		ids = append(ids, o.UserID)
	}
	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, asDomainError(err)
	}
	for i := range found {
		out[found[i].ID] = NewBuyerResponse(&found[i])
	}
	return out, nil
}

// asDomainError passes domain errors through and wraps anything else as a
// persistence failure.
func asDomainError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
}

func (s *Service) log(ctx context.Context) *logger.ContextLogger {
	return logger.Ctx(ctx, s.logger)
}
