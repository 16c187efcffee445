package handler

import (
	"context"

	"github.com/google/uuid"
	appcart "github.com/shopfront/backend/internal/application/cart"
	"github.com/shopfront/backend/internal/application/event"
	appidentity "github.com/shopfront/backend/internal/application/identity"
	apporder "github.com/shopfront/backend/internal/application/order"
	appvendor "github.com/shopfront/backend/internal/application/vendor"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

type MockOrderService struct {
	mock.Mock
}

func orderResult(args mock.Arguments) (*apporder.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporder.OrderResponse), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uuid.UUID, input apporder.CreateOrderInput) (*apporder.OrderResponse, error) {
	return orderResult(m.Called(ctx, userID, input))
}

func (m *MockOrderService) MarkPaid(ctx context.Context, orderID, userID uuid.UUID, input apporder.PaymentResultInput) (*apporder.OrderResponse, error) {
	return orderResult(m.Called(ctx, orderID, userID, input))
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID uuid.UUID, principal identity.Principal) (*apporder.OrderResponse, error) {
	return orderResult(m.Called(ctx, orderID, principal))
}

func (m *MockOrderService) ListMyOrders(ctx context.Context, userID uuid.UUID, filter shared.Filter) (shared.Paginated[apporder.OrderResponse], error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(shared.Paginated[apporder.OrderResponse]), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, principal identity.Principal, filter shared.Filter) (shared.Paginated[apporder.OrderResponse], error) {
	args := m.Called(ctx, principal, filter)
	return args.Get(0).(shared.Paginated[apporder.OrderResponse]), args.Error(1)
}

func (m *MockOrderService) MarkDelivered(ctx context.Context, orderID uuid.UUID, principal identity.Principal) (*apporder.OrderResponse, error) {
	return orderResult(m.Called(ctx, orderID, principal))
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, principal identity.Principal, reason string) (*apporder.OrderResponse, error) {
	return orderResult(m.Called(ctx, orderID, principal, reason))
}

type MockVendorService struct {
	mock.Mock
}

func (m *MockVendorService) GetVendorOrders(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) (shared.Paginated[apporder.OrderResponse], error) {
	args := m.Called(ctx, vendorID, filter)
	return args.Get(0).(shared.Paginated[apporder.OrderResponse]), args.Error(1)
}

func (m *MockVendorService) GetVendorDashboardStats(ctx context.Context, vendorID uuid.UUID, windowDays *int) (*appvendor.DashboardStatsResponse, error) {
	args := m.Called(ctx, vendorID, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appvendor.DashboardStatsResponse), args.Error(1)
}

func (m *MockVendorService) MarkShipped(ctx context.Context, orderID, vendorID, productID uuid.UUID) (*apporder.OrderResponse, error) {
	return orderResult(m.Called(ctx, orderID, vendorID, productID))
}

func (m *MockVendorService) ListVendorProducts(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) (shared.Paginated[appvendor.ProductResponse], error) {
	args := m.Called(ctx, vendorID, filter)
	return args.Get(0).(shared.Paginated[appvendor.ProductResponse]), args.Error(1)
}

func (m *MockVendorService) UpdateVendorProduct(ctx context.Context, vendorID, productID uuid.UUID, cmd appvendor.UpdateProductCommand) (*appvendor.ProductResponse, error) {
	args := m.Called(ctx, vendorID, productID, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appvendor.ProductResponse), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func cartResult(args mock.Arguments) (*appcart.CartResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcart.CartResponse), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, userID uuid.UUID) (*appcart.CartResponse, error) {
	return cartResult(m.Called(ctx, userID))
}

func (m *MockCartService) AddItem(ctx context.Context, userID uuid.UUID, input appcart.AddItemInput) (*appcart.CartResponse, error) {
	return cartResult(m.Called(ctx, userID, input))
}

func (m *MockCartService) UpdateItemQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*appcart.CartResponse, error) {
	return cartResult(m.Called(ctx, userID, lineID, quantity))
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*appcart.CartResponse, error) {
	return cartResult(m.Called(ctx, userID, lineID))
}

func (m *MockCartService) Clear(ctx context.Context, userID uuid.UUID) (*appcart.CartResponse, error) {
	return cartResult(m.Called(ctx, userID))
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input appidentity.RegisterInput) (*appidentity.AuthResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.AuthResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

type MockOutboxService struct {
	mock.Mock
}

func (m *MockOutboxService) ListDead(ctx context.Context, filter shared.Filter) (shared.Paginated[event.OutboxEntryResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[event.OutboxEntryResponse]), args.Error(1)
}

func (m *MockOutboxService) Retry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryResponse), args.Error(1)
}

func (m *MockOutboxService) Stats(ctx context.Context) (*event.OutboxStatsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxStatsResponse), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error { return p.err }
