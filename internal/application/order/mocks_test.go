package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, userID, filter)
	orders, _ := args.Get(0).([]order.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]order.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindByProducts(ctx context.Context, productIDs []uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, productIDs, filter)
	orders, _ := args.Get(0).([]order.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindByProductsSince(ctx context.Context, productIDs []uuid.UUID, since *time.Time) ([]order.Order, error) {
	args := m.Called(ctx, productIDs, since)
	orders, _ := args.Get(0).([]order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

// MockProductReader is a mock implementation of catalog.ProductReader
type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductReader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	products, _ := args.Get(0).([]catalog.Product)
	return products, args.Error(1)
}

func (m *MockProductReader) FindIDsByVendor(ctx context.Context, vendorID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, vendorID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *MockProductReader) FindByVendor(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, vendorID, filter)
	products, _ := args.Get(0).([]catalog.Product)
	return products, args.Get(1).(int64), args.Error(2)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]identity.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]identity.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

// fakeCheckout hands its lines to the first caller only, the way the
// transactional cart claim does.
type fakeCheckout struct {
	mu     sync.Mutex
	lines  []cart.Line
	err    error
	placed []*order.Order
}

func (f *fakeCheckout) PlaceOrder(ctx context.Context, userID uuid.UUID, build order.BuildFunc) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.lines) == 0 {
		return nil, cart.ErrEmptyCart
	}
	o, err := build(ctx, f.lines)
	if err != nil {
		return nil, err
	}
	f.lines = nil
	o.ClearEvents()
	f.placed = append(f.placed, o)
	return o, nil
}

type recordingObserver struct {
	failures []error
}

func (r *recordingObserver) RecordCheckoutFailure(_ context.Context, err error) {
	r.failures = append(r.failures, err)
}
