package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	return m.Called().Get(0).([]string)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) SetResult(ctx context.Context, key, result string, ttl time.Duration) error {
	return m.Called(ctx, key, result, ttl).Error(0)
}

func (m *MockIdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func paidEvent() *order.OrderPaidEvent {
	return &order.OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderPaid, order.AggregateTypeOrder, uuid.New()),
	}
}

func newStore(t *testing.T) *cache.InMemoryIdempotencyStore {
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIdempotentHandler_RunsOncePerEvent(t *testing.T) {
	inner := new(MockEventHandler)
	event := paidEvent()
	inner.On("Handle", mock.Anything, event).Return(nil).Once()

	h := NewIdempotentHandler(inner, newStore(t), zap.NewNop())
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Handle(context.Background(), event))
	}

	inner.AssertExpectations(t)
	assert.Equal(t, IdempotencyStats{Processed: 1, Duplicates: 2}, h.Stats())
}

func TestIdempotentHandler_FailureReleasesClaim(t *testing.T) {
	store := newStore(t)
	inner := new(MockEventHandler)
	event := paidEvent()
	boom := errors.New("metrics exporter down")
	inner.On("Handle", mock.Anything, event).Return(boom).Once()
	inner.On("Handle", mock.Anything, event).Return(nil).Once()

	h := NewIdempotentHandler(inner, store, zap.NewNop())

	assert.ErrorIs(t, h.Handle(context.Background(), event), boom)
	claimed, err := store.IsProcessed(context.Background(), h.Key(event))
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, h.Handle(context.Background(), event))
	inner.AssertExpectations(t)
	assert.Equal(t, IdempotencyStats{Processed: 1, Failed: 1}, h.Stats())
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	event := paidEvent()
	store.On("MarkProcessed", mock.Anything, "event:"+event.EventID().String(), 24*time.Hour).
		Return(false, errors.New("redis: connection refused"))
	inner.On("Handle", mock.Anything, event).Return(nil)

	h := NewIdempotentHandler(inner, store, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), event))

	store.AssertExpectations(t)
	inner.AssertExpectations(t)
}

func TestIdempotentHandler_KeyPrefix(t *testing.T) {
	store := newStore(t)
	inner := new(MockEventHandler)
	event := paidEvent()
	inner.On("Handle", mock.Anything, event).Return(nil).Twice()

	metrics := NewIdempotentHandler(inner, store, zap.NewNop(), WithKeyPrefix("metrics:"))
	audit := NewIdempotentHandler(inner, store, zap.NewNop(), WithKeyPrefix("audit:"))

	require.NoError(t, metrics.Handle(context.Background(), event))
	require.NoError(t, audit.Handle(context.Background(), event))
	inner.AssertExpectations(t)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	inner := new(MockEventHandler)
	event := paidEvent()
	inner.On("Handle", mock.Anything, event).Return(nil).Times(2)

	cfg := shared.DefaultIdempotencyConfig()
	cfg.Enabled = false
	h := NewIdempotentHandler(inner, newStore(t), zap.NewNop(), WithIdempotencyConfig(cfg))

	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))
	inner.AssertExpectations(t)
	assert.Zero(t, h.Stats())
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	inner := new(MockEventHandler)
	inner.On("EventTypes").Return([]string{order.EventTypeOrderPlaced})

	h := NewIdempotentHandler(inner, newStore(t), zap.NewNop())
	assert.Equal(t, []string{order.EventTypeOrderPlaced}, h.EventTypes())
}

func TestIdempotentHandler_ConcurrentRedelivery(t *testing.T) {
	inner := new(MockEventHandler)
	event := paidEvent()
	inner.On("Handle", mock.Anything, event).Return(nil).Once()
	h := NewIdempotentHandler(inner, newStore(t), zap.NewNop())

	const deliveries = 50
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Handle(context.Background(), event))
		}()
	}
	wg.Wait()

	inner.AssertExpectations(t)
	assert.Equal(t, IdempotencyStats{Processed: 1, Duplicates: deliveries - 1}, h.Stats())
}
