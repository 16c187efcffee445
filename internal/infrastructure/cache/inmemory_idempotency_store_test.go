package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClockedStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryStore_ClaimLifecycle(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	won, err := store.MarkProcessed(ctx, "checkout:u1:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.MarkProcessed(ctx, "checkout:u1:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, won, "a live claim is not handed out twice")

	held, _ := store.IsProcessed(ctx, "checkout:u1:k1")
	assert.True(t, held)

	clock.Advance(time.Minute)

	held, _ = store.IsProcessed(ctx, "checkout:u1:k1")
	assert.False(t, held, "claims end exactly at their TTL")
	won, _ = store.MarkProcessed(ctx, "checkout:u1:k1", time.Minute)
	assert.True(t, won)
}

func TestInMemoryStore_Results(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "k", time.Hour)
	_, ok, err := store.GetResult(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "claimed but not finished")

	require.NoError(t, store.SetResult(ctx, "k", "order-42", 10*time.Minute))
	got, ok, _ := store.GetResult(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "order-42", got)

	won, _ := store.MarkProcessed(ctx, "k", time.Hour)
	assert.False(t, won, "a stored result keeps the claim")

	clock.Advance(10 * time.Minute)
	_, ok, _ = store.GetResult(ctx, "k")
	assert.False(t, ok)
}

func TestInMemoryStore_Release(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "event:1", time.Hour)
	require.NoError(t, store.Release(ctx, "event:1"))

	won, _ := store.MarkProcessed(ctx, "event:1", time.Hour)
	assert.True(t, won)
	assert.NoError(t, store.Release(ctx, "never-claimed"))
}

func TestInMemoryStore_Sweep(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_ = store.SetResult(ctx, "short-result", "x", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 3, store.Len())

	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStore_OneWinnerUnderContention(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if won, err := store.MarkProcessed(context.Background(), "hot", time.Hour); err == nil && won {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}

func TestInMemoryStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
