package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) (*time.Time, func() time.Time) {
	cur := t
	return &cur, func() time.Time { return cur }
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	cur, clock := fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rl.now = clock

	ok, remaining := rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	ok, remaining = rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	ok, _ = rl.Allow("a")
	assert.False(t, ok)

	ok, _ = rl.Allow("b")
	assert.True(t, ok, "keys are counted separately")

	*cur = cur.Add(time.Minute)
	ok, remaining = rl.Allow("a")
	assert.True(t, ok, "window resets")
	assert.Equal(t, 1, remaining)
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	cur, clock := fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rl.now = clock

	rl.Allow("a")
	*cur = cur.Add(30 * time.Second)
	rl.Allow("b")
	*cur = cur.Add(45 * time.Second)
	rl.evict()

	assert.NotContains(t, rl.windows, "a")
	assert.Contains(t, rl.windows, "b")
}

func TestRateLimiter_RunStops(t *testing.T) {
	rl := NewRateLimiter(1, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	router := gin.New()
	router.Use(RequestID(), RateLimit(rl))
	router.POST("/auth/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, http.StatusOK, send().Code)

	w = send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))
}

func TestRateLimitByKey(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	router := gin.New()
	router.Use(RateLimitByKey(rl, func(c *gin.Context) string { return c.GetHeader("X-Client") }))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, tc := range []struct {
		client string
		want   int
	}{
		{"a", http.StatusOK},
		{"a", http.StatusTooManyRequests},
		{"b", http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Client", tc.client)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, tc.client)
	}
}
