package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/event"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func outboxRouter(svc *MockOutboxService) *gin.Engine {
	h := NewOutboxHandler(svc)
	router := newTestRouter(principalFor(identity.RoleAdmin))
	router.GET("/admin/outbox/dead", h.ListDead)
	router.GET("/admin/outbox/stats", h.Stats)
	router.POST("/admin/outbox/:id/retry", h.Retry)
	return router
}

func TestOutboxListDead(t *testing.T) {
	svc := new(MockOutboxService)
	entries := []event.OutboxEntryResponse{{ID: uuid.New(), EventType: "order.placed", Status: "dead", RetryCount: 5}}
	svc.On("ListDead", mock.Anything, shared.Filter{Page: 1, PageSize: 20, OrderDir: "desc"}).
		Return(shared.NewPaginated(entries, 1, 1, 20), nil)

	res := perform(t, outboxRouter(svc), http.MethodGet, "/admin/outbox/dead", "")

	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, int64(1), res.Body.Meta.Total)
}

func TestOutboxRetry(t *testing.T) {
	id := uuid.New()
	svc := new(MockOutboxService)
	svc.On("Retry", mock.Anything, id).Return(&event.OutboxEntryResponse{ID: id, Status: "pending"}, nil)
	router := outboxRouter(svc)

	res := perform(t, router, http.MethodPost, "/admin/outbox/"+id.String()+"/retry", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "pending", res.dataMap(t)["status"])

	sent := uuid.New()
	svc.On("Retry", mock.Anything, sent).Return(nil, shared.NewDomainError("INVALID_STATE", "Only dead-lettered entries can be retried"))
	res = perform(t, router, http.MethodPost, "/admin/outbox/"+sent.String()+"/retry", "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestOutboxStats(t *testing.T) {
	svc := new(MockOutboxService)
	svc.On("Stats", mock.Anything).Return(&event.OutboxStatsResponse{Pending: 2, Dead: 1, Total: 3}, nil).Once()
	svc.On("Stats", mock.Anything).Return(nil, errors.New("db down")).Once()
	router := outboxRouter(svc)

	res := perform(t, router, http.MethodGet, "/admin/outbox/stats", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(3), res.dataMap(t)["total"])

	res = perform(t, router, http.MethodGet, "/admin/outbox/stats", "")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.NotContains(t, res.Raw, "db down")
}
