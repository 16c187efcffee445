package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/event"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
)

// OutboxService is the admin outbox tooling surface
type OutboxService interface {
	ListDead(ctx context.Context, filter shared.Filter) (shared.Paginated[event.OutboxEntryResponse], error)
	Retry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryResponse, error)
	Stats(ctx context.Context) (*event.OutboxStatsResponse, error)
}

// OutboxHandler handles outbox management HTTP requests
type OutboxHandler struct {
	BaseHandler
	outbox OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outbox OutboxService) *OutboxHandler {
	return &OutboxHandler{outbox: outbox}
}

// ListDead godoc
// @ID           listOutboxDead
// @Summary      List dead-lettered order events
// @Tags         admin
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]event.OutboxEntryResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/outbox/dead [get]
func (h *OutboxHandler) ListDead(c *gin.Context) {
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.outbox.ListDead(c.Request.Context(), q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Retry godoc
// @ID           retryOutboxEntry
// @Summary      Requeue a dead-lettered order event
// @Tags         admin
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} APIResponse[event.OutboxEntryResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/outbox/{id}/retry [post]
func (h *OutboxHandler) Retry(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.outbox.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Stats godoc
// @ID           getOutboxStats
// @Summary      Count outbox entries by status
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[event.OutboxStatsResponse]
// @Security     BearerAuth
// @Router       /admin/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outbox.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
