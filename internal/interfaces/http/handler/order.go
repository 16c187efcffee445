package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apporder "github.com/shopfront/backend/internal/application/order"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
)

// OrderService is the order use case surface the handler needs
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input apporder.CreateOrderInput) (*apporder.OrderResponse, error)
	MarkPaid(ctx context.Context, orderID, userID uuid.UUID, input apporder.PaymentResultInput) (*apporder.OrderResponse, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, principal identity.Principal) (*apporder.OrderResponse, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, filter shared.Filter) (shared.Paginated[apporder.OrderResponse], error)
	ListOrders(ctx context.Context, principal identity.Principal, filter shared.Filter) (shared.Paginated[apporder.OrderResponse], error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID, principal identity.Principal) (*apporder.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, principal identity.Principal, reason string) (*apporder.OrderResponse, error)
}

// OrderHandler handles order HTTP requests
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder godoc
// @ID           createOrder
// @Summary      Place an order from the cart
// @Description  Converts the caller's cart into an order priced from the catalog. The cart is consumed.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays with the same key return the same order"
// @Param        request body CreateOrderRequest true "Checkout details"
// @Success      201 {object} APIResponse[apporder.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.ValidationError(c, []dto.ValidationDetail{{Field: IdempotencyKeyHeader, Message: "Must be at most 128 characters"}})
		return
	}
	var req CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), p.UserID, req.toInput(key))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListOrders godoc
// @ID           listOrders
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]apporder.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.orders.ListOrders(c.Request.Context(), p, q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// ListMyOrders godoc
// @ID           listMyOrders
// @Summary      List the caller's orders
// @Description  Newest first
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]apporder.OrderResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/myorders [get]
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.orders.ListMyOrders(c.Request.Context(), p.UserID, q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// GetOrder godoc
// @ID           getOrder
// @Summary      Get an order
// @Description  Owners and admins see the whole order; vendors see only their own lines.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[apporder.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.orders.GetOrder(c.Request.Context(), id, p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkPaid godoc
// @ID           payOrder
// @Summary      Record payment for an order
// @Description  Idempotent; an already paid order is returned unchanged.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body PaymentResultRequest true "Payment confirmation"
// @Success      200 {object} APIResponse[apporder.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/pay [put]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req PaymentResultRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.orders.MarkPaid(c.Request.Context(), id, p.UserID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkDelivered godoc
// @ID           deliverOrder
// @Summary      Mark a shipped order delivered
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[apporder.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/deliver [put]
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.orders.MarkDelivered(c.Request.Context(), id, p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CancelOrder godoc
// @ID           cancelOrder
// @Summary      Cancel a pending order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body CancelOrderRequest false "Cancellation reason"
// @Success      200 {object} APIResponse[apporder.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [put]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.orders.CancelOrder(c.Request.Context(), id, p, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
