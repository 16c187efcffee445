package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcart "github.com/shopfront/backend/internal/application/cart"
)

// CartService is the cart use case surface
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*appcart.CartResponse, error)
	AddItem(ctx context.Context, userID uuid.UUID, input appcart.AddItemInput) (*appcart.CartResponse, error)
	UpdateItemQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*appcart.CartResponse, error)
	RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*appcart.CartResponse, error)
	Clear(ctx context.Context, userID uuid.UUID) (*appcart.CartResponse, error)
}

// AddCartItemRequest adds a product, optionally a specific variant
type AddCartItemRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	VariantSKU string    `json:"variant_sku" binding:"max=64"`
	Quantity   int       `json:"qty" binding:"required,gt=0,lte=999"`
	Size       string    `json:"size" binding:"max=50"`
	Color      string    `json:"color" binding:"max=50"`
}

// UpdateCartItemRequest sets a line quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"qty" binding:"required,gt=0,lte=999"`
}

// CartHandler handles the caller's shopping cart
type CartHandler struct {
	BaseHandler
	carts CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get godoc
// @ID           getCart
// @Summary      Get the caller's cart
// @Description  Prices are informational; checkout reprices from the catalog.
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	resp, err := h.carts.Get(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddItem godoc
// @ID           addCartItem
// @Summary      Add a product to the cart
// @Description  Adding a product and variant already in the cart increases its quantity.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body AddCartItemRequest true "Item"
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.carts.AddItem(c.Request.Context(), p.UserID, appcart.AddItemInput{
		ProductID:  req.ProductID,
		VariantSKU: req.VariantSKU,
		Quantity:   req.Quantity,
		Size:       req.Size,
		Color:      req.Color,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItem godoc
// @ID           updateCartItem
// @Summary      Change a cart line quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        lineId path string true "Cart line ID" format(uuid)
// @Param        request body UpdateCartItemRequest true "Quantity"
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/{lineId} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	lineID, ok := h.paramUUID(c, "lineId")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.carts.UpdateItemQuantity(c.Request.Context(), p.UserID, lineID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem godoc
// @ID           removeCartItem
// @Summary      Remove a cart line
// @Tags         cart
// @Produce      json
// @Param        lineId path string true "Cart line ID" format(uuid)
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/{lineId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	lineID, ok := h.paramUUID(c, "lineId")
	if !ok {
		return
	}

	resp, err := h.carts.RemoveItem(c.Request.Context(), p.UserID, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Clear godoc
// @ID           clearCart
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	resp, err := h.carts.Clear(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
