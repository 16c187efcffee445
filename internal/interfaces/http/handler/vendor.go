package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apporder "github.com/shopfront/backend/internal/application/order"
	appvendor "github.com/shopfront/backend/internal/application/vendor"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
)

// VendorService is the vendor panel use case surface
type VendorService interface {
	GetVendorOrders(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) (shared.Paginated[apporder.OrderResponse], error)
	GetVendorDashboardStats(ctx context.Context, vendorID uuid.UUID, windowDays *int) (*appvendor.DashboardStatsResponse, error)
	MarkShipped(ctx context.Context, orderID, vendorID, productID uuid.UUID) (*apporder.OrderResponse, error)
	ListVendorProducts(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) (shared.Paginated[appvendor.ProductResponse], error)
	UpdateVendorProduct(ctx context.Context, vendorID, productID uuid.UUID, cmd appvendor.UpdateProductCommand) (*appvendor.ProductResponse, error)
}

// VendorHandler serves the vendor panel. Every route acts for the
// authenticated vendor; there is no vendor ID in the path.
type VendorHandler struct {
	BaseHandler
	vendors VendorService
}

// NewVendorHandler creates a new vendor handler
func NewVendorHandler(vendors VendorService) *VendorHandler {
	return &VendorHandler{vendors: vendors}
}

// ListOrders godoc
// @ID           listVendorOrders
// @Summary      List orders containing the vendor's products
// @Description  Each order carries only the vendor's own lines. Newest first.
// @Tags         vendor
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]apporder.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendor/orders [get]
func (h *VendorHandler) ListOrders(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.vendors.GetVendorOrders(c.Request.Context(), p.UserID, q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// DashboardStats godoc
// @ID           getVendorDashboardStats
// @Summary      Vendor sales statistics
// @Description  Revenue, units, top products and daily revenue. Without days the stats cover all time.
// @Tags         vendor
// @Produce      json
// @Param        days query int false "Window in days" minimum(1)
// @Success      200 {object} APIResponse[appvendor.DashboardStatsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendor/dashboard/stats [get]
func (h *VendorHandler) DashboardStats(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q DashboardStatsQuery
	if !h.bindQuery(c, &q) {
		return
	}

	stats, err := h.vendors.GetVendorDashboardStats(c.Request.Context(), p.UserID, q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ShipOrder godoc
// @ID           shipVendorOrder
// @Summary      Ship the vendor's lines of one product
// @Tags         vendor
// @Accept       json
// @Produce      json
// @Param        orderId path string true "Order ID" format(uuid)
// @Param        request body ShipProductRequest true "Product to ship"
// @Success      200 {object} APIResponse[apporder.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendor/orders/{orderId}/ship [put]
func (h *VendorHandler) ShipOrder(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	orderID, ok := h.paramUUID(c, "orderId")
	if !ok {
		return
	}
	var req ShipProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.vendors.MarkShipped(c.Request.Context(), orderID, p.UserID, req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListProducts godoc
// @ID           listVendorProducts
// @Summary      List the vendor's products
// @Tags         vendor
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]appvendor.ProductResponse]
// @Security     BearerAuth
// @Router       /vendor/products [get]
func (h *VendorHandler) ListProducts(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.vendors.ListVendorProducts(c.Request.Context(), p.UserID, q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// UpdateProduct godoc
// @ID           updateVendorProduct
// @Summary      Update one of the vendor's products
// @Description  Placed orders keep the prices they were created with.
// @Tags         vendor
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body UpdateProductRequest true "Fields to change"
// @Success      200 {object} APIResponse[appvendor.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendor/products/{id} [put]
func (h *VendorHandler) UpdateProduct(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	productID, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.vendors.UpdateVendorProduct(c.Request.Context(), p.UserID, productID, req.toCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
