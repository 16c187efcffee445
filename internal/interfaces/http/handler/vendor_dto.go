package handler

import (
	"github.com/google/uuid"
	appvendor "github.com/shopfront/backend/internal/application/vendor"
	"github.com/shopspring/decimal"
)

// ShipProductRequest names the product whose lines are being shipped
type ShipProductRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// DashboardStatsQuery restricts the stats to the last Days days
type DashboardStatsQuery struct {
	Days *int `form:"days" binding:"omitempty,min=1,max=3650"`
}

// VariantRequest upserts one variant by SKU
type VariantRequest struct {
	SKU        string            `json:"sku" binding:"required,max=64"`
	Attributes map[string]string `json:"attributes"`
	Price      decimal.Decimal   `json:"price"`
	Stock      int               `json:"stock" binding:"gte=0"`
	Status     string            `json:"status" binding:"omitempty,oneof=active inactive"`
}

// UpdateProductRequest is the vendor product update. Omitted fields are left
// unchanged; unknown fields are rejected.
type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description    *string          `json:"description" binding:"omitempty,max=5000"`
	ImageURL       *string          `json:"image" binding:"omitempty,max=500"`
	Price          *decimal.Decimal `json:"price"`
	Status         *string          `json:"status" binding:"omitempty,oneof=active inactive discontinued"`
	UpsertVariants []VariantRequest `json:"upsert_variants" binding:"omitempty,dive"`
	RemoveVariants []string         `json:"remove_variants" binding:"omitempty,dive,required"`
}

func (r UpdateProductRequest) toCommand() appvendor.UpdateProductCommand {
	cmd := appvendor.UpdateProductCommand{
		Name:           r.Name,
		Description:    r.Description,
		ImageURL:       r.ImageURL,
		Price:          r.Price,
		Status:         r.Status,
		RemoveVariants: r.RemoveVariants,
	}
	for _, v := range r.UpsertVariants {
		cmd.UpsertVariants = append(cmd.UpsertVariants, appvendor.VariantInput{
			SKU:        v.SKU,
			Attributes: v.Attributes,
			Price:      v.Price,
			Stock:      v.Stock,
			Status:     v.Status,
		})
	}
	return cmd
}
