package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortable_OrderBy(t *testing.T) {
	tests := []struct {
		name     string
		key, dir string
		wantCol  string
		wantDesc bool
	}{
		{"defaults to newest first", "", "", "created_at", true},
		{"alias maps to column", "total_price", "asc", "total", false},
		{"key is case insensitive", " Order_Number ", "ASC", "order_number", false},
		{"unknown key falls back", "password_hash", "asc", "created_at", false},
		{"injection attempt falls back", "id; DROP TABLE orders;--", "", "created_at", true},
		{"junk direction is descending", "status", "sideways", "status", true},
		{"direction tolerates spaces", "status", "  asc ", "status", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderSorting.orderBy(tt.key, tt.dir)
			assert.Equal(t, tt.wantCol, got.Column.Name)
			assert.Equal(t, tt.wantDesc, got.Desc)
		})
	}
}

func TestProductSorting_OnlyProductColumns(t *testing.T) {
	assert.Equal(t, "price", productSorting.orderBy("price", "asc").Column.Name)
	assert.Equal(t, "created_at", productSorting.orderBy("order_number", "asc").Column.Name)
}
