package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortable maps the sort keys a client may send to table columns. Anything
// else falls back to the default column, so client input never reaches SQL.
type sortable struct {
	columns  map[string]string
	fallback string
}

// orderBy resolves key and dir into an ORDER BY term. Direction defaults to
// descending.
func (s sortable) orderBy(key, dir string) clause.OrderByColumn {
	col, ok := s.columns[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		col = s.fallback
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: col},
		Desc:   !strings.EqualFold(strings.TrimSpace(dir), "asc"),
	}
}

var orderSorting = sortable{
	columns: map[string]string{
		"created_at":   "created_at",
		"placed_at":    "created_at",
		"updated_at":   "updated_at",
		"total":        "total",
		"total_price":  "total",
		"status":       "status",
		"order_number": "order_number",
	},
	fallback: "created_at",
}

var productSorting = sortable{
	columns: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"name":       "name",
		"price":      "price",
		"status":     "status",
	},
	fallback: "created_at",
}
