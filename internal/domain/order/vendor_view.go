package order

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSet is the set of product IDs a vendor currently owns
type ProductSet map[uuid.UUID]struct{}

// NewProductSet builds a ProductSet from IDs
func NewProductSet(ids []uuid.UUID) ProductSet {
	s := make(ProductSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set
func (s ProductSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// VendorView is an order restricted to one vendor's lines. Order level fields
// (address, totals, payment) are kept as they are.
type VendorView struct {
	Order                *Order
	Lines                []Line
	VendorSubtotal       decimal.Decimal
	VendorShipmentStatus Status
}

// ViewForVendor filters the order down to lines whose product is in owned.
// The boolean is false when the order has no such line.
func ViewForVendor(o *Order, owned ProductSet) (VendorView, bool) {
	lines := make([]Line, 0, len(o.Lines))
	subtotal := decimal.Zero
	shipped := 0
	for _, l := range o.Lines {
		if !owned.Contains(l.ProductID) {
			continue
		}
		lines = append(lines, l)
		subtotal = subtotal.Add(l.Amount)
		if l.IsShipped() {
			shipped++
		}
	}
	if len(lines) == 0 {
		return VendorView{}, false
	}

	status := StatusPartiallyShipped
	switch shipped {
	case 0:
		status = StatusPending
	case len(lines):
		status = StatusShipped
	}
	if o.Status == StatusCancelled || o.Status == StatusDelivered {
		status = o.Status
	}

	return VendorView{
		Order:                o,
		Lines:                lines,
		VendorSubtotal:       subtotal,
		VendorShipmentStatus: status,
	}, true
}

// ProductSales is the per-product line of the vendor dashboard
type ProductSales struct {
	ProductID uuid.UUID
	Name      string
	Units     int
	Revenue   decimal.Decimal
}

// SalesSeries is daily revenue with labels in ascending date order
type SalesSeries struct {
	Labels []string
	Data   []decimal.Decimal
}

// SalesStats is the vendor sales aggregate
type SalesStats struct {
	TotalRevenue decimal.Decimal
	UnitsSold    int
	TotalOrders  int
	TopProducts  []ProductSales
	SalesData    SalesSeries
	WindowDays   int
}

// StatsOptions controls the aggregation
type StatsOptions struct {
	TopN       int
	Location   *time.Location
	WindowDays int
}

const dayLayout = "2006-01-02"

// AggregateVendorSales sums revenue and units over the vendor's lines using
// each line's frozen unit price. Cancelled orders are skipped. The daily
// series always sums to TotalRevenue.
func AggregateVendorSales(orders []Order, owned ProductSet, opts StatsOptions) SalesStats {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	stats := SalesStats{
		TotalRevenue: decimal.Zero,
		TopProducts:  []ProductSales{},
		SalesData:    SalesSeries{Labels: []string{}, Data: []decimal.Decimal{}},
		WindowDays:   opts.WindowDays,
	}
	byProduct := make(map[uuid.UUID]*ProductSales)
	byDay := make(map[string]decimal.Decimal)

	for i := range orders {
		o := &orders[i]
		if o.Status == StatusCancelled {
			continue
		}
		touched := false
		day := o.CreatedAt.In(loc).Format(dayLayout)
		for _, l := range o.Lines {
			if !owned.Contains(l.ProductID) {
				continue
			}
			touched = true
			revenue := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))

			stats.TotalRevenue = stats.TotalRevenue.Add(revenue)
			stats.UnitsSold += l.Quantity
			byDay[day] = byDay[day].Add(revenue)

			ps, ok := byProduct[l.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: l.ProductID, Name: l.Name, Revenue: decimal.Zero}
				byProduct[l.ProductID] = ps
			}
			ps.Units += l.Quantity
			ps.Revenue = ps.Revenue.Add(revenue)
		}
		if touched {
			stats.TotalOrders++
		}
	}

	top := make([]ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		top = append(top, *ps)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Units != top[j].Units {
			return top[i].Units > top[j].Units
		}
		return top[i].ProductID.String() < top[j].ProductID.String()
	})
	if opts.TopN > 0 && len(top) > opts.TopN {
		top = top[:opts.TopN]
	}
	stats.TopProducts = top

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		stats.SalesData.Labels = append(stats.SalesData.Labels, d)
		stats.SalesData.Data = append(stats.SalesData.Data, byDay[d])
	}

	return stats
}
