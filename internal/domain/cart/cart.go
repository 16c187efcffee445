package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// MaxLineQuantity caps a single line to keep totals sane
const MaxLineQuantity = 999

// LineKey identifies a cart line. A cart holds at most one line per key.
type LineKey struct {
	ProductID  uuid.UUID
	VariantSKU string
}

// Line is one intended purchase in a cart
type Line struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	VariantSKU string
	Quantity   int
	// Size and Color are kept for clients that never sent variant SKUs
	Size            string
	Color           string
	VariantSnapshot map[string]string
	AddedAt         time.Time
}

// Key returns the identity of the line within its cart
func (l Line) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantSKU: l.VariantSKU}
}

// Cart is the per-user mutable collection of lines. Lines keep insertion order.
type Cart struct {
	shared.BaseAggregateRoot
	UserID uuid.UUID
	Lines  []Line
	stored bool
}

// MarkStored flags the cart as backed by a stored row. Saving a stored cart
// updates that row and never recreates it.
func (c *Cart) MarkStored() {
	c.stored = true
}

// IsStored reports whether the cart was loaded from or written to storage
func (c *Cart) IsStored() bool {
	return c.stored
}

// NewCart creates an empty cart for a user
func NewCart(userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Lines:             make([]Line, 0),
	}, nil
}

// AddItem describes an add-to-cart request after the product was resolved
type AddItem struct {
	ProductID       uuid.UUID
	VariantSKU      string
	Quantity        int
	Size            string
	Color           string
	VariantSnapshot map[string]string
}

// Add inserts a line or increments the quantity of the line with the same
// (product, variant) key. Returns the affected line.
func (c *Cart) Add(item AddItem) (Line, error) {
	if item.ProductID == uuid.Nil {
		return Line{}, shared.NewDomainError("VALIDATION_FAILED", "Product ID is required")
	}
	if err := validateQuantity(item.Quantity); err != nil {
		return Line{}, err
	}

	key := LineKey{ProductID: item.ProductID, VariantSKU: item.VariantSKU}
	for i := range c.Lines {
		if c.Lines[i].Key() != key {
			continue
		}
		newQty := c.Lines[i].Quantity + item.Quantity
		if newQty > MaxLineQuantity {
			return Line{}, shared.NewDomainError("VALIDATION_FAILED", "Quantity exceeds the per-line maximum")
		}
		c.Lines[i].Quantity = newQty
		c.Touch()
		return c.Lines[i], nil
	}

	line := Line{
		ID:              uuid.New(),
		ProductID:       item.ProductID,
		VariantSKU:      item.VariantSKU,
		Quantity:        item.Quantity,
		Size:            item.Size,
		Color:           item.Color,
		VariantSnapshot: item.VariantSnapshot,
		AddedAt:         time.Now(),
	}
	c.Lines = append(c.Lines, line)
	c.Touch()
	return line, nil
}

// UpdateQuantity sets the quantity of an existing line
func (c *Cart) UpdateQuantity(lineID uuid.UUID, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	idx := c.indexOf(lineID)
	if idx < 0 {
		return ErrLineNotFound
	}
	c.Lines[idx].Quantity = quantity
	c.Touch()
	return nil
}

// Remove deletes a line
func (c *Cart) Remove(lineID uuid.UUID) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return ErrLineNotFound
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	c.Touch()
	return nil
}

// Clear removes all lines
func (c *Cart) Clear() {
	c.Lines = make([]Line, 0)
	c.Touch()
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount returns the sum of all line quantities
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// ProductIDs returns the distinct product IDs in line order
func (c *Cart) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Lines))
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

func (c *Cart) indexOf(lineID uuid.UUID) int {
	for i, l := range c.Lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

func validateQuantity(q int) error {
	if q <= 0 {
		return shared.NewDomainError("VALIDATION_FAILED", "Quantity must be a positive integer")
	}
	if q > MaxLineQuantity {
		return shared.NewDomainError("VALIDATION_FAILED", "Quantity exceeds the per-line maximum")
	}
	return nil
}
