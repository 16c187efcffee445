package cart

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCart(t *testing.T) *Cart {
	t.Helper()
	c, err := NewCart(uuid.New())
	require.NoError(t, err)
	return c
}

func TestNewCart(t *testing.T) {
	_, err := NewCart(uuid.Nil)
	assert.Error(t, err)

	c := newTestCart(t)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 1, c.Version)
	assert.False(t, c.IsStored())

	c.MarkStored()
	assert.True(t, c.IsStored())
}

func TestCart_Add(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()

	t.Run("same product and variant increments quantity", func(t *testing.T) {
		c := newTestCart(t)
		first, err := c.Add(AddItem{ProductID: productA, VariantSKU: "A-M", Quantity: 1})
		require.NoError(t, err)
		second, err := c.Add(AddItem{ProductID: productA, VariantSKU: "A-M", Quantity: 2})
		require.NoError(t, err)

		require.Len(t, c.Lines, 1)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 3, c.Lines[0].Quantity)
	})

	t.Run("different variant creates a new line", func(t *testing.T) {
		c := newTestCart(t)
		_, err := c.Add(AddItem{ProductID: productA, VariantSKU: "A-M", Quantity: 1})
		require.NoError(t, err)
		_, err = c.Add(AddItem{ProductID: productA, VariantSKU: "A-L", Quantity: 1})
		require.NoError(t, err)
		_, err = c.Add(AddItem{ProductID: productA, Quantity: 1})
		require.NoError(t, err)

		assert.Len(t, c.Lines, 3)
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		c := newTestCart(t)
		_, _ = c.Add(AddItem{ProductID: productB, Quantity: 1})
		_, _ = c.Add(AddItem{ProductID: productA, Quantity: 1})
		_, _ = c.Add(AddItem{ProductID: productB, Quantity: 4})

		require.Len(t, c.Lines, 2)
		assert.Equal(t, productB, c.Lines[0].ProductID)
		assert.Equal(t, productA, c.Lines[1].ProductID)
		assert.Equal(t, []uuid.UUID{productB, productA}, c.ProductIDs())
		assert.Equal(t, 6, c.ItemCount())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		c := newTestCart(t)
		_, err := c.Add(AddItem{ProductID: productA, Quantity: 0})
		assert.Error(t, err)
		_, err = c.Add(AddItem{ProductID: productA, Quantity: -3})
		assert.Error(t, err)
		assert.True(t, c.IsEmpty())
	})

	t.Run("rejects quantity overflow on merge", func(t *testing.T) {
		c := newTestCart(t)
		_, err := c.Add(AddItem{ProductID: productA, Quantity: MaxLineQuantity})
		require.NoError(t, err)
		_, err = c.Add(AddItem{ProductID: productA, Quantity: 1})
		assert.Error(t, err)
		assert.Equal(t, MaxLineQuantity, c.Lines[0].Quantity)
	})
}

func TestCart_UpdateAndRemove(t *testing.T) {
	c := newTestCart(t)
	line, err := c.Add(AddItem{ProductID: uuid.New(), Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, c.UpdateQuantity(line.ID, 5))
	assert.Equal(t, 5, c.Lines[0].Quantity)
	assert.Error(t, c.UpdateQuantity(line.ID, 0))

	err = c.UpdateQuantity(uuid.New(), 1)
	assert.True(t, errors.Is(err, ErrLineNotFound))

	require.NoError(t, c.Remove(line.ID))
	assert.True(t, c.IsEmpty())
	assert.True(t, errors.Is(c.Remove(line.ID), ErrLineNotFound))
}

func TestCart_Clear(t *testing.T) {
	c := newTestCart(t)
	_, _ = c.Add(AddItem{ProductID: uuid.New(), Quantity: 1})
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.ItemCount())
}
