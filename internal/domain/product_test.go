package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("  Tornillo ", 10, " 750100 ")
	require.NoError(t, err)

	assert.Equal(t, "Tornillo", p.Name)
	assert.Equal(t, 10, p.Quantity)
	require.NotNil(t, p.Barcode)
	assert.Equal(t, "750100", *p.Barcode)
	assert.False(t, p.CreatedAtUtc.IsZero())

	noBarcode, err := NewProduct("Tuerca", 0, "  ")
	require.NoError(t, err)
	assert.Nil(t, noBarcode.Barcode)
}

func TestNewProduct_Validation(t *testing.T) {
	_, err := NewProduct("", 1, "")
	assert.True(t, IsValidation(err))

	_, err = NewProduct("Tornillo", -1, "")
	assert.True(t, IsValidation(err))
}

func TestProduct_CanSupplyAndDebit(t *testing.T) {
	p := &Product{ID: 1, Name: "Tornillo", Quantity: 3}

	assert.True(t, p.CanSupply(3))
	assert.False(t, p.CanSupply(4))
	assert.False(t, p.CanSupply(0))

	require.NoError(t, p.Debit(3))
	assert.Equal(t, 0, p.Quantity)
	assert.ErrorIs(t, p.Debit(1), ErrStockConflict)
	assert.Equal(t, 0, p.Quantity)
}
