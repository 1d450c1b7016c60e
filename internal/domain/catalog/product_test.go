package catalog

import (
	"testing"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() ProductDetails {
	return ProductDetails{
		Name:          "Widget",
		PurchasePrice: decimal.NewFromFloat(2.5),
		SalePrice:     decimal.NewFromFloat(4),
		MinStock:      3,
	}
}

func TestNewProduct(t *testing.T) {
	companyID := uuid.New()

	t.Run("normalizes sku and defaults unit", func(t *testing.T) {
		p, err := NewProduct(companyID, "  wid-001 ", validDetails())

		require.NoError(t, err)
		assert.Equal(t, "WID-001", p.SKU)
		assert.Equal(t, "pcs", p.Unit)
		assert.Equal(t, int64(0), p.Quantity)
		assert.Equal(t, companyID, p.CompanyID)
		assert.NotEqual(t, uuid.Nil, p.ID)
	})

	t.Run("rejects bad sku", func(t *testing.T) {
		_, err := NewProduct(companyID, "", validDetails())
		assert.Error(t, err)

		_, err = NewProduct(companyID, "has space", validDetails())
		assert.Error(t, err)
	})

	t.Run("rejects negative prices", func(t *testing.T) {
		d := validDetails()
		d.SalePrice = decimal.NewFromInt(-1)
		_, err := NewProduct(companyID, "X1", d)
		assert.Error(t, err)
	})

	t.Run("rejects negative min stock", func(t *testing.T) {
		d := validDetails()
		d.MinStock = -1
		_, err := NewProduct(companyID, "X1", d)
		assert.Error(t, err)
	})
}

func TestProduct_SoftDelete(t *testing.T) {
	p, err := NewProduct(uuid.New(), "SKU1", validDetails())
	require.NoError(t, err)

	require.NoError(t, p.SoftDelete())
	assert.True(t, p.IsDeleted())
	assert.Error(t, p.SoftDelete())
	assert.Error(t, p.Update(validDetails()), "deleted products are read-only")

	require.NoError(t, p.Restore())
	assert.False(t, p.IsDeleted())
	assert.Error(t, p.Restore())
}

func TestProduct_SetQuantity(t *testing.T) {
	p, err := NewProduct(uuid.New(), "SKU1", validDetails())
	require.NoError(t, err)

	require.NoError(t, p.SetQuantity(7))
	assert.Equal(t, int64(7), p.Quantity)

	err = p.SetQuantity(-1)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, int64(7), p.Quantity)
}

func TestProduct_IsLowStock(t *testing.T) {
	p, err := NewProduct(uuid.New(), "SKU1", validDetails())
	require.NoError(t, err)
	require.NoError(t, p.SetQuantity(4))

	assert.False(t, p.IsLowStock(0), "above own min stock")
	assert.True(t, p.IsLowStock(5), "company threshold wins when higher")

	require.NoError(t, p.SetQuantity(3))
	assert.True(t, p.IsLowStock(0))
}

func TestProduct_SetImage(t *testing.T) {
	p, err := NewProduct(uuid.New(), "SKU1", validDetails())
	require.NoError(t, err)

	assert.Empty(t, p.SetImage("a", "https://cdn/a"))
	assert.Equal(t, "a", p.SetImage("b", "https://cdn/b"))
	assert.Equal(t, "https://cdn/b", p.ImageURL)
}

func TestCategory(t *testing.T) {
	c, err := NewCategory(uuid.New(), "  Tools ", "hand tools")
	require.NoError(t, err)
	assert.Equal(t, "Tools", c.Name)

	assert.Error(t, c.Update("", "x"))
	require.NoError(t, c.Update("Power tools", ""))
	assert.Equal(t, "Power tools", c.Name)

	_, err = NewCategory(uuid.New(), " ", "")
	assert.Error(t, err)
}
