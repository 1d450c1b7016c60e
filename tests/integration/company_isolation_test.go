//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyIsolation(t *testing.T) {
	testDB := NewTestDB(t)
	ctx := context.Background()

	companyA := testDB.CreateCompany("Acme")
	companyB := testDB.CreateCompany("Globex")

	productRepo := persistence.NewGormProductRepository(testDB.DB)
	customerRepo := persistence.NewGormCustomerRepository(testDB.DB)

	product, err := catalog.NewProduct(companyA.ID, "SKU-1", catalog.ProductDetails{
		Name:      "Widget",
		Unit:      "pcs",
		SalePrice: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.NoError(t, productRepo.Create(ctx, product))

	contact, err := partner.NewContact("Wile E.", "wile@acme.test", "", "", "", "")
	require.NoError(t, err)
	customer := partner.NewCustomer(companyA.ID, contact)
	require.NoError(t, customerRepo.Create(ctx, customer))

	t.Run("product is invisible to another company", func(t *testing.T) {
		_, err := productRepo.FindByID(ctx, companyB.ID, product.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		items, total, err := productRepo.FindAll(ctx, companyB.ID, catalog.ProductFilter{Filter: shared.Filter{Page: 1, PageSize: 20}})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})

	t.Run("same SKU is allowed in another company", func(t *testing.T) {
		exists, err := productRepo.ExistsBySKU(ctx, companyB.ID, "SKU-1", nil)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = productRepo.ExistsBySKU(ctx, companyA.ID, "sku-1", nil)
		require.NoError(t, err)
		assert.True(t, exists, "SKU uniqueness is case-insensitive")
	})

	t.Run("customer is invisible to another company", func(t *testing.T) {
		_, err := customerRepo.FindByID(ctx, companyB.ID, customer.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		found, err := customerRepo.FindByID(ctx, companyA.ID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "Wile E.", found.Name)
	})
}
