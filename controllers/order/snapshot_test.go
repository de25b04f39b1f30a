package orderControllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOrderLines(t *testing.T) {
	assert.ErrorIs(t, ValidateOrderLines(nil), ErrEmptyCart)
	assert.ErrorIs(t, ValidateOrderLines([]OrderLine{}), ErrEmptyCart)

	big := make([]OrderLine, 51)
	for i := range big {
		big[i] = OrderLine{ProductID: uint(i + 1), Quantity: 1}
	}
	assert.ErrorIs(t, ValidateOrderLines(big), ErrTooManyItems)
	assert.NoError(t, ValidateOrderLines(big[:50]))

	assert.ErrorIs(t, ValidateOrderLines([]OrderLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	}), ErrDuplicateProduct)

	var qtyErr *InvalidQuantityError
	err := ValidateOrderLines([]OrderLine{{ProductID: 1, Quantity: 0}})
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, 0, qtyErr.Quantity)

	err = ValidateOrderLines([]OrderLine{{ProductID: 1, Quantity: 1000}})
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, 1000, qtyErr.Quantity)

	assert.NoError(t, ValidateOrderLines([]OrderLine{{ProductID: 1, Quantity: 999}}))
}

func TestSnapshotCartFreezesCatalogData(t *testing.T) {
	db := setupTestDB(t)
	p1 := seedProduct(t, db, "Lamp", "19.99", 5)
	p2 := seedProduct(t, db, "Desk", "120.00", 2)

	items, err := SnapshotCart(db, []OrderLine{
		{ProductID: p2.ID, Quantity: 2},
		{ProductID: p1.ID, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Desk", items[0].ProductTitle)
	assert.Equal(t, p2.SKU, items[0].ProductSKU)
	assert.True(t, money(t, "120.00").Equal(items[0].UnitPrice))
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Lamp", items[1].ProductTitle)
}

func TestSnapshotCartUnknownProduct(t *testing.T) {
	db := setupTestDB(t)

	_, err := SnapshotCart(db, []OrderLine{{ProductID: 42, Quantity: 1}})
	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.EqualValues(t, 42, notFound.ProductID)
}

func TestSnapshotCartInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Lamp", "19.99", 2)

	_, err := SnapshotCart(db, []OrderLine{{ProductID: p.ID, Quantity: 3}})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Lamp", stockErr.Title)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
}

func TestSortItemsByProductID(t *testing.T) {
	items := []LineItem{{ProductID: 9, Quantity: 1}, {ProductID: 2, Quantity: 1}, {ProductID: 5, Quantity: 1}}
	sorted := sortItemsByProductID(items)

	assert.Equal(t, uint(2), sorted[0].ProductID)
	assert.Equal(t, uint(5), sorted[1].ProductID)
	assert.Equal(t, uint(9), sorted[2].ProductID)
	// Input slice is left untouched
	assert.Equal(t, uint(9), items[0].ProductID)
}

func TestPricingConfig(t *testing.T) {
	cfg := DefaultPricing()

	assert.True(t, money(t, "10.00").Equal(cfg.ShippingCost(money(t, "99.99"))))
	assert.True(t, money(t, "0.00").Equal(cfg.ShippingCost(money(t, "100.00"))))
	assert.True(t, money(t, "0.00").Equal(cfg.ShippingCost(money(t, "250.00"))))

	// Tax rounds half-up to cents
	assert.True(t, money(t, "2.00").Equal(cfg.Tax(money(t, "19.99"))))
	assert.True(t, money(t, "0.05").Equal(cfg.Tax(money(t, "0.45"))))
}
