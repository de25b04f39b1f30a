package cartControllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/muhammadmasoud/amazon-clone/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, title string, price string, stock int) models.Product {
	t.Helper()
	unitPrice, err := decimal.NewFromString(price)
	require.NoError(t, err)
	product := models.Product{Title: title, SKU: "SKU-" + title, UnitPrice: unitPrice, Stock: stock}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func testContext(t *testing.T, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", userID)
	return c, w
}

func withJSONBody(t *testing.T, c *gin.Context, body interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	c.Request = httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(string(raw)))
	c.Request.Header.Set("Content-Type", "application/json")
}

func TestAddCartItemCapturesPriceOnce(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Lamp", "19.99", 10)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"product_id": p.ID, "quantity": 2})
	AddCartItem(db)(c)
	require.Equal(t, http.StatusCreated, w.Code)

	// Catalog price changes after the item is in the cart
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", p.ID).
		Update("unit_price", "29.99").Error)

	c, w = testContext(t, "u1")
	withJSONBody(t, c, gin.H{"product_id": p.ID, "quantity": 1})
	AddCartItem(db)(c)
	require.Equal(t, http.StatusOK, w.Code)

	var item models.CartItem
	require.NoError(t, db.First(&item, "product_id = ?", p.ID).Error)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.PriceWhenAdded.Equal(decimal.RequireFromString("19.99")),
		"captured price must not follow catalog changes")
}

func TestAddCartItemRejectsExcessQuantity(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Lamp", "19.99", 10)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"product_id": p.ID, "quantity": 1000})
	AddCartItem(db)(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddCartItemRejectsInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Lamp", "19.99", 2)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"product_id": p.ID, "quantity": 5})
	AddCartItem(db)(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Available: 2")
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	db := setupTestDB(t)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"product_id": 404, "quantity": 1})
	AddCartItem(db)(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateCartItemQuantitySets(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Lamp", "19.99", 10)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"product_id": p.ID, "quantity": 2})
	AddCartItem(db)(c)
	require.Equal(t, http.StatusCreated, w.Code)

	c, w = testContext(t, "u1")
	withJSONBody(t, c, gin.H{"quantity": 7})
	c.Params = gin.Params{{Key: "product_id", Value: "1"}}
	UpdateCartItemQuantity(db)(c)
	require.Equal(t, http.StatusOK, w.Code)

	var item models.CartItem
	require.NoError(t, db.First(&item, "product_id = ?", p.ID).Error)
	assert.Equal(t, 7, item.Quantity)
}

func TestDeleteCartItem(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Lamp", "19.99", 10)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"product_id": p.ID, "quantity": 1})
	AddCartItem(db)(c)
	require.Equal(t, http.StatusCreated, w.Code)

	c, w = testContext(t, "u1")
	c.Request = httptest.NewRequest(http.MethodDelete, "/cart/1", nil)
	c.Params = gin.Params{{Key: "product_id", Value: "1"}}
	DeleteCartItem(db)(c)
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleting again reports not found
	c, w = testContext(t, "u1")
	c.Request = httptest.NewRequest(http.MethodDelete, "/cart/1", nil)
	c.Params = gin.Params{{Key: "product_id", Value: "1"}}
	DeleteCartItem(db)(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearUserCartResetsPromo(t *testing.T) {
	db := setupTestDB(t)
	cart := models.Cart{UserID: "u1", PromoCode: "SAVE10", DiscountAmount: decimal.RequireFromString("5.00")}
	require.NoError(t, db.Create(&cart).Error)
	p := seedProduct(t, db, "Lamp", "19.99", 10)
	require.NoError(t, db.Create(&models.CartItem{
		CartID: cart.CartID, ProductID: p.ID, Quantity: 1,
		PriceWhenAdded: p.UnitPrice, AddedAt: time.Now(),
	}).Error)

	c, w := testContext(t, "u1")
	c.Request = httptest.NewRequest(http.MethodDelete, "/cart", nil)
	ClearUserCart(db)(c)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Cart
	require.NoError(t, db.First(&reloaded, cart.CartID).Error)
	assert.Empty(t, reloaded.PromoCode)
	assert.True(t, reloaded.DiscountAmount.IsZero())

	var itemCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.CartID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestApplyPromoCode(t *testing.T) {
	db := setupTestDB(t)
	cart := models.Cart{UserID: "u1"}
	require.NoError(t, db.Create(&cart).Error)
	p := seedProduct(t, db, "Desk", "60.00", 10)
	require.NoError(t, db.Create(&models.CartItem{
		CartID: cart.CartID, ProductID: p.ID, Quantity: 2,
		PriceWhenAdded: p.UnitPrice, AddedAt: time.Now(),
	}).Error)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"code": "save10"})
	ApplyPromoCode(db)(c)
	require.Equal(t, http.StatusOK, w.Code)

	// 10% of 120.00, code matching is case-insensitive
	var reloaded models.Cart
	require.NoError(t, db.First(&reloaded, cart.CartID).Error)
	assert.Equal(t, "SAVE10", reloaded.PromoCode)
	assert.True(t, reloaded.DiscountAmount.Equal(decimal.RequireFromString("12.00")))
}

func TestApplyPromoCodeBelowMinimum(t *testing.T) {
	db := setupTestDB(t)
	cart := models.Cart{UserID: "u1"}
	require.NoError(t, db.Create(&cart).Error)
	p := seedProduct(t, db, "Pen", "10.00", 10)
	require.NoError(t, db.Create(&models.CartItem{
		CartID: cart.CartID, ProductID: p.ID, Quantity: 1,
		PriceWhenAdded: p.UnitPrice, AddedAt: time.Now(),
	}).Error)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"code": "SAVE10"})
	ApplyPromoCode(db)(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyPromoCodeUnknownCode(t *testing.T) {
	db := setupTestDB(t)

	c, w := testContext(t, "u1")
	withJSONBody(t, c, gin.H{"code": "NOPE50"})
	ApplyPromoCode(db)(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemovePromoCode(t *testing.T) {
	db := setupTestDB(t)
	cart := models.Cart{UserID: "u1", PromoCode: "SAVE10", DiscountAmount: decimal.RequireFromString("12.00")}
	require.NoError(t, db.Create(&cart).Error)

	c, w := testContext(t, "u1")
	c.Request = httptest.NewRequest(http.MethodDelete, "/cart/promo", nil)
	RemovePromoCode(db)(c)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Cart
	require.NoError(t, db.First(&reloaded, cart.CartID).Error)
	assert.Empty(t, reloaded.PromoCode)
	assert.True(t, reloaded.DiscountAmount.IsZero())
}
