package orderControllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/muhammadmasoud/amazon-clone/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resubmitting a matching cart inside this window returns the existing
// order instead of creating a new one.
const duplicateOrderWindow = 5 * time.Minute

// -------- Request Structs --------

type PlaceOrderRequest struct {
	Cart            []OrderLine `json:"cart" binding:"required"`
	ShippingAddress string      `json:"shipping_address" binding:"required"`
	ShippingCity    string      `json:"shipping_city"`
	ShippingState   string      `json:"shipping_state"`
	ShippingZip     string      `json:"shipping_zip"`
	ShippingCountry string      `json:"shipping_country"`
	ShippingPhone   string      `json:"shipping_phone"`
	PaymentMethod   string      `json:"payment_method"`
	CustomerNotes   string      `json:"customer_notes"`
}

// OrderMeta is the non-financial metadata frozen into a new order.
type OrderMeta struct {
	ShippingAddress string
	ShippingCity    string
	ShippingState   string
	ShippingZip     string
	ShippingCountry string
	ShippingPhone   string
	PaymentMethod   string
	CustomerNotes   string
}

// -------- Helpers --------

// lockForUpdate takes a row lock on dialects that support it. SQLite
// serializes writers itself and rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// GenerateOrderNumber returns a human-facing unique order id:
// "ORD-" + 8 uppercase hex characters.
func GenerateOrderNumber() string {
	u := uuid.New()
	return fmt.Sprintf("ORD-%X", u[:4])
}

// sameItemSet compares an existing order and submitted lines by
// product-id set only. Quantity differences are deliberately ignored;
// whether they should count as a new order is an open product call.
func sameItemSet(items []models.OrderItem, lines []OrderLine) bool {
	if len(items) != len(lines) {
		return false
	}
	existing := make(map[uint]bool, len(items))
	for _, it := range items {
		existing[it.ProductID] = true
	}
	for _, line := range lines {
		if !existing[line.ProductID] {
			return false
		}
	}
	return true
}

// -------- Core Logic --------

// PlaceOrder converts a submitted cart into an order inside a single
// transaction. The acting user's row is locked first to serialize
// concurrent submissions, the duplicate-order guard runs, then the
// assembler creates the order under product row locks. Either every
// write commits or none do.
func PlaceOrder(db *gorm.DB, cfg PricingConfig, userID string, req PlaceOrderRequest) (*models.Order, error) {
	if err := ValidateOrderLines(req.Cart); err != nil {
		return nil, err
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCashOnDelivery
	}

	var placed *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		// Duplicate-order guard: only cash-type orders are deduped
		// here. Card orders are serialized by the payment intent flow.
		if paymentMethod == models.PaymentMethodCashOnDelivery {
			var recent models.Order
			err := tx.Preload("Items").
				Where("user_id = ? AND status = ? AND payment_method = ?",
					userID, models.OrderStatusPending, models.PaymentMethodCashOnDelivery).
				Order("created_at DESC").
				First(&recent).Error
			if err == nil {
				if sameItemSet(recent.Items, req.Cart) {
					placed = &recent
					return nil
				}
				if time.Since(recent.CreatedAt) < duplicateOrderWindow {
					return &DuplicateOrderError{OrderID: recent.ID, OrderNumber: recent.OrderNumber}
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		// Snapshot runs after the guard so a duplicate resubmission is
		// answered with the existing order even when stock has since
		// run out
		snapshot, err := SnapshotCart(tx, req.Cart)
		if err != nil {
			return err
		}

		order, err := Assemble(tx, cfg, userID, snapshot, OrderMeta{
			ShippingAddress: req.ShippingAddress,
			ShippingCity:    req.ShippingCity,
			ShippingState:   req.ShippingState,
			ShippingZip:     req.ShippingZip,
			ShippingCountry: req.ShippingCountry,
			ShippingPhone:   req.ShippingPhone,
			PaymentMethod:   paymentMethod,
			CustomerNotes:   req.CustomerNotes,
		})
		if err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// Assemble creates an order from a validated cart snapshot and
// decrements stock. It must run inside a transaction; product rows are
// locked in ascending id order so two orders touching overlapping
// products cannot deadlock. Stock is re-verified under lock for every
// line and any shortage aborts the whole transaction. Cash orders also
// clear the user's cart here; card orders keep it until payment
// succeeds.
func Assemble(tx *gorm.DB, cfg PricingConfig, userID string, items []LineItem, meta OrderMeta) (*models.Order, error) {
	subtotal := decimal.Zero
	var orderItems []models.OrderItem

	for _, item := range sortItemsByProductID(items) {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, "id = ?", item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ProductNotFoundError{ProductID: item.ProductID}
			}
			return nil, err
		}

		if product.Stock < item.Quantity {
			return nil, &InsufficientStockError{
				ProductID: product.ID,
				Title:     product.Title,
				Available: product.Stock,
				Requested: item.Quantity,
			}
		}

		// Deduct stock
		product.Stock -= item.Quantity
		if err := tx.Save(&product).Error; err != nil {
			return nil, err
		}

		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		orderItems = append(orderItems, models.OrderItem{
			ProductID:    item.ProductID,
			ProductTitle: item.ProductTitle,
			ProductSKU:   item.ProductSKU,
			Price:        item.UnitPrice,
			Quantity:     item.Quantity,
		})
	}

	// Any pending promo discount comes from the cart
	promoCode := ""
	discount := decimal.Zero
	var cart models.Cart
	cartErr := tx.Where("user_id = ?", userID).First(&cart).Error
	if cartErr == nil {
		promoCode = cart.PromoCode
		discount = cart.DiscountAmount
	} else if !errors.Is(cartErr, gorm.ErrRecordNotFound) {
		return nil, cartErr
	}

	shippingCost := cfg.ShippingCost(subtotal)
	taxAmount := cfg.Tax(subtotal)
	total := subtotal.Add(shippingCost).Add(taxAmount).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	order := models.Order{
		OrderNumber:     GenerateOrderNumber(),
		UserID:          userID,
		Items:           orderItems,
		ShippingAddress: meta.ShippingAddress,
		ShippingCity:    meta.ShippingCity,
		ShippingState:   meta.ShippingState,
		ShippingZip:     meta.ShippingZip,
		ShippingCountry: meta.ShippingCountry,
		ShippingPhone:   meta.ShippingPhone,
		PaymentMethod:   meta.PaymentMethod,
		CustomerNotes:   meta.CustomerNotes,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		TaxAmount:       taxAmount,
		DiscountAmount:  discount,
		TotalAmount:     total,
		PromoCode:       promoCode,
		Status:          models.OrderStatusPending,
	}
	if err := tx.Create(&order).Error; err != nil {
		return nil, err
	}

	// Cash orders settle at placement, so the cart clears now. Card
	// carts survive until the payment succeeds; if intent creation
	// fails the user still has a cart to retry with.
	if cartErr == nil && meta.PaymentMethod == models.PaymentMethodCashOnDelivery {
		if err := tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
			return nil, err
		}
		cart.PromoCode = ""
		cart.DiscountAmount = decimal.Zero
		if err := tx.Save(&cart).Error; err != nil {
			return nil, err
		}
	}

	return &order, nil
}

// DeleteWithStockRestore undoes a freshly-assembled order: stock goes
// back to every product and the order plus its items are removed. Used
// when intent creation fails right after a cart checkout built the
// order, so no orphaned unpaid order survives.
func DeleteWithStockRestore(db *gorm.DB, orderID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}
		if err := restoreStock(tx, order.Items); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

func restoreStock(tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, "id = ?", item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue // product removed from catalog since ordering
			}
			return err
		}
		product.Stock += item.Quantity
		if err := tx.Save(&product).Error; err != nil {
			return err
		}
	}
	return nil
}

// -------- Handlers --------

// Place order (user)
func PlaceOrderHandler(db *gorm.DB, cfg PricingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := PlaceOrder(db, cfg, userID, req)
		if err != nil {
			var dup *DuplicateOrderError
			if errors.As(err, &dup) {
				c.JSON(http.StatusConflict, gin.H{
					"error":        dup.Error(),
					"order_id":     dup.OrderID,
					"order_number": dup.OrderNumber,
				})
				return
			}
			c.JSON(placementErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		broadcastOrderEvent("order_placed", *order)
		c.JSON(http.StatusCreated, gin.H{
			"message": "Order placed successfully",
			"order":   order,
		})
	}
}

// placementErrorStatus maps placement failures to HTTP codes; anything
// unrecognized stays a 500 without leaking internals.
func placementErrorStatus(err error) int {
	var notFound *ProductNotFoundError
	var stock *InsufficientStockError
	var qty *InvalidQuantityError
	switch {
	case errors.As(err, &notFound),
		errors.As(err, &stock),
		errors.As(err, &qty),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrTooManyItems),
		errors.Is(err, ErrDuplicateProduct):
		return http.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// currentUserID pulls the authenticated user id set by the JWT
// middleware.
func currentUserID(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// Fetch all orders (admin)
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Items").Order("created_at DESC")

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if method := c.Query("payment_method"); method != "" {
			query = query.Where("payment_method = ?", method)
		}
		if isPaid := c.Query("is_paid"); isPaid != "" {
			query = query.Where("is_paid = ?", isPaid == "true")
		}

		var orders []models.Order
		if err := query.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// Fetch order history for the authenticated user
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		query := db.Where("user_id = ?", userID).Preload("Items").Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var orders []models.Order
		if err := query.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// Get single order by numeric id or order number; users only see their
// own orders.
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id := c.Param("orderID")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderID is required"})
			return
		}

		// Numeric ids hit the primary key; anything else is an order
		// number. Postgres rejects a non-numeric bind against a bigint
		// column, so the two lookups cannot share one OR clause.
		query := db.Preload("Items").Where("user_id = ?", userID)
		if numericID, err := strconv.ParseUint(id, 10, 32); err == nil {
			query = query.Where("id = ?", numericID)
		} else {
			query = query.Where("order_number = ?", id)
		}

		var order models.Order
		if err := query.First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
