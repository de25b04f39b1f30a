package paymentControllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderControllers "github.com/muhammadmasoud/amazon-clone/controllers/order"
	"github.com/muhammadmasoud/amazon-clone/gateway"
	"github.com/muhammadmasoud/amazon-clone/models"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrNotRefundable       = errors.New("can only refund succeeded payments")
	ErrAlreadyPaid         = errors.New("order is already paid")
	ErrInvalidRefundAmount = errors.New("refund amount must be positive and not exceed the payment amount")
	// ErrGateway wraps any gateway-side failure; callers surface a
	// generic retry message and never the gateway internals.
	ErrGateway = errors.New("payment gateway error")
)

// cartCheckoutOrderID is the sentinel order id that builds the order
// from the live cart before requesting an intent.
const cartCheckoutOrderID = "cart-checkout"

// GeneratePaymentID returns "PAY-" + 12 uppercase hex characters.
func GeneratePaymentID() string {
	u := uuid.New()
	return fmt.Sprintf("PAY-%X", u[:6])
}

// CreatePaymentIntent creates or reuses a gateway intent for an order.
// A pending Payment whose intent the payer can still complete is
// returned unchanged; a stale, unknown or failed one gets its local
// record deleted and a fresh one created. Payments are 1:1 with orders,
// so an order that already collected money is refused. The order total
// is converted to minor currency units for the gateway.
func CreatePaymentIntent(db *gorm.DB, gw gateway.Client, userID string, order *models.Order) (*models.Payment, *gateway.Intent, error) {
	var existing models.Payment
	err := db.Where("order_id = ? AND user_id = ?", order.ID, userID).First(&existing).Error
	if err == nil {
		switch existing.Status {
		case models.PaymentStatusSucceeded, models.PaymentStatusRefunded:
			return nil, nil, ErrAlreadyPaid
		case models.PaymentStatusPending:
			if existing.IntentID != "" {
				intent, retrieveErr := gw.RetrieveIntent(existing.IntentID)
				if retrieveErr == nil && intent.Actionable() {
					log.Printf("Returning existing payment intent for order %d", order.ID)
					return &existing, intent, nil
				}
			}
		}
		// Stale intent or a failed attempt; drop the record and retry
		if err := db.Delete(&existing).Error; err != nil {
			return nil, nil, err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	amountMinor := order.TotalAmount.Shift(2).IntPart()
	intent, err := gw.CreateIntent(amountMinor, "usd", map[string]string{
		"order_id":     fmt.Sprint(order.ID),
		"user_id":      userID,
		"order_number": order.OrderNumber,
	})
	if err != nil {
		log.Printf("Gateway error creating payment intent: %v", err)
		return nil, nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	payment := models.Payment{
		PaymentID:     GeneratePaymentID(),
		OrderID:       order.ID,
		UserID:        userID,
		Amount:        order.TotalAmount,
		Currency:      "USD",
		PaymentMethod: models.PaymentMethodStripe,
		Status:        models.PaymentStatusPending,
		IntentID:      intent.ID,
		ClientSecret:  intent.ClientSecret,
	}
	if err := db.Create(&payment).Error; err != nil {
		return nil, nil, err
	}
	return &payment, intent, nil
}

type createIntentRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// POST /payments/create-intent
func CreatePaymentIntentHandler(db *gorm.DB, gw gateway.Client, cfg orderControllers.PricingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req createIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var order *models.Order
		createdForCheckout := false

		if req.OrderID == cartCheckoutOrderID {
			built, err := buildOrderFromCart(db, cfg, userID)
			if err != nil {
				c.JSON(checkoutErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			order = built
			createdForCheckout = true
		} else {
			var existing models.Order
			if err := db.Where("id = ? AND user_id = ?", req.OrderID, userID).First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
				return
			}
			order = &existing
		}

		payment, _, err := CreatePaymentIntent(db, gw, userID, order)
		if err != nil {
			// Order + intent are one logical unit for a cart checkout:
			// undo the freshly-built order so no orphaned unpaid order
			// survives an intent failure.
			if createdForCheckout {
				if delErr := orderControllers.DeleteWithStockRestore(db, order.ID); delErr != nil {
					log.Printf("Failed to undo checkout order %d: %v", order.ID, delErr)
				}
			}
			if errors.Is(err, ErrGateway) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "Payment processing failed. Please try again."})
				return
			}
			if errors.Is(err, ErrAlreadyPaid) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Order is already paid"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"payment_id":    payment.PaymentID,
			"client_secret": payment.ClientSecret,
			"amount":        payment.Amount,
			"currency":      payment.Currency,
			"order_number":  order.OrderNumber,
			"order_id":      order.ID,
		})
	}
}

// buildOrderFromCart assembles an order from the user's live cart,
// with the same locking and all-or-nothing guarantees as a direct
// placement.
func buildOrderFromCart(db *gorm.DB, cfg orderControllers.PricingConfig, userID string) (*models.Order, error) {
	var cart models.Cart
	if err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderControllers.ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, orderControllers.ErrEmptyCart
	}

	lines := make([]orderControllers.OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, orderControllers.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	// Same validation and catalog snapshot as a direct placement
	snapshot, err := orderControllers.SnapshotCart(db, lines)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		assembled, err := orderControllers.Assemble(tx, cfg, userID, snapshot, orderControllers.OrderMeta{
			PaymentMethod: models.PaymentMethodStripe,
		})
		if err != nil {
			return err
		}
		order = assembled
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Order %s created from cart checkout for user %s", order.OrderNumber, userID)
	return order, nil
}

func checkoutErrorStatus(err error) int {
	var stock *orderControllers.InsufficientStockError
	var notFound *orderControllers.ProductNotFoundError
	var qty *orderControllers.InvalidQuantityError
	switch {
	case errors.Is(err, orderControllers.ErrEmptyCart),
		errors.Is(err, orderControllers.ErrTooManyItems),
		errors.Is(err, orderControllers.ErrDuplicateProduct),
		errors.As(err, &stock),
		errors.As(err, &notFound),
		errors.As(err, &qty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	PaymentID       string `json:"payment_id" binding:"required"`
}

// POST /payments/confirm
// Synchronous confirmation after the payer completes the flow. The
// webhook may have landed first; applying an already-succeeded intent
// is a no-op either way.
func ConfirmPaymentHandler(db *gorm.DB, gw gateway.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req confirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var payment models.Payment
		if err := db.Where("payment_id = ? AND user_id = ?", req.PaymentID, userID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payment"})
			return
		}

		intent, err := gw.RetrieveIntent(req.PaymentIntentID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment confirmation failed. Please try again."})
			return
		}

		if intent.Status == "succeeded" {
			if err := applyIntentSucceeded(db, intent.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm payment"})
				return
			}
			db.Where("payment_id = ?", req.PaymentID).First(&payment)
			c.JSON(http.StatusOK, gin.H{
				"message": "Payment confirmed successfully",
				"payment": payment,
			})
			return
		}

		reason := fmt.Sprintf("Payment intent status: %s", intent.Status)
		if err := db.Model(&payment).Updates(map[string]interface{}{
			"status":         models.PaymentStatusFailed,
			"failure_reason": reason,
		}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Payment confirmation failed",
			"payment": payment,
		})
	}
}

// GET /payments/:paymentID
func PaymentStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		paymentID := c.Param("paymentID")

		var payment models.Payment
		if err := db.Preload("Order").Where("payment_id = ? AND user_id = ?", paymentID, userID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payment"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"payment": payment,
			"order": gin.H{
				"order_number": payment.Order.OrderNumber,
				"status":       payment.Order.Status,
				"total_amount": payment.Order.TotalAmount,
			},
		})
	}
}

// GET /payments
func UserPaymentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var payments []models.Payment
		if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})
	}
}

// GET /payments/config
func GatewayConfigHandler(publishableKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"publishable_key": publishableKey})
	}
}

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
