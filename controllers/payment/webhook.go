package paymentControllers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/muhammadmasoud/amazon-clone/models"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
	"gorm.io/gorm"
)

const webhookMaxBodyBytes = 65536

// POST /payments/webhook
// Signature verification happens at the boundary; a payload that fails
// it never reaches the reconciler. Handler errors return 500 so the
// gateway redelivers, and the idempotency ledger makes that safe.
func StripeWebhookHandler(db *gorm.DB, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookMaxBodyBytes)
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
			return
		}

		event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), webhookSecret)
		if err != nil {
			log.Printf("Webhook signature verification failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			return
		}

		if err := ProcessWebhookEvent(db, event); err != nil {
			log.Printf("Error processing webhook event %s: %v", event.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// ProcessWebhookEvent applies a verified gateway event exactly once.
// Events are deduplicated by gateway event id; the ledger row is only
// marked processed after the handler completes, so a failed handling
// stays retryable on redelivery.
func ProcessWebhookEvent(db *gorm.DB, event stripe.Event) error {
	var record models.WebhookEvent
	err := db.Where("event_id = ?", event.ID).First(&record).Error
	switch {
	case err == nil:
		if record.Processed {
			log.Printf("Webhook event %s already processed, skipping", event.ID)
			return nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.WebhookEvent{EventID: event.ID, EventType: string(event.Type)}
		if err := db.Create(&record).Error; err != nil {
			return err
		}
	default:
		return err
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return err
		}
		if err := applyIntentSucceeded(db, intent.ID); err != nil {
			return err
		}
	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return err
		}
		message := "Payment failed"
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			message = intent.LastPaymentError.Msg
		}
		if err := applyIntentFailed(db, intent.ID, message); err != nil {
			return err
		}
	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	now := time.Now()
	record.Processed = true
	record.ProcessedAt = &now
	return db.Save(&record).Error
}

// applyIntentSucceeded moves the payment to succeeded and, if the
// owning order is still pending, confirms it and clears the user's
// cart. Both guards make redelivery and the confirm/webhook race
// no-ops: the payment transitions once, the cart clears once.
func applyIntentSucceeded(db *gorm.DB, intentID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Where("intent_id = ?", intentID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Nothing local to reconcile; redelivering won't help
				log.Printf("Payment not found for intent %s", intentID)
				return nil
			}
			return err
		}

		if payment.Status == models.PaymentStatusSucceeded {
			log.Printf("Payment %s already succeeded, skipping", payment.PaymentID)
			return nil
		}

		now := time.Now()
		payment.Status = models.PaymentStatusSucceeded
		payment.PaidAt = &now
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		var order models.Order
		if err := tx.First(&order, "id = ?", payment.OrderID).Error; err != nil {
			return err
		}
		if order.Status == models.OrderStatusPending {
			order.IsPaid = true
			order.PaymentDate = &now
			order.Status = models.OrderStatusConfirmed
			order.ConfirmedAt = &now
			if err := tx.Save(&order).Error; err != nil {
				return err
			}

			// Clear the user's cart after successful payment
			var cart models.Cart
			err := tx.Where("user_id = ?", payment.UserID).First(&cart).Error
			if err == nil {
				if err := tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
					return err
				}
				cart.PromoCode = ""
				cart.DiscountAmount = decimal.Zero
				if err := tx.Save(&cart).Error; err != nil {
					return err
				}
				log.Printf("Cart cleared for user %s after successful payment", payment.UserID)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		log.Printf("Payment %s succeeded for order %d", payment.PaymentID, payment.OrderID)
		return nil
	})
}

func applyIntentFailed(db *gorm.DB, intentID, message string) error {
	var payment models.Payment
	if err := db.Where("intent_id = ?", intentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Payment not found for failed intent %s", intentID)
			return nil
		}
		return err
	}

	// A stale failure event can arrive after the success one; money
	// already collected wins
	if payment.Status == models.PaymentStatusSucceeded || payment.Status == models.PaymentStatusRefunded {
		log.Printf("Ignoring failure event for settled payment %s", payment.PaymentID)
		return nil
	}

	return db.Model(&payment).Updates(map[string]interface{}{
		"status":         models.PaymentStatusFailed,
		"failure_reason": message,
	}).Error
}
