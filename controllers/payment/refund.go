package paymentControllers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/muhammadmasoud/amazon-clone/gateway"
	"github.com/muhammadmasoud/amazon-clone/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RefundPayment refunds a succeeded payment at the gateway, then marks
// the payment refunded and the order cancelled. A gateway failure
// surfaces the error with no local state touched: there is no partial
// refund state to persist.
func RefundPayment(db *gorm.DB, gw gateway.Client, paymentID string, amount *decimal.Decimal, reason string) (*models.Payment, error) {
	var payment models.Payment
	if err := db.Where("payment_id = ?", paymentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if payment.Status != models.PaymentStatusSucceeded {
		return nil, ErrNotRefundable
	}

	refundAmount := payment.Amount
	if amount != nil {
		if !amount.IsPositive() || amount.GreaterThan(payment.Amount) {
			return nil, ErrInvalidRefundAmount
		}
		refundAmount = *amount
	}

	refundReason := reason
	if refundReason == "" {
		refundReason = "requested_by_customer"
	}

	refund, err := gw.CreateRefund(payment.IntentID, refundAmount.Shift(2).IntPart(), refundReason)
	if err != nil {
		log.Printf("Gateway error creating refund for payment %s: %v", payment.PaymentID, err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	log.Printf("Refund %s created for payment %s", refund.ID, payment.PaymentID)

	err = db.Transaction(func(tx *gorm.DB) error {
		payment.Status = models.PaymentStatusRefunded
		payment.RefundReason = refundReason
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).
			Where("id = ?", payment.OrderID).
			Update("status", models.OrderStatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

type refundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason"`
}

// POST /admin/payments/:paymentID/refund
func RefundPaymentHandler(db *gorm.DB, gw gateway.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		paymentID := c.Param("paymentID")
		if paymentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "paymentID is required"})
			return
		}

		var req refundRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		payment, err := RefundPayment(db, gw, paymentID, req.Amount, req.Reason)
		if err != nil {
			switch {
			case errors.Is(err, ErrPaymentNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			case errors.Is(err, ErrNotRefundable), errors.Is(err, ErrInvalidRefundAmount):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, ErrGateway):
				c.JSON(http.StatusBadGateway, gin.H{"error": "Refund failed. Please try again."})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process refund"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Refund processed successfully",
			"payment": payment,
		})
	}
}
