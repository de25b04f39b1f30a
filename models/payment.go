package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // Intent created, not completed yet
	PaymentStatusProcessing PaymentStatus = "processing" // Gateway is processing the charge
	PaymentStatusSucceeded  PaymentStatus = "succeeded"  // Charge captured
	PaymentStatusFailed     PaymentStatus = "failed"     // Charge attempt failed
	PaymentStatusCancelled  PaymentStatus = "cancelled"  // Intent abandoned
	PaymentStatusRefunded   PaymentStatus = "refunded"   // Money returned to customer
)

// Payment tracks one payment per order against the gateway.
type Payment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	PaymentID string `gorm:"uniqueIndex;size:32" json:"payment_id"`

	OrderID uint   `gorm:"uniqueIndex" json:"order_id"` // 1:1 with Order
	Order   Order  `gorm:"foreignKey:OrderID" json:"-"`
	UserID  string `gorm:"index;not null" json:"user_id"`

	Amount        decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Currency      string          `gorm:"size:3;default:'USD'" json:"currency"`
	PaymentMethod string          `gorm:"type:VARCHAR(20);default:'stripe'" json:"payment_method"`
	Status        PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`

	// Gateway-side identifiers
	IntentID     string `gorm:"size:200;index" json:"intent_id"`
	ClientSecret string `gorm:"size:500" json:"client_secret"`
	ChargeID     string `gorm:"size:200" json:"charge_id"`

	FailureReason string `json:"failure_reason"`
	RefundReason  string `json:"refund_reason"`

	PaidAt    *time.Time `json:"paid_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
