package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	CartID         uint            `gorm:"primaryKey" json:"cart_id"`
	UserID         string          `gorm:"uniqueIndex" json:"user_id"` // Enforces ONE cart per user
	Items          []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	PromoCode      string          `json:"promo_code"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2)" json:"discount_amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CartID    uint `gorm:"index:idx_cart_product,unique" json:"cart_id"`
	ProductID uint `gorm:"index:idx_cart_product,unique" json:"product_id"`
	Quantity  int  `json:"quantity"`

	// Captured when the item first enters the cart; later catalog price
	// changes do not retroactively affect it (price protection).
	PriceWhenAdded decimal.Decimal `gorm:"type:decimal(10,2)" json:"price_when_added"`

	AddedAt time.Time `json:"added_at"`
}

// Subtotal is quantity times the captured unit price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.PriceWhenAdded.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
