package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	// Order statuses (typical e-commerce flow)
	OrderStatusPending        OrderStatus = "pending"          // Order placed, awaiting confirmation
	OrderStatusConfirmed      OrderStatus = "confirmed"        // Confirmed (manually or by payment)
	OrderStatusProcessing     OrderStatus = "processing"       // Order is being prepared
	OrderStatusPacked         OrderStatus = "packed"           // Packed and ready for dispatch
	OrderStatusShipped        OrderStatus = "shipped"          // Handed to the courier
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery" // On the delivery vehicle
	OrderStatusDelivered      OrderStatus = "delivered"        // Customer received the item
	OrderStatusCancelled      OrderStatus = "cancelled"        // Cancelled before shipping
	OrderStatusReturned       OrderStatus = "returned"         // Customer returned the item
)

const (
	PaymentMethodStripe         = "stripe"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;size:20" json:"order_number"`
	UserID      string `gorm:"index;not null" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	// Shipping snapshot, frozen at order time
	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `json:"shipping_city"`
	ShippingState   string `json:"shipping_state"`
	ShippingZip     string `json:"shipping_zip"`
	ShippingCountry string `json:"shipping_country"`
	ShippingPhone   string `json:"shipping_phone"`

	PaymentMethod string `gorm:"type:VARCHAR(20);default:'cash_on_delivery'" json:"payment_method"`
	CustomerNotes string `json:"customer_notes"`
	AdminNotes    string `json:"admin_notes"`

	TrackingNumber string `json:"tracking_number"`
	CourierService string `json:"courier_service"`

	// Money is fixed-point, 2 decimal places; never float
	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2)" json:"subtotal"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(10,2)" json:"shipping_cost"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2)" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2)" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	PromoCode      string          `json:"promo_code"`

	IsPaid bool        `json:"is_paid"`
	Status OrderStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`

	PaymentDate *time.Time `json:"payment_date"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	OrderID   uint `gorm:"index" json:"order_id"`
	ProductID uint `json:"product_id"`

	// Frozen at order time for historical accuracy
	ProductTitle string          `json:"product_title"`
	ProductSKU   string          `json:"product_sku"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`

	Quantity int `json:"quantity"`
}

// Subtotal is quantity times the frozen unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
