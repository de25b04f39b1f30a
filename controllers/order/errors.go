package orderControllers

import (
	"errors"
	"fmt"

	"github.com/muhammadmasoud/amazon-clone/models"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrTooManyItems     = errors.New("cart exceeds the maximum of 50 line items")
	ErrDuplicateProduct = errors.New("cart contains the same product more than once")
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidStatus    = errors.New("invalid order status")
)

// ProductNotFoundError identifies which product id was rejected.
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ProductID)
}

// InsufficientStockError aborts the whole order; nothing is written.
type InsufficientStockError struct {
	ProductID uint
	Title     string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. Available: %d, requested: %d",
		e.Title, e.Available, e.Requested)
}

// InvalidQuantityError rejects quantities outside [1,999].
type InvalidQuantityError struct {
	ProductID uint
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %d: must be between 1 and 999",
		e.Quantity, e.ProductID)
}

// DuplicateOrderError is a conflict, not a hard failure: the caller is
// told which pending order already exists and can retry after the
// cooldown window.
type DuplicateOrderError struct {
	OrderID     uint
	OrderNumber string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("a recent pending order %s already exists; wait a few minutes before placing another order",
		e.OrderNumber)
}

// InvalidTransitionError rejects a lifecycle move the state machine
// does not allow.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}
