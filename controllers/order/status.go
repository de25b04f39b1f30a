package orderControllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/muhammadmasoud/amazon-clone/models"
	"gorm.io/gorm"
)

// orderTransitions is the lifecycle graph: a linear happy path with
// two side branches (cancelled, returned).
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:        {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:      {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing:     {models.OrderStatusPacked},
	models.OrderStatusPacked:         {models.OrderStatusShipped},
	models.OrderStatusShipped:        {models.OrderStatusOutForDelivery},
	models.OrderStatusOutForDelivery: {models.OrderStatusDelivered},
	models.OrderStatusDelivered:      {models.OrderStatusReturned},
}

// ParseOrderStatus maps a string to a known status.
func ParseOrderStatus(s string) (models.OrderStatus, error) {
	status := models.OrderStatus(strings.ToLower(s))
	if _, ok := orderTransitions[status]; ok {
		return status, nil
	}
	switch status {
	case models.OrderStatusCancelled, models.OrderStatusReturned:
		return status, nil
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether the lifecycle allows from → to.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanBeCancelled: self-service cancellation is allowed until the order
// leaves the warehouse pipeline.
func CanBeCancelled(o *models.Order) bool {
	return o.Status == models.OrderStatusPending || o.Status == models.OrderStatusConfirmed
}

// CanBeReturned: only delivered orders can be returned.
func CanBeReturned(o *models.Order) bool {
	return o.Status == models.OrderStatusDelivered
}

// stampStatusTimestamps sets first-occurrence timestamps only when
// still null, so repeated identical updates are idempotent.
func stampStatusTimestamps(order *models.Order, status models.OrderStatus, now time.Time) {
	switch status {
	case models.OrderStatusConfirmed:
		if order.ConfirmedAt == nil {
			order.ConfirmedAt = &now
		}
	case models.OrderStatusShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case models.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	}
}

// CancelOrder cancels an eligible order and restores stock for every
// ordered product as one transaction. Non-admin callers may only
// cancel their own orders.
func CancelOrder(db *gorm.DB, orderID uint, userID string, isAdmin bool) (*models.Order, error) {
	var cancelled *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		query := tx.Preload("Items")
		if !isAdmin {
			query = query.Where("user_id = ?", userID)
		}
		if err := query.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !CanBeCancelled(&order) {
			return &InvalidTransitionError{From: order.Status, To: models.OrderStatusCancelled}
		}

		// Compensating action: stock goes back before the status flips
		if err := restoreStock(tx, order.Items); err != nil {
			return err
		}

		order.Status = models.OrderStatusCancelled
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		cancelled = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// -------- Handlers --------

// Cancel own order (user) or any eligible order (admin)
func CancelOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		isAdmin := c.GetBool("is_admin")

		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		order, err := CancelOrder(db, orderID, userID, isAdmin)
		if err != nil {
			var transition *InvalidTransitionError
			switch {
			case errors.Is(err, ErrOrderNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			case errors.As(err, &transition):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Order cannot be cancelled. Current status: " + string(transition.From)})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel order"})
			}
			return
		}

		broadcastOrderEvent("order_cancelled", *order)
		c.JSON(http.StatusOK, gin.H{
			"message": "Order cancelled successfully",
			"order":   order,
		})
	}
}

type UpdateOrderStatusRequest struct {
	Status         string  `json:"status"`
	IsPaid         *bool   `json:"is_paid"`
	TrackingNumber *string `json:"tracking_number"`
	CourierService *string `json:"courier_service"`
	AdminNotes     *string `json:"admin_notes"`
}

// Update order status, payment flag, tracking info (admin)
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var updated models.Order
		err := db.Transaction(func(tx *gorm.DB) error {
			var order models.Order
			if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrOrderNotFound
				}
				return err
			}

			now := time.Now()
			if req.Status != "" {
				newStatus, err := ParseOrderStatus(req.Status)
				if err != nil {
					return err
				}
				if newStatus != order.Status {
					if !CanTransition(order.Status, newStatus) {
						return &InvalidTransitionError{From: order.Status, To: newStatus}
					}
					if newStatus == models.OrderStatusCancelled {
						if err := restoreStock(tx, order.Items); err != nil {
							return err
						}
					}
					order.Status = newStatus
					stampStatusTimestamps(&order, newStatus, now)
				}
			}

			if req.IsPaid != nil {
				order.IsPaid = *req.IsPaid
				if *req.IsPaid && order.PaymentDate == nil {
					order.PaymentDate = &now
				}
			}
			if req.TrackingNumber != nil {
				order.TrackingNumber = *req.TrackingNumber
			}
			if req.CourierService != nil {
				order.CourierService = *req.CourierService
			}
			if req.AdminNotes != nil {
				order.AdminNotes = *req.AdminNotes
			}

			if err := tx.Save(&order).Error; err != nil {
				return err
			}
			updated = order
			return nil
		})
		if err != nil {
			var transition *InvalidTransitionError
			switch {
			case errors.Is(err, ErrOrderNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			case errors.As(err, &transition):
				c.JSON(http.StatusBadRequest, gin.H{"error": transition.Error()})
			case errors.Is(err, ErrInvalidStatus):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
			}
			return
		}

		broadcastOrderEvent("order_status_changed", updated)
		c.JSON(http.StatusOK, gin.H{
			"message": "Order updated successfully",
			"order":   updated,
		})
	}
}

// trackingStep is one entry of the public tracking timeline.
type trackingStep struct {
	Status      models.OrderStatus `json:"status"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Date        time.Time          `json:"date"`
	Completed   bool               `json:"completed"`
}

// Public order tracking by order number
func OrderTrackingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("orderNumber")
		if orderNumber == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderNumber is required"})
			return
		}

		var order models.Order
		if err := db.Preload("Items").First(&order, "order_number = ?", orderNumber).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
			return
		}

		timeline := []trackingStep{{
			Status:      models.OrderStatusPending,
			Title:       "Order Placed",
			Description: "Your order has been placed successfully",
			Date:        order.CreatedAt,
			Completed:   true,
		}}
		if order.ConfirmedAt != nil {
			timeline = append(timeline, trackingStep{
				Status:      models.OrderStatusConfirmed,
				Title:       "Order Confirmed",
				Description: "Your order has been confirmed and is being prepared",
				Date:        *order.ConfirmedAt,
				Completed:   true,
			})
		}
		if order.ShippedAt != nil {
			desc := "Your order has been shipped"
			if order.CourierService != "" {
				desc += " via " + order.CourierService
			}
			timeline = append(timeline, trackingStep{
				Status:      models.OrderStatusShipped,
				Title:       "Order Shipped",
				Description: desc,
				Date:        *order.ShippedAt,
				Completed:   true,
			})
		}
		if order.DeliveredAt != nil {
			timeline = append(timeline, trackingStep{
				Status:      models.OrderStatusDelivered,
				Title:       "Order Delivered",
				Description: "Your order has been delivered successfully",
				Date:        *order.DeliveredAt,
				Completed:   true,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"order":    order,
			"timeline": timeline,
		})
	}
}

func orderIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("orderID")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderID is required"})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderID"})
		return 0, false
	}
	return uint(id), true
}
