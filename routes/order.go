package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/muhammadmasoud/amazon-clone/controllers/order"
	"github.com/muhammadmasoud/amazon-clone/middleware"
	"gorm.io/gorm"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, pricing orderControllers.PricingConfig) {
	orders := r.Group("/orders")
	{
		// Public order tracking by order number
		orders.GET("/tracking/:orderNumber", orderControllers.OrderTrackingHandler(db))

		// websocket endpoint for real-time order updates
		orders.GET("/ws", orderControllers.OrderWebSocketHandler)

		authed := orders.Group("", middleware.ValidateToken)
		{
			// Create a new order from a submitted cart
			authed.POST("", orderControllers.PlaceOrderHandler(db, pricing))

			// Order history for the authenticated user
			authed.GET("", orderControllers.GetUserOrdersHandler(db))

			// Fetch a single order (own orders only)
			authed.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))

			// Cancel an eligible order; restores stock
			authed.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(db))
		}

		admin := orders.Group("/admin", middleware.ValidateAPIKey)
		{
			// Fetch all orders with filters
			admin.GET("", orderControllers.GetAllOrdersHandler(db))

			// Update order status, payment flag, tracking info
			admin.PATCH("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db))
		}
	}
}
