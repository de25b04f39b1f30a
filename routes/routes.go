package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/muhammadmasoud/amazon-clone/controllers/order"
	"github.com/muhammadmasoud/amazon-clone/gateway"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up all route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, gw gateway.Client, pricing orderControllers.PricingConfig, publishableKey, webhookSecret string) {
	// Public catalog + user routes
	SetupProductRoutes(r, db)
	SetupUserRoutes(r, db)

	// Cart routes (JWT-protected)
	SetupCartRoutes(r, db)

	// Order routes
	SetupOrderRoutes(r, db, pricing)

	// Payment routes
	SetupPaymentRoutes(r, db, gw, pricing, publishableKey, webhookSecret)
}
