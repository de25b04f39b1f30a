package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/muhammadmasoud/amazon-clone/controllers/order"
	paymentControllers "github.com/muhammadmasoud/amazon-clone/controllers/payment"
	"github.com/muhammadmasoud/amazon-clone/gateway"
	"github.com/muhammadmasoud/amazon-clone/middleware"
	"gorm.io/gorm"
)

func SetupPaymentRoutes(r *gin.Engine, db *gorm.DB, gw gateway.Client, pricing orderControllers.PricingConfig, publishableKey, webhookSecret string) {
	payments := r.Group("/payments")
	{
		// Webhook endpoint: signature is verified inside the handler
		payments.POST("/webhook", paymentControllers.StripeWebhookHandler(db, webhookSecret))

		// Publishable key for the frontend
		payments.GET("/config", paymentControllers.GatewayConfigHandler(publishableKey))

		authed := payments.Group("", middleware.ValidateToken)
		{
			authed.POST("/create-intent", paymentControllers.CreatePaymentIntentHandler(db, gw, pricing))
			authed.POST("/confirm", paymentControllers.ConfirmPaymentHandler(db, gw))
			authed.GET("", paymentControllers.UserPaymentsHandler(db))
			authed.GET("/:paymentID", paymentControllers.PaymentStatusHandler(db))
		}

		admin := payments.Group("/admin", middleware.ValidateAPIKey)
		{
			admin.POST("/:paymentID/refund", paymentControllers.RefundPaymentHandler(db, gw))
		}
	}
}
