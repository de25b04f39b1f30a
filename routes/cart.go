package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/muhammadmasoud/amazon-clone/controllers/cart"
	"github.com/muhammadmasoud/amazon-clone/middleware"
	"gorm.io/gorm"
)

func SetupCartRoutes(r *gin.Engine, db *gorm.DB) {
	cart := r.Group("/cart", middleware.ValidateToken)
	{
		cart.GET("", cartControllers.GetUserCart(db))
		cart.POST("", cartControllers.AddCartItem(db))
		cart.PATCH("/:product_id", cartControllers.UpdateCartItemQuantity(db))
		cart.DELETE("/:product_id", cartControllers.DeleteCartItem(db))
		cart.DELETE("", cartControllers.ClearUserCart(db))

		cart.POST("/promo", cartControllers.ApplyPromoCode(db))
		cart.DELETE("/promo", cartControllers.RemovePromoCode(db))
	}
}
