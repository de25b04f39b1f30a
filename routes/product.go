package routes

import (
	"github.com/gin-gonic/gin"
	productControllers "github.com/muhammadmasoud/amazon-clone/controllers/product"
	"gorm.io/gorm"
)

func SetupProductRoutes(r *gin.Engine, db *gorm.DB) {
	products := r.Group("/products")
	{
		products.GET("", productControllers.GetAllProducts(db))
		products.GET("/:id", productControllers.GetProductByID(db))
	}
}
