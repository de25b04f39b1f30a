package routes

import (
	"github.com/gin-gonic/gin"
	userControllers "github.com/muhammadmasoud/amazon-clone/controllers/user"
	"github.com/muhammadmasoud/amazon-clone/middleware"
	"gorm.io/gorm"
)

func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	users := r.Group("/users", middleware.ValidateToken)
	{
		users.GET("/me", userControllers.GetProfile(db))
	}
}
