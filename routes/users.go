package routes

import (
	"github.com/plinadev/post-it/handlers/users"
	"github.com/plinadev/post-it/middleware"

	"github.com/gin-gonic/gin"
)

func UsersRoutes(r *gin.Engine) {
	usersRoutes := r.Group("/users")
	usersRoutes.Use(middleware.JWTAuth())
	{
		usersRoutes.GET("/me", users.GetMe)
		usersRoutes.PUT("/me", users.UpdateMe)
		usersRoutes.DELETE("/me", users.DeleteMe)
	}
}
