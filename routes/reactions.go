package routes

import (
	"github.com/plinadev/post-it/handlers/reactions"
	"github.com/plinadev/post-it/middleware"

	"github.com/gin-gonic/gin"
)

func ReactionsRoutes(r *gin.Engine) {
	reactionsRoutes := r.Group("/reactions")
	reactionsRoutes.Use(middleware.JWTAuth())
	{
		reactionsRoutes.POST("/:postId/like", reactions.Like)
		reactionsRoutes.POST("/:postId/dislike", reactions.Dislike)
		reactionsRoutes.DELETE("/:postId", reactions.RemoveReaction)
	}
}
