package routes

import (
	"github.com/plinadev/post-it/handlers/comments"
	"github.com/plinadev/post-it/middleware"

	"github.com/gin-gonic/gin"
)

func CommentsRoutes(r *gin.Engine) {
	r.GET("/comments/:postId", comments.GetCommentsForPost)

	commentsRoutes := r.Group("/comments")
	commentsRoutes.Use(middleware.JWTAuth())
	{
		commentsRoutes.POST("/:postId", comments.CreateComment)
		commentsRoutes.PATCH("/:commentId", comments.UpdateComment)
		commentsRoutes.DELETE("/:commentId", comments.DeleteComment)
	}
}
