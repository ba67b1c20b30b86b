package routes

import (
	"github.com/plinadev/post-it/handlers/posts"
	"github.com/plinadev/post-it/middleware"

	"github.com/gin-gonic/gin"
)

func PostsRoutes(r *gin.Engine) {
	// Public routes; the optional auth only enriches the response with the
	// caller's own reactions
	r.GET("/posts", middleware.OptionalJWTAuth(), posts.GetAllPosts)
	r.GET("/posts/suggestions", posts.GetSuggestions)
	r.GET("/posts/user/:userId", posts.GetPostsByUserID)
	r.GET("/posts/:id", middleware.OptionalJWTAuth(), posts.GetPostByID)

	// Protected routes
	postsRoutes := r.Group("/posts")
	postsRoutes.Use(middleware.JWTAuth())
	{
		postsRoutes.POST("", posts.CreatePost)
		postsRoutes.PATCH("/:id", posts.UpdatePost)
		postsRoutes.DELETE("/:id", posts.DeletePost)
	}
}
