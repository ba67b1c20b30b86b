package main

import (
	"log"
	"os"

	"github.com/plinadev/post-it/db"
	"github.com/plinadev/post-it/routes"
	"github.com/plinadev/post-it/search"
	"github.com/plinadev/post-it/utils"

	"github.com/gin-gonic/gin"
)

// @title post-it API
// @version 1.0
// @description REST API for the post-it social posting application
// @host localhost:8080
// @BasePath /
// @SecurityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the JWT with the Bearer prefix: Bearer <JWT>
func main() {

	gin.SetMode(gin.ReleaseMode)

	db.InitDB()

	if err := utils.InitCloudinary(); err != nil {
		utils.LogError(err, "Cloudinary initialization failed, image upload will not work")
	}

	if err := search.Init(); err != nil {
		utils.LogError(err, "Search index unavailable, post listing will use database queries")
	}

	r := routes.SetupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Error starting the server:", err)
	}
}
