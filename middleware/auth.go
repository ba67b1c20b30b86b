package middleware

import (
	"net/http"
	"strings"

	"github.com/plinadev/post-it/utils"

	"github.com/gin-gonic/gin"
)

func extractJwtClaims(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")

	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
		c.Abort()
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format, expected: Bearer <token>"})
		c.Abort()
		return "", false
	}

	claims, err := utils.DecodeJWT(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
		c.Abort()
		return "", false
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		c.Abort()
		return "", false
	}

	return userID, true
}

// JWTAuth requires a valid bearer token and stores the subject id in the
// context. The token is the only trusted source of actor identity.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := extractJwtClaims(c)
		if !ok {
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalJWTAuth attaches the subject id when a valid bearer token is
// present but lets anonymous requests through. Used on read endpoints that
// enrich the response for authenticated users.
func OptionalJWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Next()
			return
		}

		claims, err := utils.DecodeJWT(parts[1])
		if err != nil {
			c.Next()
			return
		}

		if userID, ok := claims["user_id"].(string); ok && userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}
