package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/plinadev/post-it/db"
	"github.com/plinadev/post-it/models"
	"github.com/plinadev/post-it/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Get own profile
// @Description Retrieve the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: User not found"
// @Router /users/me [get]
func GetMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Update own profile
// @Description Update username and/or avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param username formData string false "New username"
// @Param avatar formData file false "New avatar"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "message, data"
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 409 {object} map[string]string "error: Username is already taken"
// @Router /users/me [put]
func UpdateMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{}

	if username := strings.TrimSpace(c.Request.FormValue("username")); username != "" {
		if !utils.ValidateUsername(username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be at least 3 characters long"})
			return
		}
		var existing models.User
		err := db.DB.Where("username = ? AND id <> ?", username, user.ID).First(&existing).Error
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Username is already taken"})
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error when checking the username existence"})
			return
		}
		user.Username = username
		updates["username"] = username
	}

	file, err := c.FormFile("avatar")
	if err == nil && file != nil {
		if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		}
		if user.AvatarURL != nil {
			if err := utils.DeleteImage(*user.AvatarURL); err != nil {
				utils.LogErrorWithUser(userID, err, "Error deleting replaced avatar")
			}
		}
		avatarURL, err := utils.UploadImage(file, "avatars", "avatar")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error uploading avatar: " + err.Error()})
			return
		}
		user.AvatarURL = &avatarURL
		updates["avatar_url"] = avatarURL
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := db.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "data": user})
}

// @Summary Delete own account
// @Description Delete the authenticated user's account. Their posts and comments stay and render with a null author projection.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: User account deleted successfully"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: User not found"
// @Router /users/me [delete]
func DeleteMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.AvatarURL != nil {
		if err := utils.DeleteImage(*user.AvatarURL); err != nil {
			utils.LogErrorWithUser(userID, err, "Error deleting avatar")
		}
	}

	if err := db.DB.Delete(&models.User{}, "id = ?", user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User account deleted successfully"})
}
