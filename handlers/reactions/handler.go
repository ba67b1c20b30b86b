package reactions

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/plinadev/post-it/db"
	"github.com/plinadev/post-it/models"
	"github.com/plinadev/post-it/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errPostNotFound     = errors.New("post not found")
	errReactionNotFound = errors.New("no reaction found for this post")
	errAlreadyReacted   = errors.New("already reacted")
)

// @Summary Like a post
// @Description Add a like, or switch an existing dislike to a like
// @Tags reactions
// @Produce json
// @Param postId path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "postId, userId, type, likesCount, dislikesCount"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Post not found"
// @Failure 409 {object} map[string]string "error: You already liked this post"
// @Router /reactions/{postId}/like [post]
func Like(c *gin.Context) {
	setReaction(c, models.ReactionLike)
}

// @Summary Dislike a post
// @Description Add a dislike, or switch an existing like to a dislike
// @Tags reactions
// @Produce json
// @Param postId path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "postId, userId, type, likesCount, dislikesCount"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Post not found"
// @Failure 409 {object} map[string]string "error: You already disliked this post"
// @Router /reactions/{postId}/dislike [post]
func Dislike(c *gin.Context) {
	setReaction(c, models.ReactionDislike)
}

// setReaction runs the whole read-then-write sequence inside one database
// transaction with the post row locked, so concurrent reactions from
// different users can never lose an increment. On any failure the
// transaction rolls back and no counter moves.
func setReaction(c *gin.Context, reactionType string) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	postID := c.Param("postId")
	var likesCount, dislikesCount int

	txErr := db.DB.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errPostNotFound
			}
			return err
		}

		reactionID := models.ReactionID(postID, userID.(string))
		var reaction models.Reaction
		err := tx.First(&reaction, "id = ?", reactionID).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction = models.Reaction{
				ID:        reactionID,
				PostID:    postID,
				UserID:    userID.(string),
				Type:      reactionType,
				CreatedAt: models.Now(),
			}
			if err := tx.Create(&reaction).Error; err != nil {
				return err
			}
			if reactionType == models.ReactionLike {
				post.LikesCount++
			} else {
				post.DislikesCount++
			}

		case err != nil:
			return err

		case reaction.Type == reactionType:
			return errAlreadyReacted

		default:
			// switch like <-> dislike: net zero on total reactions
			if err := tx.Model(&models.Reaction{}).Where("id = ?", reactionID).
				Update("type", reactionType).Error; err != nil {
				return err
			}
			if reactionType == models.ReactionLike {
				post.LikesCount++
				post.DislikesCount--
			} else {
				post.DislikesCount++
				post.LikesCount--
			}
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Updates(map[string]interface{}{
				"likes_count":    post.LikesCount,
				"dislikes_count": post.DislikesCount,
			}).Error; err != nil {
			return err
		}

		likesCount = post.LikesCount
		dislikesCount = post.DislikesCount
		return nil
	})

	switch {
	case errors.Is(txErr, errPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(txErr, errAlreadyReacted):
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("You already %sd this post", reactionType)})
	case txErr != nil:
		utils.LogErrorWithUser(userID, txErr, "Error setting reaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error setting reaction: " + txErr.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{
			"postId":        postID,
			"userId":        userID,
			"type":          reactionType,
			"likesCount":    likesCount,
			"dislikesCount": dislikesCount,
		})
	}
}

// @Summary Remove a reaction
// @Description Remove the caller's reaction from a post
// @Tags reactions
// @Produce json
// @Param postId path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "postId, userId, likesCount, dislikesCount"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: No reaction found for this post"
// @Router /reactions/{postId} [delete]
func RemoveReaction(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	postID := c.Param("postId")
	var likesCount, dislikesCount int

	txErr := db.DB.Transaction(func(tx *gorm.DB) error {
		// The post lock comes first, same as setReaction: the reaction read
		// below is then serialized against concurrent removes, so a duplicate
		// remove sees the row already gone instead of decrementing twice.
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errPostNotFound
			}
			return err
		}

		reactionID := models.ReactionID(postID, userID.(string))
		var reaction models.Reaction
		if err := tx.First(&reaction, "id = ?", reactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errReactionNotFound
			}
			return err
		}

		res := tx.Delete(&models.Reaction{}, "id = ?", reactionID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errReactionNotFound
		}

		if reaction.Type == models.ReactionLike {
			post.LikesCount--
		} else {
			post.DislikesCount--
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Updates(map[string]interface{}{
				"likes_count":    post.LikesCount,
				"dislikes_count": post.DislikesCount,
			}).Error; err != nil {
			return err
		}

		likesCount = post.LikesCount
		dislikesCount = post.DislikesCount
		return nil
	})

	switch {
	case errors.Is(txErr, errReactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No reaction found for this post"})
	case errors.Is(txErr, errPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case txErr != nil:
		utils.LogErrorWithUser(userID, txErr, "Error removing reaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error removing reaction: " + txErr.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{
			"postId":        postID,
			"userId":        userID,
			"likesCount":    likesCount,
			"dislikesCount": dislikesCount,
		})
	}
}
