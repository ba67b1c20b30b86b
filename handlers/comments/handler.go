package comments

import (
	"errors"
	"net/http"

	"github.com/plinadev/post-it/db"
	"github.com/plinadev/post-it/models"
	"github.com/plinadev/post-it/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errUserNotFound   = errors.New("user not found")
	errPostNotFound   = errors.New("post not found")
	errParentNotFound = errors.New("parent comment not found")
	errParentMismatch = errors.New("parent comment on another post")
)

type commentInput struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parentId"`
}

type updateInput struct {
	Content string `json:"content" binding:"required"`
}

// @Summary Create a comment
// @Description Create a comment on a post, optionally as a reply to another comment
// @Tags comments
// @Accept json
// @Produce json
// @Param postId path string true "Post ID"
// @Param comment body commentInput true "Comment content and optional parent id"
// @Security BearerAuth
// @Success 201 {object} models.Comment
// @Failure 400 {object} map[string]string "error: Invalid comment data"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: Parent comment does not belong to this post"
// @Failure 404 {object} map[string]string "error: Post not found"
// @Router /comments/{postId} [post]
func CreateComment(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	postID := c.Param("postId")

	var input commentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment data: " + err.Error()})
		return
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   userID.(string),
		Content:  input.Content,
		ParentID: input.ParentID,
	}

	// Existence checks run inside the same transaction as the insert, with
	// the post row locked, so a post deleted concurrently cannot leave a
	// dangling comment or an increment against a removed row.
	txErr := db.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUserNotFound
			}
			return err
		}

		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errPostNotFound
			}
			return err
		}

		if input.ParentID != nil {
			var parent models.Comment
			if err := tx.First(&parent, "id = ?", *input.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errParentNotFound
				}
				return err
			}
			// a parent on another post is a referential-integrity violation,
			// not something to silently correct
			if parent.PostID != postID {
				return errParentMismatch
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error
	})

	switch {
	case errors.Is(txErr, errUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(txErr, errPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(txErr, errParentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Parent comment not found"})
	case errors.Is(txErr, errParentMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "Parent comment does not belong to this post"})
	case txErr != nil:
		utils.LogErrorWithUser(userID, txErr, "Error creating comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating comment: " + txErr.Error()})
	default:
		c.JSON(http.StatusCreated, gin.H{"comment": comment})
	}
}

// @Summary Edit a comment
// @Description Edit the content of one's own comment
// @Tags comments
// @Accept json
// @Produce json
// @Param commentId path string true "Comment ID"
// @Param comment body updateInput true "New content"
// @Security BearerAuth
// @Success 200 {object} models.Comment
// @Failure 400 {object} map[string]string "error: Invalid comment data"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You can only edit your own comments"
// @Failure 404 {object} map[string]string "error: Comment not found"
// @Router /comments/{commentId} [patch]
func UpdateComment(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	commentID := c.Param("commentId")

	var input updateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment data: " + err.Error()})
		return
	}

	var comment models.Comment
	if err := db.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.UserID != userID.(string) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own comments"})
		return
	}

	now := models.Now()
	if err := db.DB.Model(&comment).Updates(map[string]interface{}{
		"content":    input.Content,
		"edited":     true,
		"updated_at": now,
	}).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error updating comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating comment: " + err.Error()})
		return
	}

	comment.Content = input.Content
	comment.Edited = true
	comment.UpdatedAt = &now

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// @Summary Delete a comment
// @Description Delete one's own comment together with its entire reply subtree
// @Tags comments
// @Produce json
// @Param commentId path string true "Comment ID"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: Comment and replies deleted successfully"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You can only delete your own comments"
// @Failure 404 {object} map[string]string "error: Comment not found"
// @Router /comments/{commentId} [delete]
func DeleteComment(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	commentID := c.Param("commentId")

	var comment models.Comment
	if err := db.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.UserID != userID.(string) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own comments"})
		return
	}

	txErr := db.DB.Transaction(func(tx *gorm.DB) error {
		replyIDs, err := collectReplyIDs(tx, comment.ID)
		if err != nil {
			return err
		}

		ids := append([]string{comment.ID}, replyIDs...)
		if err := tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count - ?", len(ids))).Error
	})
	if txErr != nil {
		utils.LogErrorWithUser(userID, txErr, "Error deleting comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting comment: " + txErr.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment and replies deleted successfully"})
}

// collectReplyIDs walks the reply subtree breadth-first with an explicit
// worklist and returns every descendant id. The full closure is computed
// before anything is deleted; a one-level delete would leave grandchildren
// dangling.
func collectReplyIDs(tx *gorm.DB, commentID string) ([]string, error) {
	var all []string
	frontier := []string{commentID}

	for len(frontier) > 0 {
		var children []string
		if err := tx.Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		all = append(all, children...)
		frontier = children
	}

	return all, nil
}

// @Summary Get comments for a post
// @Description Flat list of comments in ascending creation order with author projections. Pass format=tree to get the nested reply forest instead.
// @Tags comments
// @Produce json
// @Param postId path string true "Post ID"
// @Param format query string false "Set to tree for the nested forest"
// @Success 200 {object} map[string]interface{} "comments"
// @Failure 404 {object} map[string]string "error: Post not found"
// @Router /comments/{postId} [get]
func GetCommentsForPost(c *gin.Context) {
	postID := c.Param("postId")

	var post models.Post
	if err := db.DB.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var comments []models.Comment
	if err := db.DB.Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving comments: " + err.Error()})
		return
	}

	authors := authorsByIDs(distinctUserIDs(comments))

	withAuthors := make([]models.CommentWithAuthor, 0, len(comments))
	for _, comment := range comments {
		enriched := models.CommentWithAuthor{Comment: comment}
		if author, ok := authors[comment.UserID]; ok {
			enriched.Author = &author
		}
		withAuthors = append(withAuthors, enriched)
	}

	if c.Query("format") == "tree" {
		c.JSON(http.StatusOK, gin.H{"comments": utils.BuildCommentTree(withAuthors)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": withAuthors})
}

func distinctUserIDs(comments []models.Comment) []string {
	seen := make(map[string]bool, len(comments))
	ids := make([]string, 0, len(comments))
	for _, comment := range comments {
		if !seen[comment.UserID] {
			seen[comment.UserID] = true
			ids = append(ids, comment.UserID)
		}
	}
	return ids
}

func authorsByIDs(ids []string) map[string]models.Author {
	authors := make(map[string]models.Author, len(ids))
	if len(ids) == 0 {
		return authors
	}

	var users []models.User
	if err := db.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		utils.LogError(err, "Error loading comment authors")
		return authors
	}

	for _, user := range users {
		authors[user.ID] = models.Author{Username: user.Username, AvatarURL: user.AvatarURL}
	}
	return authors
}
