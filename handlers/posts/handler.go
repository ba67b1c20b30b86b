package posts

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/plinadev/post-it/db"
	"github.com/plinadev/post-it/models"
	"github.com/plinadev/post-it/search"
	"github.com/plinadev/post-it/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Create a new post
// @Description Create a new post with an optional photo
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Post title"
// @Param content formData string true "Post content"
// @Param photo formData file false "Post photo"
// @Security BearerAuth
// @Success 201 {object} models.Post
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 500 {object} map[string]string "error: Error message"
// @Router /posts [post]
func CreatePost(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	title := c.Request.FormValue("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	content := c.Request.FormValue("content")
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	post := models.Post{
		AuthorID: userID.(string),
		Title:    title,
		Content:  content,
	}

	file, err := c.FormFile("photo")
	if err == nil && file != nil {
		if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		}
		photoURL, err := utils.UploadImage(file, "posts", "post")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error uploading photo: " + err.Error()})
			return
		}
		post.PhotoURL = &photoURL
	}

	if err := db.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating post: " + err.Error()})
		return
	}

	indexPost(post)

	c.JSON(http.StatusCreated, post)
}

// @Summary List posts
// @Description Search-index backed listing with pagination; falls back to the database when the index is unavailable
// @Tags posts
// @Produce json
// @Param search query string false "Free-text search"
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{} "posts, total, page, totalPages"
// @Failure 500 {object} map[string]string "error: Error message"
// @Router /posts [get]
func GetAllPosts(c *gin.Context) {
	userID := ""
	if id, exists := c.Get("user_id"); exists {
		userID = id.(string)
	}

	searchQuery := c.Query("search")
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), 10)

	if search.Index != nil {
		result, err := search.Index.Search(searchQuery, page, limit)
		if err == nil {
			posts := make([]models.PostWithAuthor, 0, len(result.Hits))
			authorIDs := make([]string, 0, len(result.Hits))
			seen := make(map[string]bool)
			for _, hit := range result.Hits {
				posts = append(posts, models.PostWithAuthor{Post: hitToPost(hit)})
				if hit.AuthorID != "" && !seen[hit.AuthorID] {
					seen[hit.AuthorID] = true
					authorIDs = append(authorIDs, hit.AuthorID)
				}
			}
			attachAuthors(posts, authorsByIDs(authorIDs))
			attachUserReactions(posts, userID)

			c.JSON(http.StatusOK, gin.H{
				"posts":      posts,
				"total":      result.Total,
				"page":       result.Page,
				"totalPages": result.TotalPages,
			})
			return
		}
		// sole place a hard failure is absorbed: degrade to the local store
		utils.LogError(err, "Search index unavailable, falling back to database query")
	}

	getAllPostsFromDB(c, userID, searchQuery, page, limit)
}

// getAllPostsFromDB replicates the listing semantics from the local store.
// Without a search term the ordering is the fixed relevance heuristic:
// likes desc, comments desc, recency desc.
func getAllPostsFromDB(c *gin.Context, userID, searchQuery string, page, limit int) {
	query := db.DB.Model(&models.Post{})

	if searchQuery != "" {
		pattern := "%" + searchQuery + "%"
		query = query.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting posts: " + err.Error()})
		return
	}

	if searchQuery != "" {
		query = query.Order("created_at DESC")
	} else {
		query = query.Order("likes_count DESC").
			Order("comments_count DESC").
			Order("created_at DESC")
	}

	var records []models.Post
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving posts: " + err.Error()})
		return
	}

	posts := make([]models.PostWithAuthor, 0, len(records))
	authorIDs := make([]string, 0, len(records))
	seen := make(map[string]bool)
	for _, record := range records {
		posts = append(posts, models.PostWithAuthor{Post: record})
		if !seen[record.AuthorID] {
			seen[record.AuthorID] = true
			authorIDs = append(authorIDs, record.AuthorID)
		}
	}
	attachAuthors(posts, authorsByIDs(authorIDs))
	attachUserReactions(posts, userID)

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      posts,
		"total":      total,
		"page":       page,
		"totalPages": totalPages,
	})
}

// @Summary Search suggestions
// @Description Typeahead suggestions from the search index
// @Tags posts
// @Produce json
// @Param q query string true "Query text"
// @Param limit query int false "Maximum suggestions"
// @Success 200 {object} map[string]interface{} "suggestions"
// @Failure 502 {object} map[string]string "error: Search suggestions unavailable"
// @Router /posts/suggestions [get]
func GetSuggestions(c *gin.Context) {
	if search.Index == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search suggestions unavailable"})
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 5)
	suggestions, err := search.Index.Suggest(c.Query("q"), limit)
	if err != nil {
		utils.LogError(err, "Error getting search suggestions")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search suggestions unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// @Summary Get a post by ID
// @Description Retrieve a post with its author projection and, for authenticated callers, their own reaction
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.PostWithAuthor
// @Failure 404 {object} map[string]string "error: Post not found"
// @Router /posts/{id} [get]
func GetPostByID(c *gin.Context) {
	var post models.Post
	postID := c.Param("id")

	if err := db.DB.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	enriched := models.PostWithAuthor{Post: post, Author: models.UnknownAuthor()}
	if author, ok := authorsByIDs([]string{post.AuthorID})[post.AuthorID]; ok {
		enriched.Author = author
	}

	if userID, exists := c.Get("user_id"); exists {
		var reaction models.Reaction
		err := db.DB.First(&reaction, "id = ?", models.ReactionID(postID, userID.(string))).Error
		if err == nil {
			enriched.UserReaction = &reaction.Type
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.LogErrorWithUser(userID, err, "Error loading user reaction")
		}
	}

	c.JSON(http.StatusOK, enriched)
}

// @Summary Get posts by user
// @Description Retrieve a user's posts, newest first, with the author projection
// @Tags posts
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} map[string]interface{} "author, postsCount, posts"
// @Failure 500 {object} map[string]string "error: Error message"
// @Router /posts/user/{userId} [get]
func GetPostsByUserID(c *gin.Context) {
	userID := c.Param("userId")

	author := models.UnknownAuthor()
	if a, ok := authorsByIDs([]string{userID})[userID]; ok {
		author = a
	}

	var posts []models.Post
	if err := db.DB.Where("author_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving posts: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"author":     author,
		"postsCount": len(posts),
		"posts":      posts,
	})
}

// @Summary Edit a post
// @Description Edit one's own post; a photo can be replaced or removed, but not both at once
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Post ID"
// @Param title formData string false "New title"
// @Param content formData string false "New content"
// @Param removePhoto formData boolean false "Remove the current photo"
// @Param photo formData file false "Replacement photo"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "message, data"
// @Failure 400 {object} map[string]string "error: Cannot upload and remove photo simultaneously"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: Not allowed"
// @Failure 404 {object} map[string]string "error: Post not found"
// @Router /posts/{id} [patch]
func UpdatePost(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	var post models.Post
	postID := c.Param("id")

	if err := db.DB.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != userID.(string) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
		return
	}

	removePhoto := c.Request.FormValue("removePhoto") == "true"
	file, fileErr := c.FormFile("photo")
	hasPhoto := fileErr == nil && file != nil

	if hasPhoto && removePhoto {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot upload and remove photo simultaneously"})
		return
	}

	now := models.Now()
	updates := map[string]interface{}{
		"edited":     true,
		"updated_at": now,
	}

	if title := c.Request.FormValue("title"); title != "" {
		post.Title = title
		updates["title"] = title
	}
	if content := c.Request.FormValue("content"); content != "" {
		post.Content = content
		updates["content"] = content
	}

	if hasPhoto {
		if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		}
		if post.PhotoURL != nil {
			if err := utils.DeleteImage(*post.PhotoURL); err != nil {
				utils.LogErrorWithUser(userID, err, "Error deleting replaced photo")
			}
		}
		photoURL, err := utils.UploadImage(file, "posts", "post")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error uploading photo: " + err.Error()})
			return
		}
		post.PhotoURL = &photoURL
		updates["photo_url"] = photoURL
	} else if removePhoto && post.PhotoURL != nil {
		if err := utils.DeleteImage(*post.PhotoURL); err != nil {
			utils.LogErrorWithUser(userID, err, "Error deleting removed photo")
		}
		post.PhotoURL = nil
		updates["photo_url"] = nil
	}

	if err := db.DB.Model(&models.Post{}).Where("id = ?", postID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating post: " + err.Error()})
		return
	}

	post.Edited = true
	post.UpdatedAt = &now
	indexPost(post)

	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "data": post})
}

// @Summary Delete a post
// @Description Delete one's own post together with its comments and reactions
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: Post deleted successfully"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: You are not allowed to delete this post"
// @Failure 404 {object} map[string]string "error: Post not found"
// @Router /posts/{id} [delete]
func DeletePost(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	var post models.Post
	postID := c.Param("id")

	if err := db.DB.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != userID.(string) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to delete this post"})
		return
	}

	// comments and reactions go with the post so nothing references a
	// deleted parent
	txErr := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, "id = ?", postID).Error
	})
	if txErr != nil {
		utils.LogErrorWithUser(userID, txErr, "Error deleting post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting post: " + txErr.Error()})
		return
	}

	if post.PhotoURL != nil {
		if err := utils.DeleteImage(*post.PhotoURL); err != nil {
			utils.LogErrorWithUser(userID, err, "Error deleting post photo")
		}
	}
	if search.Index != nil {
		if err := search.Index.DeletePost(postID); err != nil {
			utils.LogError(err, "Error removing post from the search index")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func parsePositiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func hitToPost(hit search.Hit) models.Post {
	post := models.Post{
		ID:            hit.ObjectID,
		AuthorID:      hit.AuthorID,
		Title:         hit.Title,
		Content:       hit.Content,
		PhotoURL:      hit.PhotoURL,
		Edited:        hit.Edited,
		LikesCount:    hit.LikesCount,
		DislikesCount: hit.DislikesCount,
		CommentsCount: hit.CommentsCount,
		CreatedAt:     models.FromMillis(hit.CreatedAt),
	}
	if hit.UpdatedAt != nil {
		updatedAt := models.FromMillis(*hit.UpdatedAt)
		post.UpdatedAt = &updatedAt
	}
	return post
}

// indexPost pushes the post to the search index best-effort; the index is
// eventually consistent and must never fail a write path.
func indexPost(post models.Post) {
	if search.Index == nil {
		return
	}

	doc := search.Hit{
		ObjectID:      post.ID,
		Title:         post.Title,
		Content:       post.Content,
		AuthorID:      post.AuthorID,
		PhotoURL:      post.PhotoURL,
		Edited:        post.Edited,
		LikesCount:    post.LikesCount,
		DislikesCount: post.DislikesCount,
		CommentsCount: post.CommentsCount,
		CreatedAt:     post.CreatedAt.Millis(),
	}
	if post.UpdatedAt != nil {
		updatedAt := post.UpdatedAt.Millis()
		doc.UpdatedAt = &updatedAt
	}

	if err := search.Index.SavePost(doc); err != nil {
		utils.LogError(err, "Error indexing post")
	}
}

func attachAuthors(posts []models.PostWithAuthor, authors map[string]models.Author) {
	for i := range posts {
		if author, ok := authors[posts[i].AuthorID]; ok {
			posts[i].Author = author
		} else {
			posts[i].Author = models.UnknownAuthor()
		}
	}
}

// attachUserReactions resolves the requesting user's reaction for every
// listed post with a single membership query.
func attachUserReactions(posts []models.PostWithAuthor, userID string) {
	if userID == "" || len(posts) == 0 {
		return
	}

	postIDs := make([]string, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	var reactions []models.Reaction
	if err := db.DB.Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&reactions).Error; err != nil {
		utils.LogError(err, "Error loading user reactions")
		return
	}

	byPost := make(map[string]string, len(reactions))
	for _, reaction := range reactions {
		byPost[reaction.PostID] = reaction.Type
	}

	for i := range posts {
		if reactionType, ok := byPost[posts[i].ID]; ok {
			t := reactionType
			posts[i].UserReaction = &t
		}
	}
}

func authorsByIDs(ids []string) map[string]models.Author {
	authors := make(map[string]models.Author, len(ids))
	if len(ids) == 0 {
		return authors
	}

	var users []models.User
	if err := db.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		utils.LogError(err, "Error loading authors")
		return authors
	}

	for _, user := range users {
		authors[user.ID] = models.Author{Username: user.Username, AvatarURL: user.AvatarURL}
	}
	return authors
}
