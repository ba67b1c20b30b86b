package comments

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/plinadev/post-it/testutils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

func userRow(id, username string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password", "avatar_url", "created_at"}).
		AddRow(id, username, username+"@test.com", "hash", nil, time.Now())
}

func postRow(id string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "author_id", "title", "content", "photo_url", "edited",
		"likes_count", "dislikes_count", "comments_count", "created_at", "updated_at",
	}).AddRow(id, "author-1", "Test Post", "content", nil, false, 0, 0, 0, time.Now(), nil)
}

func commentRow(id, postID, userID string, parentID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "post_id", "user_id", "content", "parent_id", "edited", "created_at", "updated_at",
	}).AddRow(id, postID, userID, "a comment", parentID, false, time.Now(), nil)
}

func setupCommentRouter(userID string) *gin.Engine {
	r := testutils.SetupTestRouter()
	r.POST("/comments/:postId", func(c *gin.Context) {
		c.Set("user_id", userID)
		CreateComment(c)
	})
	r.PATCH("/comments/:commentId", func(c *gin.Context) {
		c.Set("user_id", userID)
		UpdateComment(c)
	})
	r.DELETE("/comments/:commentId", func(c *gin.Context) {
		c.Set("user_id", userID)
		DeleteComment(c)
	})
	r.GET("/comments/:postId", GetCommentsForPost)
	return r
}

func TestCreateComment(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WillReturnRows(userRow("user-1", "alice"))
	mock.ExpectQuery(`SELECT (.+) FROM "posts" WHERE id = \$1 (.+)FOR UPDATE`).
		WillReturnRows(postRow("post-1"))
	mock.ExpectExec(`INSERT INTO "comments"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "posts" SET "comments_count"=comments_count \+ \$1 WHERE id = \$2`).
		WithArgs(1, "post-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body, _ := json.Marshal(map[string]string{"content": "first!"})
	r := setupCommentRouter("user-1")
	req, _ := http.NewRequest(http.MethodPost, "/comments/post-1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusCreated, resp.Code)

	var response map[string]map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)
	comment := response["comment"]
	assert.NotEmpty(t, comment["id"])
	assert.Equal(t, "post-1", comment["postId"])
	assert.Equal(t, "user-1", comment["userId"])
	assert.Equal(t, "first!", comment["content"])
	assert.Nil(t, comment["parentId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateComment_PostNotFound(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	// the post vanished before the transaction began; nothing is inserted
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WillReturnRows(userRow("user-1", "alice"))
	mock.ExpectQuery(`SELECT (.+) FROM "posts" WHERE id = \$1 (.+)FOR UPDATE`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	body, _ := json.Marshal(map[string]string{"content": "hello"})
	r := setupCommentRouter("user-1")
	req, _ := http.NewRequest(http.MethodPost, "/comments/missing", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateComment_ParentOnOtherPost(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WillReturnRows(userRow("user-1", "alice"))
	mock.ExpectQuery(`SELECT (.+) FROM "posts" WHERE id = \$1 (.+)FOR UPDATE`).
		WillReturnRows(postRow("post-1"))
	mock.ExpectQuery(`SELECT (.+) FROM "comments" WHERE id = \$1`).
		WillReturnRows(commentRow("comment-9", "post-2", "user-2", nil))
	mock.ExpectRollback()

	parentID := "comment-9"
	body, _ := json.Marshal(map[string]interface{}{"content": "reply", "parentId": parentID})
	r := setupCommentRouter("user-1")
	req, _ := http.NewRequest(http.MethodPost, "/comments/post-1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)

	var response map[string]string
	json.Unmarshal(resp.Body.Bytes(), &response)
	assert.Equal(t, "Parent comment does not belong to this post", response["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateComment(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "comments" WHERE id = \$1`).
		WillReturnRows(commentRow("comment-1", "post-1", "user-1", nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "comments" SET "content"=\$1,"edited"=\$2,"updated_at"=\$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body, _ := json.Marshal(map[string]string{"content": "edited text"})
	r := setupCommentRouter("user-1")
	req, _ := http.NewRequest(http.MethodPatch, "/comments/comment-1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response map[string]map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)
	comment := response["comment"]
	assert.Equal(t, "edited text", comment["content"])
	assert.Equal(t, true, comment["edited"])
	assert.NotNil(t, comment["updatedAt"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateComment_NotOwner(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "comments" WHERE id = \$1`).
		WillReturnRows(commentRow("comment-1", "post-1", "user-2", nil))

	body, _ := json.Marshal(map[string]string{"content": "hijack"})
	r := setupCommentRouter("user-1")
	req, _ := http.NewRequest(http.MethodPatch, "/comments/comment-1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteComment_CascadesReplies(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "comments" WHERE id = \$1`).
		WillReturnRows(commentRow("comment-1", "post-1", "user-1", nil))
	mock.ExpectBegin()
	// reply subtree: comment-1 -> comment-2 -> comment-3
	mock.ExpectQuery(`SELECT "id" FROM "comments" WHERE parent_id IN \(\$1\)`).
		WithArgs("comment-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("comment-2"))
	mock.ExpectQuery(`SELECT "id" FROM "comments" WHERE parent_id IN \(\$1\)`).
		WithArgs("comment-2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("comment-3"))
	mock.ExpectQuery(`SELECT "id" FROM "comments" WHERE parent_id IN \(\$1\)`).
		WithArgs("comment-3").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`DELETE FROM "comments" WHERE id IN \(\$1,\$2,\$3\)`).
		WithArgs("comment-1", "comment-2", "comment-3").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE "posts" SET "comments_count"=comments_count - \$1 WHERE id = \$2`).
		WithArgs(3, "post-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := setupCommentRouter("user-1")
	req, _ := http.NewRequest(http.MethodDelete, "/comments/comment-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response map[string]string
	json.Unmarshal(resp.Body.Bytes(), &response)
	assert.Equal(t, "Comment and replies deleted successfully", response["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteComment_NotOwner(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "comments" WHERE id = \$1`).
		WillReturnRows(commentRow("comment-1", "post-1", "user-2", nil))

	r := setupCommentRouter("user-1")
	req, _ := http.NewRequest(http.MethodDelete, "/comments/comment-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCommentsForPost_FlatWithMissingAuthor(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "posts" WHERE id = \$1`).
		WillReturnRows(postRow("post-1"))
	commentRows := sqlmock.NewRows([]string{
		"id", "post_id", "user_id", "content", "parent_id", "edited", "created_at", "updated_at",
	}).
		AddRow("comment-1", "post-1", "user-1", "older", nil, false, time.Now().Add(-time.Hour), nil).
		AddRow("comment-2", "post-1", "ghost", "newer", nil, false, time.Now(), nil)
	mock.ExpectQuery(`SELECT (.+) FROM "comments" WHERE post_id = \$1 ORDER BY created_at ASC`).
		WillReturnRows(commentRows)
	// only user-1 still has an account
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id IN \(\$1,\$2\)`).
		WillReturnRows(userRow("user-1", "alice"))

	r := setupCommentRouter("")
	req, _ := http.NewRequest(http.MethodGet, "/comments/post-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response map[string][]map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)
	comments := response["comments"]
	assert.Len(t, comments, 2)
	assert.Equal(t, "comment-1", comments[0]["id"])
	assert.Equal(t, "alice", comments[0]["author"].(map[string]interface{})["username"])
	assert.Nil(t, comments[1]["author"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCommentsForPost_TreeFormat(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "posts" WHERE id = \$1`).
		WillReturnRows(postRow("post-1"))
	parent := "comment-1"
	commentRows := sqlmock.NewRows([]string{
		"id", "post_id", "user_id", "content", "parent_id", "edited", "created_at", "updated_at",
	}).
		AddRow("comment-1", "post-1", "user-1", "root", nil, false, time.Now().Add(-time.Hour), nil).
		AddRow("comment-2", "post-1", "user-1", "reply", parent, false, time.Now(), nil)
	mock.ExpectQuery(`SELECT (.+) FROM "comments" WHERE post_id = \$1 ORDER BY created_at ASC`).
		WillReturnRows(commentRows)
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id IN \(\$1\)`).
		WillReturnRows(userRow("user-1", "alice"))

	r := setupCommentRouter("")
	req, _ := http.NewRequest(http.MethodGet, "/comments/post-1?format=tree", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response map[string][]map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)
	roots := response["comments"]
	assert.Len(t, roots, 1)
	replies := roots[0]["replies"].([]interface{})
	assert.Len(t, replies, 1)
	assert.Equal(t, "comment-2", replies[0].(map[string]interface{})["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
