package auth

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
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

func performRequest(t *testing.T, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	r := testutils.SetupTestRouter()
	r.POST("/register", Register)
	r.POST("/login", Login)

	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRegister(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE username = \$1`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	resp := performRequest(t, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@test.com",
		"password": "secret123",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)

	var response map[string]string
	json.Unmarshal(resp.Body.Bytes(), &response)
	assert.Equal(t, "User created successfully", response["message"])
	assert.Equal(t, "alice@test.com", response["email"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_EmailAlreadyUsed(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "avatar_url", "created_at"}).
			AddRow("user-1", "alice", "alice@test.com", "hash", nil, time.Now()))

	resp := performRequest(t, "/register", map[string]string{
		"username": "alice2",
		"email":    "alice@test.com",
		"password": "secret123",
	})

	assert.Equal(t, http.StatusConflict, resp.Code)

	var response map[string]string
	json.Unmarshal(resp.Body.Bytes(), &response)
	assert.Equal(t, "This email is already used", response["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_InvalidEmail(t *testing.T) {
	resp := performRequest(t, "/register", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "secret123",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRegister_ShortUsername(t *testing.T) {
	resp := performRequest(t, "/register", map[string]string{
		"username": "ab",
		"email":    "alice@test.com",
		"password": "secret123",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRegister_ShortPassword(t *testing.T) {
	resp := performRequest(t, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@test.com",
		"password": "short",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "avatar_url", "created_at"}).
			AddRow("user-1", "alice", "alice@test.com", string(hash), nil, time.Now()))

	resp := performRequest(t, "/login", map[string]string{
		"email":    "alice@test.com",
		"password": "secret123",
	})

	assert.Equal(t, http.StatusOK, resp.Code)

	var response map[string]string
	json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NotEmpty(t, response["token"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "avatar_url", "created_at"}).
			AddRow("user-1", "alice", "alice@test.com", string(hash), nil, time.Now()))

	resp := performRequest(t, "/login", map[string]string{
		"email":    "alice@test.com",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	json.Unmarshal(resp.Body.Bytes(), &response)
	assert.Equal(t, "Invalid credentials", response["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnknownEmail(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnError(gorm.ErrRecordNotFound)

	resp := performRequest(t, "/login", map[string]string{
		"email":    "ghost@test.com",
		"password": "whatever",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
