package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"library-api/pkg/auth"
	"library-api/pkg/database"
	"library-api/pkg/loans"
	"library-api/pkg/models"
)

func setupTest(t *testing.T) *gorm.DB {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	if err := database.Migrate(testDB); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db = testDB
	authService = auth.NewService(testDB, auth.TokenConfig{
		Secret:         "test-secret-key-at-least-32-chars-long",
		Issuer:         "library-api",
		ExpiresMinutes: 60,
	})
	loanService = loans.NewService(testDB)
	return testDB
}

func testContext() context.Context {
	return context.Background()
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func seedAuthorBookMember(t *testing.T, testDB *gorm.DB) (models.Author, models.Book, models.Member) {
	author := models.Author{AuthorUid: uuid.New().String(), Name: "Test Author"}
	assert.NoError(t, testDB.Create(&author).Error)

	book := models.Book{
		BookUid:  uuid.New().String(),
		Title:    "Test Book",
		Isbn:     "TEST-ISBN-1",
		AuthorID: author.ID,
	}
	assert.NoError(t, testDB.Create(&book).Error)

	member := models.Member{
		MemberUid: uuid.New().String(),
		FullName:  "Test Member",
		Email:     "member@test.com",
	}
	assert.NoError(t, testDB.Create(&member).Error)

	return author, book, member
}

func TestRegisterHandler(t *testing.T) {
	setupTest(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/register", `{"username":"alice","password":"s3cret"}`)

	register(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	// Same username again is a conflict.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/register", `{"username":"alice","password":"other"}`)

	register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginHandler(t *testing.T) {
	setupTest(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/register", `{"username":"alice","password":"s3cret","role":"Admin"}`)
	register(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/login", `{"username":"alice","password":"s3cret"}`)

	login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Bearer", response["tokenType"])
	assert.Equal(t, "alice", response["username"])
	assert.Equal(t, "Admin", response["role"])
	assert.NotEmpty(t, response["accessToken"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/login", `{"username":"alice","password":"wrong"}`)

	login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginHandlerWithoutSigningKey(t *testing.T) {
	testDB := setupTest(t)
	authService = auth.NewService(testDB, auth.TokenConfig{ExpiresMinutes: 60})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/register", `{"username":"alice","password":"s3cret"}`)
	register(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/login", `{"username":"alice","password":"s3cret"}`)

	login(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAuthMiddleware(t *testing.T) {
	setupTest(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/register", `{"username":"alice","password":"s3cret"}`)
	register(c)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/auth/login", `{"username":"alice","password":"s3cret"}`)
	login(c)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	token := response["accessToken"].(string)

	// No token.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/authors", `{"name":"X"}`)
	requireAuth()(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())

	// Garbage token.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/authors", `{"name":"X"}`)
	c.Request.Header.Set("Authorization", "Bearer not-a-token")
	requireAuth()(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())

	// Valid token passes and exposes claims.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/authors", `{"name":"X"}`)
	c.Request.Header.Set("Authorization", "Bearer "+token)
	requireAuth()(c)
	assert.False(t, c.IsAborted())
	assert.Equal(t, "alice", c.GetString("username"))
	assert.Equal(t, "User", c.GetString("role"))
}

func TestCreateLoanHandler(t *testing.T) {
	testDB := setupTest(t)
	_, book, member := seedAuthorBookMember(t, testDB)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/loans",
		`{"bookUid":"`+book.BookUid+`","memberUid":"`+member.MemberUid+`","loanDays":7}`)

	createLoan(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, book.BookUid, response["bookUid"])
	assert.Equal(t, "Test Book", response["bookTitle"])
	assert.Equal(t, "Test Member", response["memberFullName"])
	assert.Nil(t, response["returnedAt"])

	// Book is now on loan: second checkout conflicts.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/loans",
		`{"bookUid":"`+book.BookUid+`","memberUid":"`+member.MemberUid+`"}`)

	createLoan(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateLoanHandlerUnknownBook(t *testing.T) {
	testDB := setupTest(t)
	_, _, member := seedAuthorBookMember(t, testDB)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/loans",
		`{"bookUid":"`+uuid.New().String()+`","memberUid":"`+member.MemberUid+`"}`)

	createLoan(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReturnLoanHandler(t *testing.T) {
	testDB := setupTest(t)
	_, book, member := seedAuthorBookMember(t, testDB)

	created, err := loanService.Checkout(testContext(), book.BookUid, member.MemberUid, 14)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/loans/"+created.LoanUid+"/return", "")
	c.Params = gin.Params{gin.Param{Key: "loanUid", Value: created.LoanUid}}

	returnLoan(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotNil(t, response["returnedAt"])

	// Second return conflicts.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/v1/loans/"+created.LoanUid+"/return", "")
	c.Params = gin.Params{gin.Param{Key: "loanUid", Value: created.LoanUid}}

	returnLoan(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteLoanHandler(t *testing.T) {
	testDB := setupTest(t)
	_, book, member := seedAuthorBookMember(t, testDB)

	created, err := loanService.Checkout(testContext(), book.BookUid, member.MemberUid, 14)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("DELETE", "/api/v1/loans/"+created.LoanUid, nil)
	c.Params = gin.Params{gin.Param{Key: "loanUid", Value: created.LoanUid}}

	deleteLoan(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("DELETE", "/api/v1/loans/"+created.LoanUid, nil)
	c.Params = gin.Params{gin.Param{Key: "loanUid", Value: created.LoanUid}}

	deleteLoan(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLoansHandlerActiveFilter(t *testing.T) {
	testDB := setupTest(t)
	_, book, member := seedAuthorBookMember(t, testDB)

	created, err := loanService.Checkout(testContext(), book.BookUid, member.MemberUid, 14)
	assert.NoError(t, err)
	_, err = loanService.Return(testContext(), created.LoanUid, nil)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/loans?active=true", nil)

	getLoans(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var items []interface{}
	json.Unmarshal(w.Body.Bytes(), &items)
	assert.Len(t, items, 0)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/loans?active=false", nil)

	getLoans(c)

	assert.Equal(t, http.StatusOK, w.Code)
	json.Unmarshal(w.Body.Bytes(), &items)
	assert.Len(t, items, 1)
}
