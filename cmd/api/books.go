package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-api/pkg/models"
)

type bookRequest struct {
	Title     string `json:"title" binding:"required"`
	Isbn      string `json:"isbn" binding:"required"`
	AuthorUid string `json:"authorUid" binding:"required"`
}

func bookJSON(b models.Book) gin.H {
	return gin.H{
		"bookUid":    b.BookUid,
		"title":      b.Title,
		"isbn":       b.Isbn,
		"authorUid":  b.Author.AuthorUid,
		"authorName": b.Author.Name,
	}
}

func getBooks(c *gin.Context) {
	var books []models.Book
	if err := db.Preload("Author").Order("title").Find(&books).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, len(books))
	for i, b := range books {
		items[i] = bookJSON(b)
	}
	c.JSON(http.StatusOK, items)
}

func getBook(c *gin.Context) {
	bookUid := c.Param("bookUid")

	var book models.Book
	if err := db.Preload("Author").Where("book_uid = ?", bookUid).First(&book).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	c.JSON(http.StatusOK, bookJSON(book))
}

func createBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var author models.Author
	if err := db.Where("author_uid = ?", req.AuthorUid).First(&author).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}

	book := models.Book{
		BookUid:  uuid.New().String(),
		Title:    strings.TrimSpace(req.Title),
		Isbn:     strings.TrimSpace(req.Isbn),
		AuthorID: author.ID,
	}
	if err := db.Create(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "ISBN already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create book"})
		return
	}

	book.Author = author
	c.JSON(http.StatusCreated, bookJSON(book))
}

func updateBook(c *gin.Context) {
	bookUid := c.Param("bookUid")

	var book models.Book
	if err := db.Where("book_uid = ?", bookUid).First(&book).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var author models.Author
	if err := db.Where("author_uid = ?", req.AuthorUid).First(&author).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}

	book.Title = strings.TrimSpace(req.Title)
	book.Isbn = strings.TrimSpace(req.Isbn)
	book.AuthorID = author.ID
	if err := db.Save(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "ISBN already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update book"})
		return
	}

	c.Status(http.StatusNoContent)
}

func deleteBook(c *gin.Context) {
	bookUid := c.Param("bookUid")

	var book models.Book
	if err := db.Where("book_uid = ?", bookUid).First(&book).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	var loanCount int64
	db.Model(&models.Loan{}).Where("book_id = ?", book.ID).Count(&loanCount)
	if loanCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Book still has loans"})
		return
	}

	if err := db.Delete(&book).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete book"})
		return
	}

	c.Status(http.StatusNoContent)
}
