package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-api/pkg/models"
)

type authorRequest struct {
	Name string `json:"name" binding:"required"`
}

func getAuthors(c *gin.Context) {
	var authors []models.Author
	if err := db.Order("name").Find(&authors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, len(authors))
	for i, a := range authors {
		items[i] = gin.H{
			"authorUid": a.AuthorUid,
			"name":      a.Name,
		}
	}
	c.JSON(http.StatusOK, items)
}

func getAuthor(c *gin.Context) {
	authorUid := c.Param("authorUid")

	var author models.Author
	if err := db.Where("author_uid = ?", authorUid).First(&author).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorUid": author.AuthorUid,
		"name":      author.Name,
	})
}

// getAuthorBooks lists an author's books as a query, not a stored
// collection on the author row.
func getAuthorBooks(c *gin.Context) {
	authorUid := c.Param("authorUid")

	var author models.Author
	if err := db.Where("author_uid = ?", authorUid).First(&author).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}

	var books []models.Book
	if err := db.Where("author_id = ?", author.ID).Order("title").Find(&books).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, len(books))
	for i, b := range books {
		items[i] = gin.H{
			"bookUid":    b.BookUid,
			"title":      b.Title,
			"isbn":       b.Isbn,
			"authorUid":  author.AuthorUid,
			"authorName": author.Name,
		}
	}
	c.JSON(http.StatusOK, items)
}

func createAuthor(c *gin.Context) {
	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	author := models.Author{
		AuthorUid: uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
	}
	if err := db.Create(&author).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create author"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"authorUid": author.AuthorUid,
		"name":      author.Name,
	})
}

func updateAuthor(c *gin.Context) {
	authorUid := c.Param("authorUid")

	var author models.Author
	if err := db.Where("author_uid = ?", authorUid).First(&author).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}

	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	author.Name = strings.TrimSpace(req.Name)
	if err := db.Save(&author).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update author"})
		return
	}

	c.Status(http.StatusNoContent)
}

func deleteAuthor(c *gin.Context) {
	authorUid := c.Param("authorUid")

	var author models.Author
	if err := db.Where("author_uid = ?", authorUid).First(&author).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}

	var books int64
	db.Model(&models.Book{}).Where("author_id = ?", author.ID).Count(&books)
	if books > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Author still has books"})
		return
	}

	if err := db.Delete(&author).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete author"})
		return
	}

	c.Status(http.StatusNoContent)
}
