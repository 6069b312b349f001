package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"library-api/pkg/loans"
	"library-api/pkg/models"
)

type createLoanRequest struct {
	BookUid   string `json:"bookUid" binding:"required"`
	MemberUid string `json:"memberUid" binding:"required"`
	LoanDays  int    `json:"loanDays"`
}

type returnLoanRequest struct {
	ReturnedAt *time.Time `json:"returnedAt"`
}

func loanJSON(l models.Loan) gin.H {
	var returnedAt interface{}
	if l.ReturnedAt != nil {
		returnedAt = l.ReturnedAt.UTC().Format(time.RFC3339)
	}
	return gin.H{
		"loanUid":        l.LoanUid,
		"bookUid":        l.Book.BookUid,
		"bookTitle":      l.Book.Title,
		"memberUid":      l.Member.MemberUid,
		"memberFullName": l.Member.FullName,
		"loanedAt":       l.LoanedAt.UTC().Format(time.RFC3339),
		"dueAt":          l.DueAt.UTC().Format(time.RFC3339),
		"returnedAt":     returnedAt,
	}
}

// getLoans godoc
// @Summary List loans, most recently loaned first
// @Tags loans
// @Produce json
// @Param active query bool false "true for outstanding loans only, false for returned only"
// @Success 200 {array} map[string]interface{}
// @Router /loans [get]
func getLoans(c *gin.Context) {
	var activeOnly *bool
	if raw := c.Query("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "active must be true or false"})
			return
		}
		activeOnly = &parsed
	}

	items, err := loanService.List(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]gin.H, len(items))
	for i, l := range items {
		result[i] = loanJSON(l)
	}
	c.JSON(http.StatusOK, result)
}

func getLoan(c *gin.Context) {
	loan, err := loanService.GetByUid(c.Request.Context(), c.Param("loanUid"))
	if err != nil {
		if errors.Is(err, loans.ErrLoanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, loanJSON(*loan))
}

// createLoan godoc
// @Summary Check out a book to a member
// @Tags loans
// @Accept json
// @Produce json
// @Param request body createLoanRequest true "Checkout data"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loans [post]
func createLoan(c *gin.Context) {
	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := loanService.Checkout(c.Request.Context(), req.BookUid, req.MemberUid, req.LoanDays)
	if err != nil {
		switch {
		case errors.Is(err, loans.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		case errors.Is(err, loans.ErrMemberNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		case errors.Is(err, loans.ErrBookOnLoan):
			c.JSON(http.StatusConflict, gin.H{"error": "Book is already on loan"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, loanJSON(*loan))
}

// returnLoan godoc
// @Summary Return a loaned book
// @Tags loans
// @Accept json
// @Produce json
// @Param request body returnLoanRequest false "Optional return timestamp"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loans/{loanUid}/return [post]
func returnLoan(c *gin.Context) {
	// Body is optional; absent means "returned now".
	var req returnLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := loanService.Return(c.Request.Context(), c.Param("loanUid"), req.ReturnedAt)
	if err != nil {
		switch {
		case errors.Is(err, loans.ErrLoanNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		case errors.Is(err, loans.ErrAlreadyReturned):
			c.JSON(http.StatusConflict, gin.H{"error": "Loan is already returned"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, loanJSON(*loan))
}

func deleteLoan(c *gin.Context) {
	deleted, err := loanService.Delete(c.Request.Context(), c.Param("loanUid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
