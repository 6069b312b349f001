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

type memberRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

func getMembers(c *gin.Context) {
	var members []models.Member
	if err := db.Order("full_name").Find(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, len(members))
	for i, m := range members {
		items[i] = gin.H{
			"memberUid": m.MemberUid,
			"fullName":  m.FullName,
			"email":     m.Email,
		}
	}
	c.JSON(http.StatusOK, items)
}

func getMember(c *gin.Context) {
	memberUid := c.Param("memberUid")

	var member models.Member
	if err := db.Where("member_uid = ?", memberUid).First(&member).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"memberUid": member.MemberUid,
		"fullName":  member.FullName,
		"email":     member.Email,
	})
}

func createMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member := models.Member{
		MemberUid: uuid.New().String(),
		FullName:  strings.TrimSpace(req.FullName),
		Email:     strings.TrimSpace(req.Email),
	}
	if err := db.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create member"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"memberUid": member.MemberUid,
		"fullName":  member.FullName,
		"email":     member.Email,
	})
}

func updateMember(c *gin.Context) {
	memberUid := c.Param("memberUid")

	var member models.Member
	if err := db.Where("member_uid = ?", memberUid).First(&member).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member.FullName = strings.TrimSpace(req.FullName)
	member.Email = strings.TrimSpace(req.Email)
	if err := db.Save(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
		return
	}

	c.Status(http.StatusNoContent)
}

func deleteMember(c *gin.Context) {
	memberUid := c.Param("memberUid")

	var member models.Member
	if err := db.Where("member_uid = ?", memberUid).First(&member).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	var loanCount int64
	db.Model(&models.Loan{}).Where("member_id = ?", member.ID).Count(&loanCount)
	if loanCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Member still has loans"})
		return
	}

	if err := db.Delete(&member).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete member"})
		return
	}

	c.Status(http.StatusNoContent)
}
