package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"library-api/pkg/auth"
	"library-api/pkg/config"
	"library-api/pkg/database"
	"library-api/pkg/loans"
)

var (
	db          *gorm.DB
	authService *auth.Service
	loanService *loans.Service
)

func main() {
	log.Println("Starting library service...")

	cfg := config.Load()
	db = database.Init(cfg)

	authService = auth.NewService(db, auth.TokenConfig{
		Secret:         cfg.JWTSecret,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
		ExpiresMinutes: cfg.JWTExpiresMinutes,
	})
	loanService = loans.NewService(db)

	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins: strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	v1 := server.Group("/api/v1")
	v1.POST("/auth/register", register)
	v1.POST("/auth/login", login)

	v1.GET("/authors", getAuthors)
	v1.GET("/authors/:authorUid", getAuthor)
	v1.GET("/authors/:authorUid/books", getAuthorBooks)
	v1.GET("/books", getBooks)
	v1.GET("/books/:bookUid", getBook)
	v1.GET("/members", getMembers)
	v1.GET("/members/:memberUid", getMember)
	v1.GET("/loans", getLoans)
	v1.GET("/loans/:loanUid", getLoan)

	protected := v1.Group("")
	protected.Use(requireAuth())
	protected.POST("/authors", createAuthor)
	protected.PUT("/authors/:authorUid", updateAuthor)
	protected.DELETE("/authors/:authorUid", deleteAuthor)
	protected.POST("/books", createBook)
	protected.PUT("/books/:bookUid", updateBook)
	protected.DELETE("/books/:bookUid", deleteBook)
	protected.POST("/members", createMember)
	protected.PUT("/members/:memberUid", updateMember)
	protected.DELETE("/members/:memberUid", deleteMember)
	protected.POST("/loans", createLoan)
	protected.POST("/loans/:loanUid/return", returnLoan)
	protected.DELETE("/loans/:loanUid", deleteLoan)

	server.GET("/manage/health", healthCheck)
	server.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Printf("Library service starting on :%s", cfg.Port)
	if err := server.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func healthCheck(ctx *gin.Context) {
	sqlDB, err := db.DB()
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
			"error":   err.Error(),
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": "UP",
	})
}
