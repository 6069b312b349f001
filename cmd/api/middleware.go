package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// requireAuth guards mutating routes. It expects an Authorization header
// of the form "Bearer <token>" signed with the configured secret and puts
// the verified claims on the context for handlers.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("username", claims.Name)
		c.Set("role", claims.Role)
		c.Next()
	}
}
