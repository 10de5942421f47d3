package middleware

import (
	"net/http"
	"strings"

	"paygate/config"
	"paygate/internal/auth"

	"github.com/gin-gonic/gin"
)

// OpsAuthRequired validates the back-office bearer token and sets the caller
// subject in the context.
func OpsAuthRequired(cfg *config.OpsConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseOpsToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("subject", claims.Subject)
		c.Next()
	}
}
