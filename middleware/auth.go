package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"feedback-moderation-server/types"
	"feedback-moderation-server/utils"
)

// ContextModerator is the gin context key holding the authenticated username
const ContextModerator = "moderator"

// AdminAuthMiddleware requires a moderator Bearer token
func AdminAuthMiddleware(secret string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authorization header required",
				"message": "Please provide a valid token",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token format",
				"message": "Token must be in format: Bearer <token>",
			})
			c.Abort()
			return
		}

		authenticate(c, secret, tokenString, log)
	}
}

// WebSocketAuthMiddleware validates the token query parameter, since browsers
// cannot set headers on a websocket upgrade
func WebSocketAuthMiddleware(secret string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Token required",
				"message": "Please provide a valid token in query parameters",
			})
			c.Abort()
			return
		}

		authenticate(c, secret, tokenString, log)
	}
}

func authenticate(c *gin.Context, secret, tokenString string, log *zap.Logger) {
	claims, err := utils.VerifyToken(secret, tokenString)
	if err != nil {
		log.Debug("token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid token",
			"message": "Token is invalid or expired",
		})
		c.Abort()
		return
	}

	if claims.Role != types.RoleModerator {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Moderator access required",
		})
		c.Abort()
		return
	}

	c.Set(ContextModerator, claims.Username)
	c.Next()
}
