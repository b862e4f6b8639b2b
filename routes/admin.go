package routes

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"feedback-moderation-server/middleware"
	"feedback-moderation-server/utils"
)

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// adminLogin exchanges the configured moderator credentials for a JWT
func (h *handler) adminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"error":   err.Error(),
		})
		return
	}

	admin := h.deps.Config.Admin
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(admin.Username)) == 1
	// bcrypt runs even when the username is wrong.
	passOK := utils.CheckPasswordHash(req.Password, admin.PasswordHash)
	if !userOK || !passOK {
		h.log.Warn("admin login failed", zap.String("username", req.Username), zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Invalid credentials",
		})
		return
	}

	expiry := time.Duration(h.deps.Config.JWT.ExpiryHours) * time.Hour
	token, err := utils.GenerateToken(h.deps.Config.JWT.Secret, expiry, admin.Username)
	if err != nil {
		h.internalError(c, "Failed to generate token", err)
		return
	}

	h.log.Info("admin logged in", zap.String("username", admin.Username))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":      token,
			"token_type": "Bearer",
			"expires_in": int64(expiry.Seconds()),
			"username":   admin.Username,
		},
	})
}

func (h *handler) currentAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"username": c.GetString(middleware.ContextModerator),
		},
	})
}
