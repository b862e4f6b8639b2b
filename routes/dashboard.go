package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handler) getDashboardStats(c *gin.Context) {
	stats, err := h.deps.Dashboard.Stats(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to compute dashboard statistics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
