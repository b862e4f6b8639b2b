package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-moderation-server/models"
	"feedback-moderation-server/repository"
	"feedback-moderation-server/services"
)

type submitFeedbackRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *handler) submitFeedback(c *gin.Context) {
	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"error":   err.Error(),
		})
		return
	}

	f, err := h.deps.Feedback.Submit(c.Request.Context(), req.Content)
	if errors.Is(err, services.ErrInvalidContent) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Feedback content is invalid",
			"error":   err.Error(),
		})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to submit feedback", err)
		return
	}

	message := "Feedback submitted and analyzed"
	if f.State() == models.StatePending {
		message = "Feedback submitted and requires review"
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    f,
	})
}

func (h *handler) listApprovedFeedback(c *gin.Context) {
	list, err := h.deps.Feedback.ListApproved(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to fetch feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list,
	})
}

// getFeedback only exposes published records
func (h *handler) getFeedback(c *gin.Context) {
	f, err := h.deps.Feedback.GetByID(c.Request.Context(), c.Param("id"))
	if err == nil && f.State() != models.StateApproved {
		err = repository.ErrNotFound
	}
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Feedback not found",
		})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to fetch feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    f,
	})
}
