package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"feedback-moderation-server/middleware"
	"feedback-moderation-server/models"
	"feedback-moderation-server/repository"
	"feedback-moderation-server/services"
)

type reviewRequest struct {
	Notes string `json:"notes"`
}

func (h *handler) listPending(c *gin.Context) {
	list, err := h.deps.Review.PendingReview(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to fetch pending feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

func (h *handler) pendingCount(c *gin.Context) {
	n, err := h.deps.Review.PendingCount(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to count pending feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"count": n}})
}

func (h *handler) listRejected(c *gin.Context) {
	list, err := h.deps.Review.Rejected(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to fetch rejected feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

func (h *handler) getPending(c *gin.Context) {
	f, err := h.deps.Review.GetPending(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Pending feedback not found",
		})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to fetch feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": f})
}

func (h *handler) approveFeedback(c *gin.Context) {
	h.review(c, "approved", h.deps.Review.Approve)
}

func (h *handler) rejectFeedback(c *gin.Context) {
	h.review(c, "rejected", h.deps.Review.Reject)
}

type reviewAction func(ctx context.Context, id, notes string) (*models.Feedback, error)

func (h *handler) review(c *gin.Context, verb string, action reviewAction) {
	var req reviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Invalid request data",
				"error":   err.Error(),
			})
			return
		}
	}

	id := c.Param("id")
	f, err := action(c.Request.Context(), id, req.Notes)
	switch {
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "Feedback has already been reviewed",
			"error":   err.Error(),
		})
		return
	case err != nil:
		h.internalError(c, "Failed to review feedback", err)
		return
	case f == nil:
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Feedback not found",
		})
		return
	}

	h.log.Info("feedback "+verb,
		zap.String("feedback_id", id),
		zap.String("moderator", c.GetString(middleware.ContextModerator)),
	)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Feedback " + verb,
		"data":    f,
	})
}
