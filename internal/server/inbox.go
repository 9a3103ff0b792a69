package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
)

// handleInbox lists the caller's notifications, unread first.
func handleInbox(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := opts.DB.Where("user_id = ?", identity(c).UserID)
		if c.Query("unread") == "true" {
			q = q.Where("read = ?", false)
		}
		var rows []models.Notification
		if err := q.Order("read ASC, id DESC").Limit(200).Find(&rows).Error; err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// handleInboxRead marks one of the caller's notifications as read.
func handleInboxRead(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		result := opts.DB.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, identity(c).UserID).
			Update("read", true)
		if result.Error != nil {
			fail(c, result.Error)
			return
		}
		if result.RowsAffected == 0 {
			fail(c, apperr.NotFound("notification %d not found", id))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// handlePushSubscribe stores the caller's browser push endpoint.
func handlePushSubscribe(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Endpoint string `json:"endpoint" binding:"required"`
			Keys     struct {
				P256dh string `json:"p256dh"`
				Auth   string `json:"auth"`
			} `json:"keys"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid subscription payload: %v", err))
			return
		}

		sub := models.PushSubscription{
			UserID:   identity(c).UserID,
			Endpoint: req.Endpoint,
			P256dh:   req.Keys.P256dh,
			Auth:     req.Keys.Auth,
		}
		if err := opts.DB.Create(&sub).Error; err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": sub.ID})
	}
}
