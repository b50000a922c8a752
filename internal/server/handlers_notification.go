package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/notify"
)

// handleListNotifications returns the caller's recent notifications together
// with the derived unread count.
func (s *api) handleListNotifications(c *gin.Context) {
	p := currentProfile(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	items, err := notify.ListRecent(s.db, p.ID, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	unread, err := notify.UnreadCount(s.db, p.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	views := make([]gin.H, 0, len(items))
	for i := range items {
		views = append(views, notificationView(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "unread": unread})
}

// handleMarkNotificationRead marks one of the caller's notifications read.
func (s *api) handleMarkNotificationRead(c *gin.Context) {
	p := currentProfile(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := notify.MarkRead(s.db, p.ID, uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleMarkAllNotificationsRead marks every unread notification read.
func (s *api) handleMarkAllNotificationsRead(c *gin.Context) {
	p := currentProfile(c)
	if err := notify.MarkAllRead(s.db, p.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func notificationView(n *models.Notification) gin.H {
	return gin.H{
		"id":         n.ID,
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"task_id":    n.TaskID,
		"read":       n.Read,
		"read_at":    n.ReadAt,
		"created_at": n.CreatedAt,
	}
}
